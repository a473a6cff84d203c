package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/text2video/internal/compositor"
	"github.com/ivlev/text2video/internal/renderer"
	"github.com/ivlev/text2video/internal/reveal"
	"github.com/ivlev/text2video/internal/source"
	"github.com/ivlev/text2video/internal/video"
)

type Config struct {
	Text       string `yaml:"text"`
	ScriptPath string `yaml:"script"`

	UnitDelay     time.Duration `yaml:"unit_delay"`
	LineDelay     time.Duration `yaml:"line_delay"`
	TrailingDelay time.Duration `yaml:"trailing_delay"` // pause the reveal takes after its last unit
	Hold          time.Duration `yaml:"hold"`           // capture keeps running after the reveal

	Width        int    `yaml:"width"`
	Height       int    `yaml:"height"`
	FPS          int    `yaml:"fps"`
	Bitrate      string `yaml:"bitrate"`
	VideoEncoder string `yaml:"encoder"`
	PixelFormat  string `yaml:"pixel_format"`
	QueueDepth   int    `yaml:"queue_depth"`
	PoolSize     int    `yaml:"pool_size"`

	FramesDir    string `yaml:"frames_dir"` // empty uses the user cache dir
	OutputName   string `yaml:"output"`
	MinFreeBytes uint64 `yaml:"min_free_bytes"`

	Background      string `yaml:"background"`
	BackgroundColor string `yaml:"background_color"`
	QRText          string `yaml:"qr"`
	DPI             int    `yaml:"dpi"` // 0 rasterises a PDF background at the output size

	FontPath  string  `yaml:"font"`
	FontSize  float64 `yaml:"font_size"`
	TextColor string  `yaml:"text_color"`
	TextAlign string  `yaml:"text_align"`

	ShowStats    bool   `yaml:"stats"`
	BuildVersion string `yaml:"-"`
}

func Default() *Config {
	p := video.DefaultProfile()
	r := reveal.DefaultOptions()
	return &Config{
		UnitDelay:       r.UnitDelay,
		LineDelay:       r.LineDelay,
		Hold:            time.Second,
		Width:           p.Width,
		Height:          p.Height,
		FPS:             p.FPS,
		Bitrate:         p.Bitrate,
		VideoEncoder:    p.Codec,
		PixelFormat:     string(compositor.BGRA),
		QueueDepth:      p.QueueDepth,
		PoolSize:        4,
		OutputName:      "reveal.mp4",
		MinFreeBytes:    512 << 20,
		BackgroundColor: "#101014",
		TextColor:       "#ffffff",
		TextAlign:       string(renderer.AlignLeading),
	}
}

// Load reads a YAML config over the defaults. A relative script path is
// resolved against the config file's directory.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.ScriptPath != "" && !filepath.IsAbs(cfg.ScriptPath) {
		cfg.ScriptPath = filepath.Join(filepath.Dir(path), cfg.ScriptPath)
	}
	return cfg, nil
}

// LoadScript reads the text to animate. A UTF-8 BOM and trailing newlines
// are dropped.
func LoadScript(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read script: %w", err)
	}
	text := strings.TrimPrefix(string(data), "\ufeff")
	return strings.TrimRight(text, "\r\n"), nil
}

// ResolveText fills Text from ScriptPath when no inline text is set.
func (c *Config) ResolveText() error {
	if c.Text != "" || c.ScriptPath == "" {
		return nil
	}
	text, err := LoadScript(c.ScriptPath)
	if err != nil {
		return err
	}
	c.Text = text
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Text == "" {
		errs = append(errs, errors.New("no text to animate"))
	}
	if c.UnitDelay < 0 || c.LineDelay < 0 || c.TrailingDelay < 0 || c.Hold < 0 {
		errs = append(errs, errors.New("delays must not be negative"))
	}
	if err := c.Profile().Validate(); err != nil {
		errs = append(errs, err)
	}
	if _, err := compositor.ParsePixelFormat(c.PixelFormat); err != nil {
		errs = append(errs, err)
	}
	if c.OutputName == "" || strings.ContainsAny(c.OutputName, `/\`) {
		errs = append(errs, fmt.Errorf("output name %q must be a plain file name", c.OutputName))
	}
	if _, err := source.ParseHexColor(c.TextColor); err != nil {
		errs = append(errs, fmt.Errorf("text color: %w", err))
	}
	if _, err := renderer.ParseAlign(c.TextAlign); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c *Config) Profile() video.Profile {
	return video.Profile{
		Width:      c.Width,
		Height:     c.Height,
		FPS:        c.FPS,
		Bitrate:    c.Bitrate,
		Codec:      c.VideoEncoder,
		Timescale:  video.Timescale,
		QueueDepth: c.QueueDepth,
	}
}

func (c *Config) RevealOptions() reveal.Options {
	return reveal.Options{
		UnitDelay:     c.UnitDelay,
		LineDelay:     c.LineDelay,
		TrailingDelay: c.TrailingDelay,
	}
}

func (c *Config) RendererOptions() renderer.Options {
	opts := renderer.DefaultOptions(c.Width, c.Height, c.FPS)
	opts.FontPath = c.FontPath
	if c.FontSize > 0 {
		opts.FontSize = c.FontSize
	}
	if ink, err := source.ParseHexColor(c.TextColor); err == nil {
		opts.Color = ink
	}
	if align, err := renderer.ParseAlign(c.TextAlign); err == nil {
		opts.Align = align
	}
	return opts
}

func (c *Config) BackgroundOptions() source.BackgroundOptions {
	return source.BackgroundOptions{
		Path:   c.Background,
		Width:  c.Width,
		Height: c.Height,
		DPI:    c.DPI,
		Color:  c.BackgroundColor,
		QRText: c.QRText,
	}
}
