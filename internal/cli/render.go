package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ivlev/text2video/internal/config"
	"github.com/ivlev/text2video/internal/engine"
	"github.com/ivlev/text2video/internal/system"
)

const (
	textInputDir       = "input/text"
	backgroundInputDir = "input/background"
)

// RenderOptions are the render flags; only flags set on the command line
// override the config file.
type RenderOptions struct {
	Text       string
	Script     string
	Background string
	Color      string
	QR         string
	Font       string
	FontSize   float64
	Align      string
	Width      int
	Height     int
	FPS        int
	Encoder    string
	FramesDir  string
	Output     string
	UnitDelay  time.Duration
	LineDelay  time.Duration
	Trailing   time.Duration
	Hold       time.Duration
	Stats      bool
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{}

	cmd := &cobra.Command{
		Use:   "render [text]",
		Short: "Reveal text, capture it and encode the video",
		Long: `Reveal text one jamo at a time, capture every frame into the frame
directory and encode the frames into a video next to them.

Without text or --script the newest .txt file in input/text is used; without
--background the newest image or PDF in input/background, if any.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.Text = args[0]
				cmd.Flags().Set("text", args[0])
			}
			return runRender(cmd, rootOpts, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Text, "text", "", "text to reveal")
	f.StringVarP(&opts.Script, "script", "s", "", "text file to reveal")
	f.StringVarP(&opts.Background, "background", "b", "", "background image or PDF")
	f.StringVar(&opts.Color, "color", "", "background colour when no image is used (#rrggbb)")
	f.StringVar(&opts.QR, "qr", "", "QR code text drawn on a generated background")
	f.StringVar(&opts.Font, "font", "", "TTF/OTF font file (default Go Regular)")
	f.Float64Var(&opts.FontSize, "font-size", 0, "font size of the active line in pixels")
	f.StringVar(&opts.Align, "align", "", "line alignment: leading or center")
	f.IntVar(&opts.Width, "width", 0, "output width")
	f.IntVar(&opts.Height, "height", 0, "output height")
	f.IntVar(&opts.FPS, "fps", 0, "frames per second")
	f.StringVar(&opts.Encoder, "encoder", "", "ffmpeg H.264 encoder, or auto")
	f.StringVar(&opts.FramesDir, "frames-dir", "", "frame directory (default user cache)")
	f.StringVarP(&opts.Output, "output", "o", "", "video file name inside the frame directory")
	f.DurationVar(&opts.UnitDelay, "unit-delay", 0, "pause before each unit")
	f.DurationVar(&opts.LineDelay, "line-delay", 0, "pause before each line break")
	f.DurationVar(&opts.Trailing, "trailing-delay", 0, "pause after the last unit before the reveal completes")
	f.DurationVar(&opts.Hold, "hold", 0, "keep capturing this long after the reveal")
	f.BoolVar(&opts.Stats, "stats", false, "print a performance report")

	return cmd
}

func runRender(cmd *cobra.Command, rootOpts *RootOptions, opts *RenderOptions) error {
	cfg, err := loadConfig(rootOpts)
	if err != nil {
		return err
	}
	applyRenderFlags(cmd, cfg, opts)

	out := cmd.OutOrStdout()
	if cfg.Text == "" && cfg.ScriptPath == "" {
		os.MkdirAll(textInputDir, 0755)
		latest, err := system.FindLatestFile(textInputDir, ".txt")
		if err != nil {
			return fmt.Errorf("%v: pass text, --script or put a .txt file in %s", err, textInputDir)
		}
		cfg.ScriptPath = latest
		fmt.Fprintf(out, "[*] Выбран текст: %s\n", latest)
	}
	if err := cfg.ResolveText(); err != nil {
		return err
	}
	if cfg.Background == "" && !cmd.Flags().Changed("color") && !cmd.Flags().Changed("qr") {
		if latest, err := system.FindLatestFile(backgroundInputDir, ".png", ".jpg", ".jpeg", ".pdf"); err == nil {
			cfg.Background = latest
			fmt.Fprintf(out, "[*] Выбран фон: %s\n", latest)
		}
	}

	project, err := engine.NewProject(cfg, nil)
	if err != nil {
		return err
	}
	bar := &progressBar{title: "Encoding"}
	project.Progress = bar.update
	project.Report = out

	fmt.Fprintln(out, "--- [PROJECT: TEXT REVEAL] ---")
	fmt.Fprintf(out, "[*] Разрешение: %dx%d @ %d FPS | Кадры: %s\n", cfg.Width, cfg.Height, cfg.FPS, project.Store.Dir())
	fmt.Fprintln(out, "-----------------------------")

	res, err := project.Run(cmd.Context())
	bar.stop()
	if err != nil {
		if res != nil && res.Frames > 0 && project.Store.FrameCount() > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "[!] Кадры сохранены, сессия %s: повторите `text2video encode --session %s`\n",
				project.Store.SessionID(), project.Store.SessionID())
		}
		return err
	}

	fmt.Fprintf(out, "[+++] Успех! Результат: %s\n", res.VideoPath)
	return nil
}

func applyRenderFlags(cmd *cobra.Command, cfg *config.Config, opts *RenderOptions) {
	f := cmd.Flags()
	if f.Changed("text") {
		cfg.Text = opts.Text
	}
	if f.Changed("script") {
		cfg.Text = ""
		cfg.ScriptPath = opts.Script
	}
	if f.Changed("background") {
		cfg.Background = opts.Background
	}
	if f.Changed("color") {
		cfg.BackgroundColor = opts.Color
	}
	if f.Changed("qr") {
		cfg.QRText = opts.QR
	}
	if f.Changed("font") {
		cfg.FontPath = opts.Font
	}
	if f.Changed("font-size") {
		cfg.FontSize = opts.FontSize
	}
	if f.Changed("align") {
		cfg.TextAlign = opts.Align
	}
	if f.Changed("width") {
		cfg.Width = opts.Width
	}
	if f.Changed("height") {
		cfg.Height = opts.Height
	}
	if f.Changed("fps") {
		cfg.FPS = opts.FPS
	}
	if f.Changed("encoder") {
		cfg.VideoEncoder = opts.Encoder
	}
	if f.Changed("frames-dir") {
		cfg.FramesDir = opts.FramesDir
	}
	if f.Changed("output") {
		cfg.OutputName = opts.Output
	}
	if f.Changed("unit-delay") {
		cfg.UnitDelay = opts.UnitDelay
	}
	if f.Changed("line-delay") {
		cfg.LineDelay = opts.LineDelay
	}
	if f.Changed("trailing-delay") {
		cfg.TrailingDelay = opts.Trailing
	}
	if f.Changed("hold") {
		cfg.Hold = opts.Hold
	}
	if f.Changed("stats") {
		cfg.ShowStats = opts.Stats
	}
}
