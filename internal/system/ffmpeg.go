package system

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// HasFFmpeg reports whether both ffmpeg and ffprobe are on PATH.
func HasFFmpeg() bool {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return false
	}
	return HasFFprobe()
}

func HasFFprobe() bool {
	_, err := exec.LookPath("ffprobe")
	return err == nil
}

// GetBestH264Encoder picks a hardware H.264 encoder when ffmpeg lists one,
// falling back to libx264.
func GetBestH264Encoder() string {
	out, err := exec.Command("ffmpeg", "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		return "libx264"
	}
	// VideoToolbox on macOS first, then NVENC
	for _, name := range []string{"h264_videotoolbox", "h264_nvenc"} {
		if strings.Contains(string(out), name) {
			return name
		}
	}
	return "libx264"
}

// VideoInfo is what ffprobe reports about the first video stream.
type VideoInfo struct {
	Codec  string
	Width  int
	Height int
	FPS    float64
	Frames int
}

// ProbeVideo decodes the first video stream of path with ffprobe and counts
// its frames.
func ProbeVideo(ctx context.Context, path string) (VideoInfo, error) {
	cmd := exec.CommandContext(ctx, "ffprobe", "-v", "error",
		"-select_streams", "v:0", "-count_frames",
		"-show_entries", "stream=codec_name,width,height,r_frame_rate,nb_read_frames",
		"-of", "default=noprint_wrappers=1", path)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return VideoInfo{}, fmt.Errorf("ffprobe error: %v, output: %s", err, string(out))
	}

	var info VideoInfo
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		switch key {
		case "codec_name":
			info.Codec = value
		case "width":
			info.Width, _ = strconv.Atoi(value)
		case "height":
			info.Height, _ = strconv.Atoi(value)
		case "nb_read_frames":
			info.Frames, _ = strconv.Atoi(value)
		case "r_frame_rate":
			info.FPS = parseRate(value)
		}
	}
	return info, nil
}

// ProbeFrameTimes returns the presentation time in seconds of every decoded
// frame of the first video stream.
func ProbeFrameTimes(ctx context.Context, path string) ([]float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe", "-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "frame=pts_time",
		"-of", "csv=p=0", path)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("ffprobe error: %v, output: %s", err, string(out))
	}

	var times []float64
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		line = strings.TrimSuffix(strings.TrimSpace(line), ",")
		if line == "" {
			continue
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return nil, fmt.Errorf("ffprobe frame time %q: %w", line, err)
		}
		times = append(times, v)
	}
	return times, nil
}

func parseRate(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !ok {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}
