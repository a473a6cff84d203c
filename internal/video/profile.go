package video

import "fmt"

// Timescale is the number of time units per second in presentation
// timestamps. 600 divides evenly by 24, 25, 30 and 60.
const Timescale = 600

// Profile is the fixed output format.
type Profile struct {
	Width      int
	Height     int
	FPS        int
	Bitrate    string // ffmpeg -b:v value
	Codec      string // ffmpeg encoder name
	Timescale  int64
	QueueDepth int // frames buffered between Append and the ffmpeg pipe
}

// DefaultProfile is 1920x1080 at 60 fps, H.264 at 8 Mbit/s.
func DefaultProfile() Profile {
	return Profile{
		Width:      1920,
		Height:     1080,
		FPS:        60,
		Bitrate:    "8M",
		Codec:      "libx264",
		Timescale:  Timescale,
		QueueDepth: 4,
	}
}

func (p Profile) Validate() error {
	if p.Width <= 0 || p.Height <= 0 || p.Width%2 != 0 || p.Height%2 != 0 {
		return fmt.Errorf("resolution %dx%d must be positive and even", p.Width, p.Height)
	}
	if p.FPS <= 0 {
		return fmt.Errorf("fps %d must be positive", p.FPS)
	}
	if p.Timescale <= 0 || p.Timescale%int64(p.FPS) != 0 {
		return fmt.Errorf("timescale %d is not a multiple of %d fps", p.Timescale, p.FPS)
	}
	return nil
}

// FrameDuration is the length of one frame in timescale units.
func (p Profile) FrameDuration() int64 {
	return p.Timescale / int64(p.FPS)
}

// PTS is the presentation timestamp of frame index in timescale units.
func (p Profile) PTS(index int) int64 {
	return int64(index) * p.FrameDuration()
}

// Seconds converts a timestamp in timescale units to seconds.
func (p Profile) Seconds(pts int64) float64 {
	return float64(pts) / float64(p.Timescale)
}
