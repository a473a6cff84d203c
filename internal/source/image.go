package source

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
)

// ImageSource is a single raster background. It has one page, and its page
// size is the pixel size of the file.
type ImageSource struct {
	path string
	cfg  image.Config
}

// NewImageSource reads only the image header; the pixels are decoded by
// RenderPage.
func NewImageSource(path string) (*ImageSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return nil, err
	}
	return &ImageSource{path: path, cfg: cfg}, nil
}

func (s *ImageSource) PageCount() int { return 1 }

func (s *ImageSource) GetPageDimensions(index int) (float64, float64, error) {
	if index != 0 {
		return 0, 0, errPageRange(index)
	}
	return float64(s.cfg.Width), float64(s.cfg.Height), nil
}

// RenderPage decodes the file; dpi does not apply to raster images.
func (s *ImageSource) RenderPage(index int, dpi int) (image.Image, error) {
	if index != 0 {
		return nil, errPageRange(index)
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	return img, err
}

func (s *ImageSource) Close() error { return nil }
