// Package source provides the background image every frame is composited
// over.
package source

import (
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// Source is a paged image provider. Page dimensions are in points (1/72
// inch) for PDFs and in pixels for everything else.
type Source interface {
	PageCount() int
	GetPageDimensions(index int) (width, height float64, err error)
	RenderPage(index int, dpi int) (image.Image, error)
	Close() error
}

type FitzPDFSource struct {
	doc  *fitz.Document
	path string
}

func NewFitzPDFSource(path string) (*FitzPDFSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	return &FitzPDFSource{doc: doc, path: path}, nil
}

func (f *FitzPDFSource) PageCount() int {
	return f.doc.NumPage()
}

func (f *FitzPDFSource) GetPageDimensions(index int) (float64, float64, error) {
	rect, err := f.doc.Bound(index)
	if err != nil {
		return 0, 0, err
	}
	return float64(rect.Dx()), float64(rect.Dy()), nil
}

func (f *FitzPDFSource) RenderPage(index int, dpi int) (image.Image, error) {
	return f.doc.ImageDPI(index, float64(dpi))
}

func (f *FitzPDFSource) Close() error {
	return f.doc.Close()
}

// BackgroundOptions selects and sizes the background.
type BackgroundOptions struct {
	Path   string // image or PDF; empty for a generated background
	Width  int
	Height int
	DPI    int // PDF rasterisation; zero fits the page to Width x Height
	Color  string
	QRText string // generated backgrounds only
}

// LoadBackground renders the first page of the configured source. A PDF is
// rasterised at the DPI that covers the output size, so the compositor only
// ever scales it down.
func LoadBackground(opts BackgroundOptions) (image.Image, error) {
	var src Source
	var err error
	switch {
	case opts.Path == "":
		src, err = NewSolidSource(opts.Width, opts.Height, opts.Color, opts.QRText)
	case strings.HasSuffix(strings.ToLower(opts.Path), ".pdf"):
		src, err = NewFitzPDFSource(opts.Path)
	default:
		src, err = NewImageSource(opts.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("open background %q: %w", opts.Path, err)
	}
	defer src.Close()

	if src.PageCount() == 0 {
		return nil, fmt.Errorf("background %q has no pages", opts.Path)
	}
	w, h, err := src.GetPageDimensions(0)
	if err != nil {
		return nil, fmt.Errorf("background %q: %w", opts.Path, err)
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("background %q has an empty page", opts.Path)
	}
	dpi := opts.DPI
	if dpi <= 0 {
		dpi = FitDPI(w, h, opts.Width, opts.Height)
	}
	img, err := src.RenderPage(0, dpi)
	if err != nil {
		return nil, fmt.Errorf("render background %q: %w", opts.Path, err)
	}
	return img, nil
}

// FitDPI returns the smallest DPI at which a page of w x h points covers
// width x height pixels in both directions.
func FitDPI(w, h float64, width, height int) int {
	if w <= 0 || h <= 0 || width <= 0 || height <= 0 {
		return 72
	}
	scale := math.Max(float64(width)/w, float64(height)/h)
	return int(math.Ceil(72 * scale))
}

func errPageRange(index int) error {
	return fmt.Errorf("page %d out of range", index)
}
