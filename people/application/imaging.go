package application

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"

	"github.com/nfnt/resize"
	"github.com/rs/zerolog/log"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	// DefaultJPEGQuality matches the compression used for captured photos
	DefaultJPEGQuality = 80
	// DefaultThumbnailSize bounds both sides of a grid thumbnail
	DefaultThumbnailSize = 300
	// svgFallbackSize is used when an SVG has no usable viewBox
	svgFallbackSize = 512
	// MaxImagePixels bounds width*height of any image we agree to decode
	MaxImagePixels = 50_000_000
)

var ErrImageTooLarge = errors.New("image dimensions too large")

func checkDimensions(w, h float64) error {
	if w*h > MaxImagePixels {
		return fmt.Errorf("%w: %.0fx%.0f exceeds %d pixels", ErrImageTooLarge, w, h, MaxImagePixels)
	}
	return nil
}

// ImageProcessor turns uploaded images into the JPEG files kept in the documents directory
type ImageProcessor struct {
	jpegQuality int
}

func NewImageProcessor(jpegQuality int) *ImageProcessor {
	if jpegQuality < 1 || jpegQuality > 100 {
		jpegQuality = DefaultJPEGQuality
	}
	return &ImageProcessor{
		jpegQuality: jpegQuality,
	}
}

// Normalize decodes any supported format (PNG, JPEG, GIF, BMP, TIFF, WebP, SVG)
// and re-encodes it as JPEG on a white background.
func (p *ImageProcessor) Normalize(data []byte) ([]byte, error) {
	img, format, err := decodeImage(data)
	if err != nil {
		return nil, err
	}

	out, err := p.encodeJPEG(img)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("format", format).
		Int("input_bytes", len(data)).
		Int("output_bytes", len(out)).
		Msg("Normalized image")
	return out, nil
}

// Thumbnail scales the image down to fit a size x size box, keeping the
// aspect ratio. Images that already fit are only re-encoded.
func (p *ImageProcessor) Thumbnail(data []byte, size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid thumbnail size: %d", size)
	}

	img, _, err := decodeImage(data)
	if err != nil {
		return nil, err
	}

	thumb := resize.Thumbnail(uint(size), uint(size), img, resize.Lanczos3)
	return p.encodeJPEG(thumb)
}

func (p *ImageProcessor) encodeJPEG(img image.Image) ([]byte, error) {
	bounds := img.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(canvas, canvas.Bounds(), img, bounds.Min, draw.Over)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: p.jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode image as jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeImage(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("image data is empty")
	}

	if isSVGData(data) {
		img, err := rasterizeSVG(data)
		if err != nil {
			return nil, "", err
		}
		return img, "svg", nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	if err := checkDimensions(float64(cfg.Width), float64(cfg.Height)); err != nil {
		return nil, "", err
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return img, format, nil
}

// isSVGData looks for an <svg tag or the SVG namespace in the first 4KB
func isSVGData(data []byte) bool {
	n := len(data)
	if n > 4096 {
		n = 4096
	}
	header := bytes.ToLower(bytes.TrimSpace(data[:n]))
	return bytes.Contains(header, []byte("<svg")) ||
		bytes.Contains(header, []byte("http://www.w3.org/2000/svg"))
}

func rasterizeSVG(data []byte) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse svg: %w", err)
	}

	if err := checkDimensions(icon.ViewBox.W, icon.ViewBox.H); err != nil {
		return nil, err
	}
	w, h := int(icon.ViewBox.W), int(icon.ViewBox.H)
	if w <= 0 || h <= 0 {
		w, h = svgFallbackSize, svgFallbackSize
	}
	icon.SetTarget(0, 0, float64(w), float64(h))

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(w, h, dst, dst.Bounds())
	dasher := rasterx.NewDasher(w, h, scanner)
	icon.Draw(dasher, 1.0)

	return dst, nil
}
