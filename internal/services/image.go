package services

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

type ImageProcessor interface {
	// Encode downscales an image so its longer side is at most the
	// configured limit and re-encodes it as JPEG.
	Encode(data []byte) (EncodedImage, error)
	EncodeFile(path string) (EncodedImage, error)
	// EncodeFiles encodes every path, at most workers at a time. Order is
	// preserved and files that fail are skipped.
	EncodeFiles(paths []string, workers int) []EncodedImage
}

type imageProcessor struct {
	maxSide int
	quality int
	logger  *zap.Logger
}

func NewImageProcessor(maxSide, quality int, logger *zap.Logger) ImageProcessor {
	if maxSide <= 0 {
		maxSide = 1280
	}
	if quality <= 0 || quality > 100 {
		quality = 72
	}
	return &imageProcessor{
		maxSide: maxSide,
		quality: quality,
		logger:  logger,
	}
}

// Encode implements ImageProcessor.
func (p *imageProcessor) Encode(data []byte) (EncodedImage, error) {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return EncodedImage{}, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := src.Bounds()
	width, height := fitWithin(bounds.Dx(), bounds.Dy(), p.maxSide)

	// JPEG has no alpha; paint onto white first so transparent PNGs do not
	// come out black.
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: p.quality}); err != nil {
		return EncodedImage{}, fmt.Errorf("failed to encode jpeg: %w", err)
	}

	p.logger.Debug("Image encoded",
		zap.String("source_format", format),
		zap.Int("source_width", bounds.Dx()),
		zap.Int("source_height", bounds.Dy()),
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Int("bytes", buf.Len()),
	)

	return EncodedImage{
		MIMEType: "image/jpeg",
		Data:     buf.Bytes(),
		Width:    width,
		Height:   height,
	}, nil
}

// EncodeFile implements ImageProcessor.
func (p *imageProcessor) EncodeFile(path string) (EncodedImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return EncodedImage{}, fmt.Errorf("failed to read image: %w", err)
	}
	return p.Encode(data)
}

// EncodeFiles implements ImageProcessor.
func (p *imageProcessor) EncodeFiles(paths []string, workers int) []EncodedImage {
	if workers <= 0 {
		workers = 1
	}

	results := make([]*EncodedImage, len(paths))
	wp := pool.New().WithMaxGoroutines(workers)

	for idx, path := range paths {
		wp.Go(func() {
			encoded, err := p.EncodeFile(path)
			if err != nil {
				p.logger.Warn("Skipping unreadable image", zap.String("path", path), zap.Error(err))
				return
			}
			results[idx] = &encoded
		})
	}
	wp.Wait()

	images := make([]EncodedImage, 0, len(paths))
	for _, encoded := range results {
		if encoded != nil {
			images = append(images, *encoded)
		}
	}
	return images
}

// fitWithin scales width x height down so the longer side is at most limit.
// Images already within the limit keep their size.
func fitWithin(width, height, limit int) (int, int) {
	longest := max(width, height)
	if longest <= limit || longest == 0 {
		return max(width, 1), max(height, 1)
	}
	scale := float64(limit) / float64(longest)
	return max(int(float64(width)*scale+0.5), 1), max(int(float64(height)*scale+0.5), 1)
}
