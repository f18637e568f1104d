package services

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestImageProcessorDownscales(t *testing.T) {
	processor := NewImageProcessor(100, 72, zap.NewNop())

	encoded, err := processor.Encode(pngBytes(t, 400, 200))
	require.NoError(t, err)

	assert.Equal(t, "image/jpeg", encoded.MIMEType)
	assert.Equal(t, 100, encoded.Width)
	assert.Equal(t, 50, encoded.Height)

	decoded, err := jpeg.Decode(bytes.NewReader(encoded.Data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 100, 50), decoded.Bounds())
}

func TestImageProcessorKeepsSmallImages(t *testing.T) {
	encoded, err := NewImageProcessor(1280, 72, zap.NewNop()).Encode(pngBytes(t, 64, 48))
	require.NoError(t, err)

	assert.Equal(t, 64, encoded.Width)
	assert.Equal(t, 48, encoded.Height)
}

func TestImageProcessorRejectsGarbage(t *testing.T) {
	_, err := NewImageProcessor(0, 0, zap.NewNop()).Encode([]byte("not an image"))
	assert.Error(t, err)
}

func TestImageProcessorEncodeFilesSkipsFailures(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "a.png")
	bad := filepath.Join(dir, "b.png")
	other := filepath.Join(dir, "c.png")
	require.NoError(t, os.WriteFile(good, pngBytes(t, 20, 10), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte("broken"), 0o644))
	require.NoError(t, os.WriteFile(other, pngBytes(t, 10, 20), 0o644))

	images := NewImageProcessor(1280, 72, zap.NewNop()).EncodeFiles([]string{good, bad, other, filepath.Join(dir, "missing.png")}, 2)

	require.Len(t, images, 2)
	assert.Equal(t, 20, images[0].Width)
	assert.Equal(t, 10, images[1].Width)
}

func TestEncodedImageDataURL(t *testing.T) {
	img := EncodedImage{MIMEType: "image/jpeg", Data: []byte("hi")}
	assert.Equal(t, "data:image/jpeg;base64,aGk=", img.DataURL())
}
