package services

import (
	"context"
	"encoding/base64"
)

// EncodedImage is a preprocessed image ready to send to a vision model.
type EncodedImage struct {
	MIMEType string
	Data     []byte
	Width    int
	Height   int
}

// DataURL renders the image as a base64 data URL.
func (i EncodedImage) DataURL() string {
	return "data:" + i.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// VisionRequest is a single multimodal model call.
type VisionRequest struct {
	System      string
	Prompt      string
	Images      []EncodedImage
	Temperature float32
	MaxTokens   int32
}

// VisionProvider sends screenshots plus a prompt to a vision-language model
// and returns the raw text it produced.
type VisionProvider interface {
	Name() string
	Analyze(ctx context.Context, req VisionRequest) (string, error)
}
