package llm

import (
	"context"
)

// VisionClient sends one image and an instruction to a multimodal model and
// returns its text answer.
type VisionClient interface {
	Transcribe(ctx context.Context, prompt string, image []byte, mimeType string) (string, error)
}
