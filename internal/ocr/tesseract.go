package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os/exec"
	"strconv"
	"strings"
)

// Tesseract runs the tesseract CLI with the image on stdin.
type Tesseract struct {
	Path      string
	Languages string
	PSM       int
}

func (t *Tesseract) Name() string {
	return "tesseract-psm" + strconv.Itoa(t.PSM)
}

func (t *Tesseract) args() []string {
	args := []string{"stdin", "stdout"}
	if t.Languages != "" {
		args = append(args, "-l", t.Languages)
	}
	args = append(args, "--oem", "3")
	if t.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(t.PSM))
	}
	return args
}

func (t *Tesseract) ExtractText(ctx context.Context, img image.Image) (string, error) {
	data, err := encodePNG(img)
	if err != nil {
		return "", err
	}

	path := t.Path
	if path == "" {
		path = "tesseract"
	}
	cmd := exec.CommandContext(ctx, path, t.args()...)
	cmd.Stdin = bytes.NewReader(data)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("tesseract: %w: %s", err, msg)
		}
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return strings.TrimSpace(stdout.String()), nil
}
