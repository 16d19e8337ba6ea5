// Package snapshot captures preview frames as PNG files.
package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/useflyyer/studio/internal/preview"
)

// Capturer renders one frame to PNG bytes.
type Capturer interface {
	Capture(ctx context.Context, frame preview.Frame) ([]byte, error)
}

// CapturerFunc adapts ordinary functions to Capturer.
type CapturerFunc func(context.Context, preview.Frame) ([]byte, error)

// Capture calls f.
func (f CapturerFunc) Capture(ctx context.Context, frame preview.Frame) ([]byte, error) {
	return f(ctx, frame)
}

// Run captures frames in order and writes {template}-{mode}.png files into dir.
// It stops at the first failure and returns the paths written so far.
func Run(ctx context.Context, c Capturer, frames []preview.Frame, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("snapshot: create %s: %w", dir, err)
	}
	written := make([]string, 0, len(frames))
	for _, frame := range frames {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		data, err := c.Capture(ctx, frame)
		if err != nil {
			return written, fmt.Errorf("snapshot %s: %w", frame.Mode, err)
		}
		target := filepath.Join(dir, FileName(frame))
		if err := atomic.WriteFile(target, bytes.NewReader(data)); err != nil {
			return written, fmt.Errorf("snapshot: write %s: %w", target, err)
		}
		written = append(written, target)
	}
	return written, nil
}

// FileName derives {template}-{mode}.png from the last segment of the frame path.
func FileName(frame preview.Frame) string {
	name := "index"
	if frame.URL != nil {
		if base := strings.TrimSuffix(path.Base(frame.URL.Path), ".html"); base != "" && base != "/" && base != "." {
			name = base
		}
	}
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '-'
	}, name)
	return name + "-" + string(frame.Mode) + ".png"
}
