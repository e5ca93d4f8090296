//go:build !whisper
// +build !whisper

package whispercpp

import (
	"context"
	"fmt"
	"log/slog"

	"voiceops/internal/domain"
)

// Engine stub when whisper.cpp is not compiled in. The chain logs the
// failure and falls through, so a build without the tag simply has one
// less transcription stage.
type Engine struct {
	logger *slog.Logger
}

func NewEngine(modelPath, fallbackPath string, logger *slog.Logger) *Engine {
	return &Engine{logger: logger}
}

func (e *Engine) Name() string {
	return "whisper"
}

func (e *Engine) Transcribe(_ context.Context, _ domain.AudioClip, _ string) (string, error) {
	return "", fmt.Errorf("local whisper not available: rebuild with -tags whisper")
}

func (e *Engine) Close() error {
	return nil
}
