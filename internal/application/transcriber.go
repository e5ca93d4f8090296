package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"voiceops/internal/domain"
)

// Chain walks its engines in order and returns the first non-empty
// transcript. Engine failures are logged and swallowed so one flaky
// backend never takes speech input down with it.
type Chain struct {
	engines []Transcriber
	logger  *slog.Logger
}

func NewChain(logger *slog.Logger, engines ...Transcriber) *Chain {
	return &Chain{engines: engines, logger: logger}
}

func (c *Chain) Transcribe(ctx context.Context, clip domain.AudioClip, language string) domain.Transcript {
	if clip.Empty() {
		return domain.Transcript{}
	}
	for _, engine := range c.engines {
		text, err := engine.Transcribe(ctx, clip, language)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				c.logger.Warn("transcription engine timed out", "engine", engine.Name())
			} else {
				c.logger.Warn("transcription engine failed", "engine", engine.Name(), "error", err)
			}
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			c.logger.Debug("no speech recognized", "engine", engine.Name())
			continue
		}
		c.logger.Info("transcribed", "engine", engine.Name(), "text", text)
		return domain.Transcript{Text: text, Engine: engine.Name()}
	}
	return domain.Transcript{}
}
