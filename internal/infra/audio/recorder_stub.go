//go:build !portaudio
// +build !portaudio

package audio

import (
	"context"
	"log/slog"
	"time"

	"voiceops/internal/domain"
)

// Recorder stub when portaudio is not available. Capture reports the
// device as unavailable, which the pipeline treats as an empty
// transcript rather than an error.
type Recorder struct {
	logger *slog.Logger
}

func NewRecorder(sampleRate int, logger *slog.Logger) *Recorder {
	return &Recorder{logger: logger}
}

func (r *Recorder) Name() string {
	return "microphone"
}

func (r *Recorder) Capture(_ context.Context, _ time.Duration) (domain.AudioClip, error) {
	r.logger.Warn("microphone capture not available: rebuild with -tags portaudio")
	return domain.AudioClip{}, domain.ErrCaptureUnavailable
}

func (r *Recorder) Close() error {
	return nil
}
