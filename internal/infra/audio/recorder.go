//go:build portaudio
// +build portaudio

package audio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"

	"voiceops/internal/domain"
)

// Recorder captures fixed-duration clips from the default input device.
// PortAudio is initialized at most once per process; a failed init is
// remembered and reported as capture-unavailable on every call.
type Recorder struct {
	sampleRate int
	logger     *slog.Logger

	initOnce    sync.Once
	initErr     error
	initialized bool

	mu sync.Mutex // one capture at a time; the default stream is not shareable
}

func NewRecorder(sampleRate int, logger *slog.Logger) *Recorder {
	return &Recorder{
		sampleRate: sampleRate,
		logger:     logger,
	}
}

func (r *Recorder) Name() string {
	return "microphone"
}

func (r *Recorder) init() error {
	r.initOnce.Do(func() {
		r.initErr = portaudio.Initialize()
		if r.initErr != nil {
			r.logger.Warn("portaudio init failed, capture disabled", "error", r.initErr)
			return
		}
		r.initialized = true
	})
	return r.initErr
}

// Capture records exactly duration of mono 16-bit PCM. It drains the
// full window even if the room is silent; trailing silence is the
// transcription chain's problem, not ours.
func (r *Recorder) Capture(ctx context.Context, duration time.Duration) (domain.AudioClip, error) {
	if err := r.init(); err != nil {
		return domain.AudioClip{}, domain.ErrCaptureUnavailable
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	const framesPerBuffer = 1024

	buf := make([]int16, framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(r.sampleRate), framesPerBuffer, buf)
	if err != nil {
		r.logger.Warn("opening input stream", "error", err)
		return domain.AudioClip{}, domain.ErrCaptureUnavailable
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return domain.AudioClip{}, fmt.Errorf("starting stream: %w", err)
	}
	defer stream.Stop()

	want := int(float64(r.sampleRate) * duration.Seconds())
	samples := make([]int16, 0, want)

	for len(samples) < want {
		select {
		case <-ctx.Done():
			return domain.AudioClip{}, ctx.Err()
		default:
		}

		if err := stream.Read(); err != nil {
			return domain.AudioClip{}, fmt.Errorf("reading from stream: %w", err)
		}
		samples = append(samples, buf...)
	}

	clip := domain.AudioClip{Samples: samples[:want], SampleRate: r.sampleRate}
	r.logger.Info("captured audio", "seconds", clip.DurationSeconds())
	return clip, nil
}

// Close terminates PortAudio only if it was successfully initialized;
// closing a recorder that never captured is a no-op.
func (r *Recorder) Close() error {
	if !r.initialized {
		return nil
	}
	return portaudio.Terminate()
}
