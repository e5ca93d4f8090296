//go:build whisper
// +build whisper

// Package whispercpp runs a local whisper.cpp model as the last stage
// of the transcription chain. The model is expensive to load, so it is
// loaded lazily, once per process, with a smaller tier as fallback when
// the primary model file is missing or broken.
package whispercpp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"voiceops/internal/domain"
)

type Engine struct {
	modelPath    string
	fallbackPath string
	logger       *slog.Logger

	loadOnce sync.Once
	model    whisper.Model
	loadErr  error

	mu sync.Mutex // whisper contexts are cheap but the model is not reentrant-safe here
}

func NewEngine(modelPath, fallbackPath string, logger *slog.Logger) *Engine {
	return &Engine{
		modelPath:    modelPath,
		fallbackPath: fallbackPath,
		logger:       logger,
	}
}

func (e *Engine) Name() string {
	return "whisper"
}

// load resolves the model exactly once. A primary-tier failure falls
// back to the smaller tier before giving up.
func (e *Engine) load() (whisper.Model, error) {
	e.loadOnce.Do(func() {
		model, err := whisper.New(e.modelPath)
		if err == nil {
			e.logger.Info("whisper model loaded", "path", e.modelPath)
			e.model = model
			return
		}
		e.logger.Warn("primary whisper model failed to load, trying fallback",
			"path", e.modelPath, "error", err)

		if e.fallbackPath == "" {
			e.loadErr = fmt.Errorf("loading whisper model: %w", err)
			return
		}

		model, ferr := whisper.New(e.fallbackPath)
		if ferr != nil {
			e.loadErr = fmt.Errorf("loading whisper models (%v): %w", err, ferr)
			return
		}
		e.logger.Info("fallback whisper model loaded", "path", e.fallbackPath)
		e.model = model
	})
	return e.model, e.loadErr
}

func (e *Engine) Transcribe(ctx context.Context, clip domain.AudioClip, _ string) (string, error) {
	model, err := e.load()
	if err != nil {
		return "", err
	}

	pcm := toFloat32Mono16k(clip)
	if len(pcm) == 0 {
		return "", errors.New("no audio samples")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	wctx, err := model.NewContext()
	if err != nil {
		return "", fmt.Errorf("new whisper context: %w", err)
	}

	if err := wctx.SetLanguage("auto"); err != nil {
		return "", fmt.Errorf("set language: %w", err)
	}

	if err := wctx.Process(pcm, nil, nil, nil); err != nil {
		return "", fmt.Errorf("process: %w", err)
	}

	var sb strings.Builder
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		seg, err := wctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("next segment: %w", err)
		}
		if sb.Len() > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(strings.TrimSpace(seg.Text))
	}

	return strings.TrimSpace(sb.String()), nil
}

func (e *Engine) Close() error {
	if e.model == nil {
		return nil
	}
	return e.model.Close()
}

// toFloat32Mono16k converts the clip to the float32 [-1, 1] mono 16 kHz
// samples whisper.cpp expects, resampling linearly when needed.
func toFloat32Mono16k(clip domain.AudioClip) []float32 {
	out := make([]float32, len(clip.Samples))
	for i, s := range clip.Samples {
		out[i] = float32(s) / 32768.0
	}

	if clip.SampleRate == whisper.SampleRate || clip.SampleRate == 0 {
		return out
	}

	ratio := float64(whisper.SampleRate) / float64(clip.SampleRate)
	n := int(float64(len(out)) * ratio)
	resampled := make([]float32, n)
	for i := 0; i < n; i++ {
		src := float64(i) / ratio
		i0 := int(src)
		if i0 >= len(out)-1 {
			resampled[i] = out[len(out)-1]
			continue
		}
		a := float32(src - float64(i0))
		resampled[i] = out[i0]*(1-a) + out[i0+1]*a
	}
	return resampled
}
