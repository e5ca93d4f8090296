// Package speech is the speech output dispatcher: Piper synthesis with
// local playback as the primary engine, an espeak-ng subprocess as the
// fallback. Speech is best-effort; both engines failing only produces
// log lines.
package speech

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	beepwav "github.com/faiface/beep/wav"
)

type Speaker struct {
	piper      *PiperClient
	espeakPath string
	logger     *slog.Logger

	initOnce sync.Once
	initErr  error
	rate     beep.SampleRate

	mu sync.Mutex // one playback at a time
}

func NewSpeaker(piper *PiperClient, espeakPath string, logger *slog.Logger) *Speaker {
	return &Speaker{
		piper:      piper,
		espeakPath: espeakPath,
		logger:     logger,
	}
}

// Speak voices the text, preferring Piper and falling back to espeak.
// Errors are returned for logging only; callers must not treat them as
// pipeline failures.
func (s *Speaker) Speak(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}

	if err := s.speakPiper(ctx, text); err == nil {
		return nil
	} else {
		s.logger.Warn("piper synthesis failed, falling back to espeak", "error", err)
	}

	if err := s.speakEspeak(ctx, text); err != nil {
		s.logger.Warn("espeak fallback failed", "error", err)
		return fmt.Errorf("all speech engines failed")
	}
	return nil
}

func (s *Speaker) speakPiper(ctx context.Context, text string) error {
	if s.piper == nil {
		return fmt.Errorf("piper not configured")
	}

	wavData, err := s.piper.Synthesize(ctx, text)
	if err != nil {
		return err
	}

	return s.play(wavData)
}

func (s *Speaker) play(wavData []byte) error {
	streamer, format, err := beepwav.Decode(bytes.NewReader(wavData))
	if err != nil {
		return fmt.Errorf("decoding synthesized wav: %w", err)
	}
	defer streamer.Close()

	s.initOnce.Do(func() {
		s.rate = format.SampleRate
		s.initErr = speaker.Init(s.rate, s.rate.N(time.Second/10))
	})
	if s.initErr != nil {
		return fmt.Errorf("initializing speaker: %w", s.initErr)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var stream beep.Streamer = streamer
	if format.SampleRate != s.rate {
		stream = beep.Resample(4, format.SampleRate, s.rate, streamer)
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(stream, beep.Callback(func() {
		close(done)
	})))
	<-done

	return nil
}

func (s *Speaker) speakEspeak(ctx context.Context, text string) error {
	if s.espeakPath == "" {
		return fmt.Errorf("espeak not configured")
	}

	cmd := exec.CommandContext(ctx, s.espeakPath, text)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("running espeak: %w (%s)", err, bytes.TrimSpace(out))
	}
	return nil
}
