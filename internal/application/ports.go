package application

import (
	"context"
	"time"

	"voiceops/internal/domain"
)

// Capturer acquires a fixed-duration clip from an input device.
type Capturer interface {
	Name() string
	Capture(ctx context.Context, duration time.Duration) (domain.AudioClip, error)
	Close() error
}

// Transcriber is one engine in the transcription chain.
type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, clip domain.AudioClip, language string) (string, error)
}

// Generator is the generative-language backend: prompt in, free text
// out. The JSON contract is enforced entirely on our side.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// CommandSink receives device commands and audit entries. It never
// returns data the pipeline depends on beyond the acknowledgment.
type CommandSink interface {
	Send(ctx context.Context, action domain.Action) error
	AppendLog(ctx context.Context, action domain.Action) error
}

// Speaker voices a reply. Best-effort only.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

type Notifier interface {
	Notify(ctx context.Context, message string) error
}

type NoopSpeaker struct{}

func (NoopSpeaker) Speak(_ context.Context, _ string) error { return nil }

type NoopNotifier struct{}

func (NoopNotifier) Notify(_ context.Context, _ string) error { return nil }
