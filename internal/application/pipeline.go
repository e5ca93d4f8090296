package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"voiceops/internal/domain"
)

const (
	// UnlockReply is spoken when the passphrase override fires.
	UnlockReply = "Welcome! Turning on all devices for you."

	speakTimeout = 30 * time.Second
)

// Pipeline wires the whole voice flow together: capture, transcription,
// intent mapping, execution and the async spoken reply. Every stage
// degrades to a safe default; the only hard stop is an empty transcript.
type Pipeline struct {
	capture    Capturer
	chain      *Chain
	mapper     *Mapper
	executor   *Executor
	speaker    Speaker
	notifier   Notifier
	passphrase string
	language   string
	speak      bool
	logger     *slog.Logger
}

type PipelineConfig struct {
	Passphrase string
	Language   string
	Speak      bool
}

func NewPipeline(capture Capturer, chain *Chain, mapper *Mapper, executor *Executor, speaker Speaker, notifier Notifier, cfg PipelineConfig, logger *slog.Logger) *Pipeline {
	if speaker == nil {
		speaker = NoopSpeaker{}
	}
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &Pipeline{
		capture:    capture,
		chain:      chain,
		mapper:     mapper,
		executor:   executor,
		speaker:    speaker,
		notifier:   notifier,
		passphrase: strings.ToLower(strings.TrimSpace(cfg.Passphrase)),
		language:   cfg.Language,
		speak:      cfg.Speak,
		logger:     logger,
	}
}

// ProcessVoice records for the given duration, transcribes and hands the
// text to ProcessText. A missing capture device or an empty transcript
// ends the run before the language backend is ever contacted.
func (p *Pipeline) ProcessVoice(ctx context.Context, duration time.Duration, speak bool) domain.Result {
	clip, err := p.capture.Capture(ctx, duration)
	if err != nil {
		p.logger.Warn("audio capture unavailable", "source", p.capture.Name(), "error", err)
	}
	transcript := p.chain.Transcribe(ctx, clip, p.language)
	if transcript.Empty() {
		return domain.Result{
			Success:         false,
			Error:           "No speech detected",
			Actions:         []domain.Action{},
			FirebaseSuccess: true,
			Timestamp:       time.Now(),
		}
	}
	return p.ProcessText(ctx, transcript.Text, speak)
}

// ProcessText runs the mapper and executor over an already-transcribed
// command and schedules the spoken reply in the background. The speak
// flag is the caller's request; a configured always-speak mode also
// voices the reply.
func (p *Pipeline) ProcessText(ctx context.Context, command string, speak bool) domain.Result {
	command = strings.TrimSpace(command)
	if command == "" {
		return domain.Result{
			Success:         false,
			Error:           "Command cannot be empty",
			Actions:         []domain.Action{},
			FirebaseSuccess: true,
			Timestamp:       time.Now(),
		}
	}

	var intent domain.Intent
	if p.unlocks(command) {
		p.logger.Info("passphrase override", "command", command)
		intent = domain.Intent{
			Kind:     domain.IntentPasswordAccess,
			Response: UnlockReply,
			Actions: []domain.Action{
				{Device: "lights", Command: "on"},
				{Device: "fan", Command: "on"},
				{Device: "mood", Command: "on"},
			},
		}
	} else {
		intent = p.mapper.Map(ctx, command)
	}

	actions, delivered := p.executor.Execute(ctx, intent.Actions)

	if intent.Kind == domain.IntentEmergency {
		if err := p.notifier.Notify(ctx, "Emergency voice command: "+command); err != nil {
			p.logger.Warn("emergency notification failed", "error", err)
		}
	}

	if (speak || p.speak) && intent.Response != "" {
		p.speakAsync(intent.Response)
	}

	return domain.Result{
		Success:         true,
		Command:         command,
		Intent:          intent.Kind,
		Response:        intent.Response,
		Actions:         actions,
		FirebaseSuccess: delivered,
		Timestamp:       time.Now(),
	}
}

// Run drives the pipeline in a continuous listen loop: record a
// window, process it, repeat until the context is cancelled. Replies
// are always spoken in this mode. Runs with no transcript back off
// briefly so an unavailable microphone does not spin the loop.
func (p *Pipeline) Run(ctx context.Context, window time.Duration) error {
	p.logger.Info("continuous listening started", "window", window)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		result := p.ProcessVoice(ctx, window, true)
		if !result.Success {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}
		p.logger.Info("voice command processed", "command", result.Command, "intent", result.Intent)
	}
}

func (p *Pipeline) unlocks(command string) bool {
	return p.passphrase != "" && strings.Contains(strings.ToLower(command), p.passphrase)
}

// speakAsync voices the reply without holding up the caller. The
// request context is deliberately not reused: the reply should finish
// even if the HTTP request that triggered it has already returned.
func (p *Pipeline) speakAsync(text string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), speakTimeout)
		defer cancel()
		if err := p.speaker.Speak(ctx, text); err != nil {
			p.logger.Warn("speech output failed", "error", err)
		}
	}()
}
