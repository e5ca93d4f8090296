package application_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"voiceops/internal/application"
	"voiceops/internal/domain"
)

type stubCapturer struct {
	clip domain.AudioClip
	err  error
}

func (s *stubCapturer) Name() string { return "stub" }
func (s *stubCapturer) Close() error { return nil }

func (s *stubCapturer) Capture(_ context.Context, _ time.Duration) (domain.AudioClip, error) {
	return s.clip, s.err
}

type recordingSpeaker struct {
	mu     sync.Mutex
	spoken []string
	done   chan struct{}
}

func (r *recordingSpeaker) Speak(_ context.Context, text string) error {
	r.mu.Lock()
	r.spoken = append(r.spoken, text)
	first := len(r.spoken) == 1
	r.mu.Unlock()
	if r.done != nil && first {
		close(r.done)
	}
	return nil
}

func (r *recordingSpeaker) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.spoken)
}

type recordingNotifier struct {
	messages []string
}

func (r *recordingNotifier) Notify(_ context.Context, message string) error {
	r.messages = append(r.messages, message)
	return nil
}

type pipelineFixture struct {
	pipeline *application.Pipeline
	llm      *scriptedLLM
	sink     *recordingSink
	speaker  *recordingSpeaker
	notifier *recordingNotifier
	capture  *stubCapturer
}

func newPipelineFixture(llm *scriptedLLM, engines ...application.Transcriber) *pipelineFixture {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	vocab := domain.DefaultVocabulary()
	sink := &recordingSink{}
	speaker := &recordingSpeaker{done: make(chan struct{})}
	notifier := &recordingNotifier{}
	capture := &stubCapturer{clip: testClip()}

	pipeline := application.NewPipeline(
		capture,
		application.NewChain(logger, engines...),
		application.NewMapper(llm, vocab, logger),
		application.NewExecutor(sink, vocab, logger),
		speaker,
		notifier,
		application.PipelineConfig{Passphrase: "open", Language: "en-US", Speak: true},
		logger,
	)
	return &pipelineFixture{pipeline: pipeline, llm: llm, sink: sink, speaker: speaker, notifier: notifier, capture: capture}
}

func TestPipeline_TurnOnTheLights(t *testing.T) {
	llm := &scriptedLLM{replies: []string{
		`{"intent": "device_control", "response": "Turning on the lights!", "actions": [{"device": "light", "command": "on"}]}`,
	}}
	f := newPipelineFixture(llm)

	result := f.pipeline.ProcessText(context.Background(), "turn on the lights", false)

	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.Intent != domain.IntentDeviceControl {
		t.Errorf("expected device_control, got %s", result.Intent)
	}
	if !result.FirebaseSuccess {
		t.Error("expected firebase_success=true")
	}
	if len(f.sink.sent) != 1 || f.sink.sent[0].Device != "lights" || f.sink.sent[0].Command != "on" {
		t.Errorf("expected lights on dispatched, got %+v", f.sink.sent)
	}
	if len(f.sink.logged) != 1 {
		t.Errorf("expected 1 audit entry, got %d", len(f.sink.logged))
	}

	select {
	case <-f.speaker.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for spoken reply")
	}
	if f.speaker.spoken[0] != "Turning on the lights!" {
		t.Errorf("unexpected spoken reply %q", f.speaker.spoken[0])
	}
}

func TestPipeline_UnmappedCommandIsVacuouslySuccessful(t *testing.T) {
	llm := &scriptedLLM{replies: []string{"nonsense output with no json"}}
	f := newPipelineFixture(llm)

	result := f.pipeline.ProcessText(context.Background(), "set the buzzer off for help", false)

	if !result.Success {
		t.Error("unmapped commands still complete the pipeline")
	}
	if result.Intent != domain.IntentUnknown {
		t.Errorf("expected unknown intent, got %s", result.Intent)
	}
	if result.Response != domain.FallbackReply {
		t.Errorf("expected fallback reply, got %q", result.Response)
	}
	if len(result.Actions) != 0 {
		t.Errorf("expected no actions, got %+v", result.Actions)
	}
	if !result.FirebaseSuccess {
		t.Error("no actions attempted means firebase_success=true")
	}
	if len(f.sink.sent) != 0 {
		t.Errorf("nothing should reach the sink, got %+v", f.sink.sent)
	}
}

func TestPipeline_PartialDeliveryFailure(t *testing.T) {
	llm := &scriptedLLM{replies: []string{
		`{"intent": "device_control", "response": "On it!", "actions": [{"device": "lights", "command": "on"}, {"device": "fan", "command": "on"}]}`,
	}}
	f := newPipelineFixture(llm)
	f.sink.failOn = map[string]bool{"fan": true}

	result := f.pipeline.ProcessText(context.Background(), "turn everything on", false)

	if !result.Success {
		t.Error("pipeline completes even when delivery partially fails")
	}
	if result.FirebaseSuccess {
		t.Error("expected firebase_success=false after a failed dispatch")
	}
	if len(f.sink.sent) != 2 {
		t.Errorf("both actions must be attempted, got %d", len(f.sink.sent))
	}
}

func TestPipeline_PassphraseBypassesBackend(t *testing.T) {
	llm := &scriptedLLM{}
	f := newPipelineFixture(llm)

	result := f.pipeline.ProcessText(context.Background(), "Open sesame", false)

	if result.Intent != domain.IntentPasswordAccess {
		t.Fatalf("expected password_access, got %s", result.Intent)
	}
	if result.Response != application.UnlockReply {
		t.Errorf("unexpected reply %q", result.Response)
	}
	if len(llm.prompts) != 0 {
		t.Error("passphrase override must not call the language backend")
	}
	if len(f.sink.sent) != 3 {
		t.Fatalf("expected 3 unlock actions, got %+v", f.sink.sent)
	}
	want := map[string]bool{"lights": true, "fan": true, "mood": true}
	for _, a := range f.sink.sent {
		if !want[a.Device] || a.Command != "on" {
			t.Errorf("unexpected unlock action %+v", a)
		}
	}
}

func TestPipeline_EmergencyNotifies(t *testing.T) {
	llm := &scriptedLLM{replies: []string{
		`{"intent": "emergency", "response": "Sounding the alarm!", "actions": [{"device": "buzzer", "command": "trigger"}]}`,
	}}
	f := newPipelineFixture(llm)

	result := f.pipeline.ProcessText(context.Background(), "help there is a fire", false)

	if result.Intent != domain.IntentEmergency {
		t.Fatalf("expected emergency, got %s", result.Intent)
	}
	if len(f.notifier.messages) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(f.notifier.messages))
	}
	if f.sink.sent[0].Value != domain.DefaultBuzzerDuration {
		t.Errorf("buzzer should default its duration, got %v", f.sink.sent[0].Value)
	}
}

func TestPipeline_NoSpeechNeverReachesBackend(t *testing.T) {
	llm := &scriptedLLM{}
	f := newPipelineFixture(llm, &stubEngine{name: "a"}, &stubEngine{name: "b"})
	f.capture.err = domain.ErrCaptureUnavailable
	f.capture.clip = domain.AudioClip{}

	result := f.pipeline.ProcessVoice(context.Background(), 5*time.Second, false)

	if result.Success {
		t.Error("expected success=false without a transcript")
	}
	if result.Error != "No speech detected" {
		t.Errorf("unexpected error %q", result.Error)
	}
	if !result.FirebaseSuccess {
		t.Error("expected firebase_success=true")
	}
	if len(llm.prompts) != 0 {
		t.Error("language backend must not be called without a transcript")
	}
}

func TestPipeline_VoiceFlowsIntoTextProcessing(t *testing.T) {
	llm := &scriptedLLM{replies: []string{
		`{"intent": "device_control", "response": "Fan is on.", "actions": [{"device": "fan", "command": "on"}]}`,
	}}
	f := newPipelineFixture(llm, &stubEngine{name: "stt", text: "start the fan"})

	result := f.pipeline.ProcessVoice(context.Background(), 3*time.Second, false)

	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.Command != "start the fan" {
		t.Errorf("expected transcript as command, got %q", result.Command)
	}
	if len(f.sink.sent) != 1 || f.sink.sent[0].Device != "fan" {
		t.Errorf("expected fan dispatch, got %+v", f.sink.sent)
	}
}

func TestPipeline_ContinuousListeningUntilCancelled(t *testing.T) {
	llm := &scriptedLLM{}
	f := newPipelineFixture(llm, &stubEngine{name: "stt", text: "open the door"})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- f.pipeline.Run(ctx, 10*time.Millisecond)
	}()

	deadline := time.After(2 * time.Second)
	for f.speaker.count() < 2 {
		select {
		case <-deadline:
			cancel()
			t.Fatalf("expected at least 2 spoken replies, got %d", f.speaker.count())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	err := <-errCh
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if len(f.sink.sent) < 6 {
		t.Errorf("expected repeated unlock dispatches, got %d", len(f.sink.sent))
	}
	if len(llm.prompts) != 0 {
		t.Error("passphrase commands must not reach the backend")
	}
}

func TestPipeline_EmptyTextRejected(t *testing.T) {
	llm := &scriptedLLM{}
	f := newPipelineFixture(llm)

	result := f.pipeline.ProcessText(context.Background(), "   ", false)

	if result.Success {
		t.Error("expected success=false for empty command")
	}
	if result.Error != "Command cannot be empty" {
		t.Errorf("unexpected error %q", result.Error)
	}
	if len(llm.prompts) != 0 {
		t.Error("empty command must not reach the backend")
	}
}
