package application

import (
	"context"
	"log/slog"

	"voiceops/internal/domain"
)

// Executor dispatches the actions of one intent to the command sink.
// Every action is attempted regardless of earlier failures; the
// returned flag is true only when all of them went through.
type Executor struct {
	sink   CommandSink
	vocab  *domain.Vocabulary
	logger *slog.Logger
}

func NewExecutor(sink CommandSink, vocab *domain.Vocabulary, logger *slog.Logger) *Executor {
	return &Executor{sink: sink, vocab: vocab, logger: logger}
}

func (e *Executor) Execute(ctx context.Context, actions []domain.Action) ([]domain.Action, bool) {
	ok := true
	out := make([]domain.Action, 0, len(actions))
	for _, action := range actions {
		action.Device = e.vocab.Normalize(action.Device)
		if !e.vocab.Known(action.Device) {
			e.logger.Warn("skipping unknown device", "device", action.Device, "command", action.Command)
			ok = false
			continue
		}
		if e.vocab.Timed(action.Device) && !truthy(action.Value) {
			action.Value = domain.DefaultBuzzerDuration
		}
		out = append(out, action)

		if err := e.sink.Send(ctx, action); err != nil {
			e.logger.Error("command delivery failed", "device", action.Device, "command", action.Command, "error", err)
			ok = false
		}
		if err := e.sink.AppendLog(ctx, action); err != nil {
			e.logger.Warn("audit log append failed", "device", action.Device, "error", err)
		}
	}
	return out, ok
}

// truthy reports whether a decoded JSON duration value should be kept
// as-is. Zero, false, empty and null all fall back to the default;
// anything else the model sent is passed through unchanged, including
// numbers encoded as strings.
func truthy(v any) bool {
	switch n := v.(type) {
	case nil:
		return false
	case bool:
		return n
	case int:
		return n != 0
	case int64:
		return n != 0
	case float64:
		return n != 0
	case string:
		return n != ""
	default:
		return true
	}
}
