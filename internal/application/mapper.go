package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"voiceops/internal/domain"
	"voiceops/internal/jsonx"
)

// FrozenReply is returned when the chat backend fails on a casual
// conversation turn.
const FrozenReply = "I'm having a bit of a brain freeze. Try again in a moment!"

// Mapper turns free-form command text into a structured Intent by way
// of the generative backend. Anything it cannot validate collapses to
// the canonical unknown intent, never to an error.
type Mapper struct {
	llm    Generator
	vocab  *domain.Vocabulary
	logger *slog.Logger
}

func NewMapper(llm Generator, vocab *domain.Vocabulary, logger *slog.Logger) *Mapper {
	return &Mapper{llm: llm, vocab: vocab, logger: logger}
}

func (m *Mapper) Map(ctx context.Context, command string) domain.Intent {
	raw, err := m.llm.Generate(ctx, m.systemPrompt(), fmt.Sprintf("Command: %q\nRespond only with valid JSON and nothing else.", command))
	if err != nil {
		m.logger.Warn("intent mapping failed", "error", err)
		return domain.UnknownIntent()
	}

	obj, err := jsonx.ExtractObject(raw)
	if err != nil {
		m.logger.Warn("no JSON object in model output", "error", err, "raw", raw)
		return domain.UnknownIntent()
	}

	var parsed struct {
		Intent   string          `json:"intent"`
		Response string          `json:"response"`
		Actions  []domain.Action `json:"actions"`
	}
	if err := json.Unmarshal(obj, &parsed); err != nil {
		m.logger.Warn("model output does not match intent schema", "error", err)
		return domain.UnknownIntent()
	}

	kind := domain.IntentKind(strings.TrimSpace(parsed.Intent))
	if !kind.Valid() {
		m.logger.Warn("model returned unrecognized intent", "intent", parsed.Intent)
		kind = domain.IntentUnknown
	}

	intent := domain.Intent{
		Kind:     kind,
		Response: strings.TrimSpace(parsed.Response),
		Actions:  parsed.Actions,
	}

	// Conversational intents never carry device actions.
	switch intent.Kind {
	case domain.IntentGeneralChat, domain.IntentUnknown:
		intent.Actions = nil
	}

	if intent.Kind == domain.IntentGeneralChat {
		intent.Response = m.chat(ctx, command)
	}
	if intent.Response == "" {
		intent.Response = domain.FallbackReply
	}
	return intent
}

// chat asks for a second, friendlier reply once the turn is known to
// be casual conversation rather than a device command.
func (m *Mapper) chat(ctx context.Context, command string) string {
	const persona = "You're a cheerful, friendly home assistant. Be expressive, human-like, and playful, but keep it short and clear. Do not use any emojis, asterisks, markdown characters or underscores in your response."
	reply, err := m.llm.Generate(ctx, persona, fmt.Sprintf("User said: %q\nRespond in a way that makes them smile.", command))
	if err != nil {
		m.logger.Warn("chat reply failed", "error", err)
		return FrozenReply
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return FrozenReply
	}
	return reply
}

func (m *Mapper) systemPrompt() string {
	devices := strings.Join(m.vocab.Devices(), `" | "`)
	var b strings.Builder
	b.WriteString("You are a smart home assistant. Interpret the user's voice command and convert it into a JSON response in this format:\n\n")
	b.WriteString("{\n")
	b.WriteString(`  "intent": "device_control" | "sensor_query" | "emergency" | "password_access" | "general_chat" | "unknown",` + "\n")
	b.WriteString(`  "response": "natural reply to user",` + "\n")
	b.WriteString("  \"actions\": [\n")
	b.WriteString("    {\n")
	b.WriteString(fmt.Sprintf("      \"device\": \"%s\",\n", devices))
	b.WriteString(`      "command": "on" | "off" | "trigger" | "0" | "90" | "180",` + "\n")
	b.WriteString(`      "value": true | false | duration in ms (for buzzer) | angle (for servo)` + "\n")
	b.WriteString("    }\n")
	b.WriteString("  ]\n")
	b.WriteString("}\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("- Use only the device names listed above.\n")
	b.WriteString("- For device control, use \"on\"/\"off\" commands (not \"turn_on\"/\"turn_off\").\n")
	b.WriteString("- For servo, use angle values: \"0\", \"90\", \"180\".\n")
	b.WriteString("- For emergency/alert, trigger the buzzer with a duration in milliseconds.\n")
	b.WriteString("- For casual conversation, use general_chat intent with no actions.\n")
	b.WriteString("- If the command makes no sense, use unknown intent with no actions.\n")
	return b.String()
}
