package domain_test

import (
	"testing"

	"voiceops/internal/domain"
)

func TestVocabulary_NormalizeAliases(t *testing.T) {
	vocab := domain.DefaultVocabulary()

	cases := map[string]string{
		"light":   "lights",
		"Light":   "lights",
		"lights":  "lights",
		" fan ":   "fan",
		"BUZZER":  "buzzer",
		"toaster": "toaster",
	}

	for in, want := range cases {
		if got := vocab.Normalize(in); got != want {
			t.Errorf("Normalize(%q): got %q, want %q", in, got, want)
		}
	}
}

func TestVocabulary_NormalizeIdempotent(t *testing.T) {
	vocab := domain.DefaultVocabulary()

	for _, d := range []string{"light", "lights", "fan", "party", "buzzer", "mood", "servo", "unknown-device"} {
		once := vocab.Normalize(d)
		twice := vocab.Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q then %q", d, once, twice)
		}
	}
}

func TestVocabulary_Known(t *testing.T) {
	vocab := domain.DefaultVocabulary()

	if !vocab.Known("lights") {
		t.Error("lights should be known")
	}
	if vocab.Known("light") {
		t.Error("raw alias should not be known before normalization")
	}
	if vocab.Known("toaster") {
		t.Error("toaster should not be known")
	}
}

func TestVocabulary_Timed(t *testing.T) {
	vocab := domain.DefaultVocabulary()

	if !vocab.Timed("buzzer") {
		t.Error("buzzer should be timed")
	}
	if vocab.Timed("fan") {
		t.Error("fan should not be timed")
	}
}

func TestUnknownIntent(t *testing.T) {
	intent := domain.UnknownIntent()

	if intent.Kind != domain.IntentUnknown {
		t.Errorf("kind: got %s, want unknown", intent.Kind)
	}
	if len(intent.Actions) != 0 {
		t.Errorf("actions: got %d, want 0", len(intent.Actions))
	}
	if intent.Response != domain.FallbackReply {
		t.Errorf("response: got %q, want fallback reply", intent.Response)
	}
}
