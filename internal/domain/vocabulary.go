package domain

import (
	"sort"
	"strings"
)

// DefaultBuzzerDuration is applied (in milliseconds) when a timed
// command arrives without a usable value.
const DefaultBuzzerDuration = 3000

// Vocabulary is the canonical device table: which device names the sink
// accepts, which spoken aliases map onto them, and which devices take a
// timed trigger command instead of a plain on/off.
type Vocabulary struct {
	devices map[string]bool
	aliases map[string]string
	timed   map[string]bool
}

func NewVocabulary(devices []string, aliases map[string]string, timed []string) *Vocabulary {
	v := &Vocabulary{
		devices: make(map[string]bool, len(devices)),
		aliases: make(map[string]string, len(aliases)),
		timed:   make(map[string]bool, len(timed)),
	}
	for _, d := range devices {
		v.devices[strings.ToLower(d)] = true
	}
	for alias, canonical := range aliases {
		v.aliases[strings.ToLower(alias)] = strings.ToLower(canonical)
	}
	for _, d := range timed {
		v.timed[strings.ToLower(d)] = true
	}
	return v
}

// DefaultVocabulary covers the devices the firmware ships with. The
// singular "light" is the alias the language backend most often emits
// despite prompting, so it is always rewritten.
func DefaultVocabulary() *Vocabulary {
	return NewVocabulary(
		[]string{"lights", "fan", "party", "buzzer", "mood", "servo"},
		map[string]string{"light": "lights"},
		[]string{"buzzer"},
	)
}

// Normalize rewrites a device alias to its canonical name. It is
// idempotent: canonical names map to themselves.
func (v *Vocabulary) Normalize(device string) string {
	d := strings.ToLower(strings.TrimSpace(device))
	if canonical, ok := v.aliases[d]; ok {
		return canonical
	}
	return d
}

// Known reports whether the (already normalized) device is accepted by
// the sink.
func (v *Vocabulary) Known(device string) bool {
	return v.devices[device]
}

// Timed reports whether the device takes a duration value.
func (v *Vocabulary) Timed(device string) bool {
	return v.timed[device]
}

// Devices returns the canonical device names, for prompt construction.
func (v *Vocabulary) Devices() []string {
	out := make([]string, 0, len(v.devices))
	for d := range v.devices {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
