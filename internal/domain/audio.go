package domain

import "errors"

// ErrCaptureUnavailable signals that no audio input device is usable.
// The pipeline treats it like an empty transcript, not a hard failure.
var ErrCaptureUnavailable = errors.New("audio capture unavailable")

// AudioClip is a fixed-duration mono PCM recording.
type AudioClip struct {
	Samples    []int16
	SampleRate int
}

func (c AudioClip) Empty() bool {
	return len(c.Samples) == 0
}

// DurationSeconds reports the clip length, for logging.
func (c AudioClip) DurationSeconds() float64 {
	if c.SampleRate == 0 {
		return 0
	}
	return float64(len(c.Samples)) / float64(c.SampleRate)
}

// Transcript is the text derived from a clip, with the engine that
// produced it. An empty Text is a normal "no command detected" outcome.
type Transcript struct {
	Text   string
	Engine string
}

func (t Transcript) Empty() bool {
	return t.Text == ""
}
