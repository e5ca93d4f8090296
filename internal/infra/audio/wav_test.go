package audio_test

import (
	"testing"

	"voiceops/internal/domain"
	"voiceops/internal/infra/audio"
)

func TestEncodeDecodeWAV(t *testing.T) {
	clip := domain.AudioClip{
		Samples:    []int16{0, 1000, -1000, 32767, -32768, 42},
		SampleRate: 16000,
	}

	data, err := audio.EncodeWAV(clip)
	if err != nil {
		t.Fatalf("EncodeWAV error: %v", err)
	}

	if len(data) < 44 {
		t.Fatalf("wav too short: %d bytes", len(data))
	}
	if string(data[:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Error("missing RIFF/WAVE markers")
	}

	decoded, err := audio.DecodeWAV(data)
	if err != nil {
		t.Fatalf("DecodeWAV error: %v", err)
	}

	if decoded.SampleRate != clip.SampleRate {
		t.Errorf("sample rate: got %d, want %d", decoded.SampleRate, clip.SampleRate)
	}
	if len(decoded.Samples) != len(clip.Samples) {
		t.Fatalf("samples: got %d, want %d", len(decoded.Samples), len(clip.Samples))
	}
	for i := range clip.Samples {
		if decoded.Samples[i] != clip.Samples[i] {
			t.Errorf("sample %d: got %d, want %d", i, decoded.Samples[i], clip.Samples[i])
		}
	}
}

func TestEncodeWAV_EmptyClip(t *testing.T) {
	if _, err := audio.EncodeWAV(domain.AudioClip{}); err == nil {
		t.Error("expected error for empty clip")
	}
}

func TestDecodeWAV_Garbage(t *testing.T) {
	if _, err := audio.DecodeWAV([]byte("definitely not a wav file")); err == nil {
		t.Error("expected error for garbage input")
	}
}
