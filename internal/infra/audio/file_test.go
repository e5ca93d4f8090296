package audio_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"voiceops/internal/domain"
	"voiceops/internal/infra/audio"
)

func dropWAV(t *testing.T, dir, name string) {
	t.Helper()
	clip := domain.AudioClip{Samples: []int16{0, 1000, -1000, 42}, SampleRate: 16000}
	data, err := audio.EncodeWAV(clip)
	if err != nil {
		t.Fatalf("EncodeWAV error: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		t.Fatalf("writing wav: %v", err)
	}
}

func TestFileSource_PicksUpDroppedFileOnce(t *testing.T) {
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	src := audio.NewFileSource(dir, logger)

	dropWAV(t, dir, "command.wav")

	clip, err := src.Capture(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("Capture error: %v", err)
	}
	if clip.Empty() {
		t.Fatal("expected a decoded clip")
	}

	if _, err := os.Stat(filepath.Join(dir, "command.wav.processed")); err != nil {
		t.Errorf("expected the file to be renamed after ingestion: %v", err)
	}

	_, err = src.Capture(context.Background(), 300*time.Millisecond)
	if !errors.Is(err, domain.ErrCaptureUnavailable) {
		t.Errorf("a consumed file must not be picked up again, got %v", err)
	}
}

func TestFileSource_IgnoresNonWAVEntries(t *testing.T) {
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	src := audio.NewFileSource(dir, logger)

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatalf("writing file: %v", err)
	}

	_, err := src.Capture(context.Background(), 300*time.Millisecond)
	if !errors.Is(err, domain.ErrCaptureUnavailable) {
		t.Errorf("expected capture-unavailable with no wav present, got %v", err)
	}
}
