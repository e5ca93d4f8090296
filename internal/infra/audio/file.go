package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"voiceops/internal/domain"
)

// FileSource is the file-based alternate capture path: each Capture
// call picks up the next unprocessed WAV dropped into the directory.
type FileSource struct {
	dir    string
	logger *slog.Logger

	mu        sync.Mutex
	processed map[string]bool
}

func NewFileSource(dir string, logger *slog.Logger) *FileSource {
	return &FileSource{
		dir:       dir,
		logger:    logger,
		processed: make(map[string]bool),
	}
}

func (f *FileSource) Name() string {
	return "file"
}

// Capture waits up to duration for a new WAV file to appear. The
// duration here bounds the wait, not the clip length.
func (f *FileSource) Capture(ctx context.Context, duration time.Duration) (domain.AudioClip, error) {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return domain.AudioClip{}, fmt.Errorf("creating audio dir: %w", err)
	}

	deadline := time.Now().Add(duration)
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		clip, err := f.checkForNewFile()
		if err != nil {
			return domain.AudioClip{}, err
		}
		if !clip.Empty() {
			return clip, nil
		}
		if time.Now().After(deadline) {
			return domain.AudioClip{}, domain.ErrCaptureUnavailable
		}

		select {
		case <-ctx.Done():
			return domain.AudioClip{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (f *FileSource) Close() error {
	return nil
}

func (f *FileSource) checkForNewFile() (domain.AudioClip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return domain.AudioClip{}, fmt.Errorf("reading dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".wav" {
			continue
		}

		path := filepath.Join(f.dir, entry.Name())
		if f.processed[path] {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return domain.AudioClip{}, fmt.Errorf("reading file %s: %w", path, err)
		}

		f.processed[path] = true
		if err := os.Rename(path, path+".processed"); err != nil {
			f.logger.Warn("marking file as processed", "file", path, "error", err)
		}

		clip, err := DecodeWAV(data)
		if err != nil {
			// Skip broken files, keep watching.
			continue
		}
		return clip, nil
	}

	return domain.AudioClip{}, nil
}
