package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"voiceops/internal/domain"
)

// EncodeWAV wraps a clip in a 16-bit PCM WAV container for the network
// recognizers.
func EncodeWAV(clip domain.AudioClip) ([]byte, error) {
	if clip.Empty() {
		return nil, errors.New("empty clip")
	}

	buf := newWriteSeeker()
	enc := wav.NewEncoder(buf, clip.SampleRate, 16, 1, 1)

	data := make([]int, len(clip.Samples))
	for i, s := range clip.Samples {
		data[i] = int(s)
	}

	pcm := &gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: 1, SampleRate: clip.SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}

	if err := enc.Write(pcm); err != nil {
		return nil, fmt.Errorf("writing pcm: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("closing encoder: %w", err)
	}

	return buf.Bytes(), nil
}

// DecodeWAV reads a WAV file into a mono clip, downmixing interleaved
// channels when needed. The clip keeps the file's sample rate.
func DecodeWAV(data []byte) (domain.AudioClip, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return domain.AudioClip{}, errors.New("invalid wav file")
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return domain.AudioClip{}, fmt.Errorf("decoding pcm: %w", err)
	}
	if pcm == nil || len(pcm.Data) == 0 {
		return domain.AudioClip{}, errors.New("empty wav file")
	}

	channels := 1
	rate := 16000
	if pcm.Format != nil {
		if pcm.Format.NumChannels > 0 {
			channels = pcm.Format.NumChannels
		}
		if pcm.Format.SampleRate > 0 {
			rate = pcm.Format.SampleRate
		}
	}

	frames := len(pcm.Data) / channels
	samples := make([]int16, frames)
	for i := 0; i < frames; i++ {
		sum := 0
		for c := 0; c < channels; c++ {
			sum += pcm.Data[i*channels+c]
		}
		samples[i] = int16(sum / channels)
	}

	return domain.AudioClip{Samples: samples, SampleRate: rate}, nil
}

// writeSeeker is an in-memory io.WriteSeeker; the wav encoder needs to
// seek back to patch the RIFF header sizes on Close.
type writeSeeker struct {
	buf []byte
	pos int
}

func newWriteSeeker() *writeSeeker {
	return &writeSeeker{}
}

func (ws *writeSeeker) Write(p []byte) (int, error) {
	if need := ws.pos + len(p); need > len(ws.buf) {
		grown := make([]byte, need)
		copy(grown, ws.buf)
		ws.buf = grown
	}
	copy(ws.buf[ws.pos:], p)
	ws.pos += len(p)
	return len(p), nil
}

func (ws *writeSeeker) Seek(offset int64, whence int) (int64, error) {
	var next int
	switch whence {
	case io.SeekStart:
		next = int(offset)
	case io.SeekCurrent:
		next = ws.pos + int(offset)
	case io.SeekEnd:
		next = len(ws.buf) + int(offset)
	default:
		return 0, errors.New("invalid whence")
	}
	if next < 0 {
		return 0, errors.New("negative position")
	}
	ws.pos = next
	return int64(next), nil
}

func (ws *writeSeeker) Bytes() []byte {
	return ws.buf
}
