package speech_test

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"voiceops/internal/infra/audio"
	"voiceops/internal/infra/speech"
)

// fakeWyomingServer answers one synthesize request with a fixed PCM
// payload split across two chunks.
func fakeWyomingServer(t *testing.T, pcm []byte, rate int) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		r := bufio.NewReader(conn)
		header, err := r.ReadString('\n')
		if err != nil {
			return
		}
		var jsonLen, payloadLen int
		fmt.Sscanf(strings.TrimSpace(header), "%d %d", &jsonLen, &payloadLen)

		buf := make([]byte, jsonLen+1+payloadLen)
		if _, err := readFull(r, buf); err != nil {
			return
		}

		var evt struct {
			Type string `json:"type"`
		}
		json.Unmarshal(buf[:jsonLen], &evt)
		if evt.Type != "synthesize" {
			return
		}

		writeEvent := func(evtType string, data map[string]any, payload []byte) {
			j, _ := json.Marshal(map[string]any{"type": evtType, "data": data})
			fmt.Fprintf(conn, "%d %d\n", len(j), len(payload))
			conn.Write(j)
			conn.Write([]byte("\n"))
			conn.Write(payload)
		}

		writeEvent("audio-start", map[string]any{"rate": rate, "channels": 1, "width": 2}, nil)
		half := len(pcm) / 2
		writeEvent("audio-chunk", nil, pcm[:half])
		writeEvent("audio-chunk", nil, pcm[half:])
		writeEvent("audio-stop", nil, nil)
	}()

	return ln.Addr().String()
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func TestPiperClient_Synthesize(t *testing.T) {
	samples := []int16{100, -100, 2000, -2000, 300, -300}
	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(s))
	}

	addr := fakeWyomingServer(t, pcm, 22050)
	client := speech.NewPiperClient(addr, "en_US-lessac-medium")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wavData, err := client.Synthesize(ctx, "hello")
	if err != nil {
		t.Fatalf("Synthesize error: %v", err)
	}

	clip, err := audio.DecodeWAV(wavData)
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if clip.SampleRate != 22050 {
		t.Errorf("sample rate: got %d, want 22050", clip.SampleRate)
	}
	if len(clip.Samples) != len(samples) {
		t.Fatalf("samples: got %d, want %d", len(clip.Samples), len(samples))
	}
	for i := range samples {
		if clip.Samples[i] != samples[i] {
			t.Errorf("sample %d: got %d, want %d", i, clip.Samples[i], samples[i])
		}
	}
}

func TestPiperClient_Synthesize_EmptyText(t *testing.T) {
	client := speech.NewPiperClient("localhost:10200", "")

	if _, err := client.Synthesize(context.Background(), ""); err == nil {
		t.Error("expected error for empty text")
	}
}
