// Package sine is the built-in synthesis backend used for development and
// tests. It renders a deterministic waveform derived from the input text so
// the pipeline produces real, playable WAV artifacts without a model runtime.
// Production deployments swap in a Loader backed by an actual TTS model
// server.
package sine

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/fnv"
	"math"

	"github.com/synthbed/tts-api/internal/engine"
)

const (
	sampleRate     = 22050
	secondsPerRune = 0.06
	minDuration    = 0.5
	maxDuration    = 10.0
)

type Synthesizer struct{}

func New() *Synthesizer {
	return &Synthesizer{}
}

func (s *Synthesizer) Load(ctx context.Context, language string, modelName string) (engine.Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &voice{language: language, modelName: modelName}, nil
}

type voice struct {
	language  string
	modelName string
}

func (v *voice) Generate(ctx context.Context, text string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	duration := secondsPerRune * float64(len([]rune(text)))
	if duration < minDuration {
		duration = minDuration
	}
	if duration > maxDuration {
		duration = maxDuration
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(v.language + ":" + text))
	freq := 160.0 + float64(h.Sum32()%220)

	n := int(duration * sampleRate)
	samples := make([]int16, n)
	for i := range samples {
		t := float64(i) / sampleRate
		// fade out over the tail to avoid a click
		envelope := 1.0
		if remaining := duration - t; remaining < 0.05 {
			envelope = remaining / 0.05
		}
		samples[i] = int16(0.3 * envelope * math.Sin(2*math.Pi*freq*t) * math.MaxInt16)
	}

	return encodeWAV(samples)
}

func (v *voice) Close() {}

// encodeWAV wraps 16-bit mono PCM samples in a RIFF/WAVE container.
func encodeWAV(samples []int16) ([]byte, error) {
	dataLen := len(samples) * 2

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*2))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(2))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(16))

	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(dataLen))
	if err := binary.Write(&buf, binary.LittleEndian, samples); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
