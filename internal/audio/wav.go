// Package audio writes rendered stereo buffers to WAV files.
package audio

import (
	"fmt"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/newrealmco/image2sound/internal/synth"
)

// bitDepth of the emitted PCM stream.
const bitDepth = 16

// WriteWAV encodes the buffer as a 16-bit stereo PCM WAV file at the
// buffer's sample rate. The buffer is expected to be peak-normalized
// already; samples outside [-1,1] are hard-clipped rather than wrapped.
func WriteWAV(path string, buf *synth.StereoBuffer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, buf.SampleRate, bitDepth, 2, 1)

	const scale = 1 << (bitDepth - 1)
	data := make([]int, 0, len(buf.Left)*2)
	for i := range buf.Left {
		data = append(data, pcmSample(buf.Left[i], scale), pcmSample(buf.Right[i], scale))
	}

	ib := &gaudio.IntBuffer{
		Format: &gaudio.Format{
			NumChannels: 2,
			SampleRate:  buf.SampleRate,
		},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(ib); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return nil
}

// pcmSample converts a float sample to a clipped signed integer.
func pcmSample(s float64, scale int) int {
	if s > 1 {
		s = 1
	}
	if s < -1 {
		s = -1
	}
	v := int(s * float64(scale-1))
	return v
}
