package audio

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"

	"github.com/newrealmco/image2sound/internal/synth"
)

func TestWriteWAV(t *testing.T) {
	buf := &synth.StereoBuffer{
		Left:       make([]float64, 4410),
		Right:      make([]float64, 4410),
		SampleRate: 44100,
	}
	for i := range buf.Left {
		buf.Left[i] = 0.5 * math.Sin(2*math.Pi*440*float64(i)/44100)
		buf.Right[i] = -buf.Left[i]
	}

	path := filepath.Join(t.TempDir(), "out.wav")
	if err := WriteWAV(path, buf); err != nil {
		t.Fatalf("WriteWAV failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	dec.ReadInfo()
	if !dec.IsValidFile() {
		t.Fatal("output is not a valid WAV file")
	}
	if dec.NumChans != 2 {
		t.Errorf("channels = %d, want 2", dec.NumChans)
	}
	if dec.SampleRate != 44100 {
		t.Errorf("sample rate = %d, want 44100", dec.SampleRate)
	}
	if dec.BitDepth != 16 {
		t.Errorf("bit depth = %d, want 16", dec.BitDepth)
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatal(err)
	}
	if len(pcm.Data) != 4410*2 {
		t.Errorf("decoded %d samples, want %d", len(pcm.Data), 4410*2)
	}
}

func TestWriteWAVClipsOutOfRange(t *testing.T) {
	buf := &synth.StereoBuffer{
		Left:       []float64{2.0, -2.0},
		Right:      []float64{0, 0},
		SampleRate: 44100,
	}
	path := filepath.Join(t.TempDir(), "clip.wav")
	if err := WriteWAV(path, buf); err != nil {
		t.Fatalf("WriteWAV should clip, not fail: %v", err)
	}
}
