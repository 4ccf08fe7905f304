package cache

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRenderCache(t *testing.T) {
	dir := t.TempDir()
	c, err := New(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatal(err)
	}

	img := writeTemp(t, dir, "img.png", []byte("fake image bytes"))
	wavFile := writeTemp(t, dir, "render.wav", []byte("RIFF fake"))

	key, err := KeyFor(img, "neutral", 20, 44100, 7)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("MissBeforePut", func(t *testing.T) {
		if _, ok := c.Get(key); ok {
			t.Error("expected cache miss")
		}
	})

	t.Run("PutThenGet", func(t *testing.T) {
		meta := Metadata{Root: "C", Mode: "ionian", Tempo: 120, Style: "neutral", Duration: 20, SampleRate: 44100, Seed: 7, Notes: 42}
		if _, err := c.Put(key, wavFile, meta); err != nil {
			t.Fatal(err)
		}

		got, ok := c.Get(key)
		if !ok {
			t.Fatal("expected cache hit")
		}
		if got.Metadata.Root != "C" || got.Metadata.Notes != 42 {
			t.Errorf("metadata round trip mismatch: %+v", got.Metadata)
		}
		data, err := os.ReadFile(got.WavPath)
		if err != nil || string(data) != "RIFF fake" {
			t.Error("cached wav content mismatch")
		}
	})

	t.Run("KeyChangesWithParams", func(t *testing.T) {
		other, err := KeyFor(img, "rock", 20, 44100, 7)
		if err != nil {
			t.Fatal(err)
		}
		if other == key {
			t.Error("different style should produce a different key")
		}
		longer, _ := KeyFor(img, "neutral", 30, 44100, 7)
		if longer == key {
			t.Error("different duration should produce a different key")
		}
	})

	t.Run("Clear", func(t *testing.T) {
		if err := c.Clear(); err != nil {
			t.Fatal(err)
		}
		if _, ok := c.Get(key); ok {
			t.Error("expected miss after Clear")
		}
	})
}
