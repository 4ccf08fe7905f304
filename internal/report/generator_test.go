package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/newrealmco/image2sound/internal/mapping"
)

func TestCreateDemoImages(t *testing.T) {
	dir := t.TempDir()

	paths, err := CreateDemoImages(dir)
	if err != nil {
		t.Fatalf("CreateDemoImages failed: %v", err)
	}
	if len(paths) != 5 {
		t.Errorf("expected 5 demo images, got %d", len(paths))
	}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			t.Errorf("missing demo image %s: %v", p, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("demo image %s is empty", p)
		}
	}
}

func TestGeneratorRun(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping batch render in short mode")
	}

	imgDir := t.TempDir()
	outDir := t.TempDir()

	paths, err := CreateDemoImages(imgDir)
	if err != nil {
		t.Fatalf("CreateDemoImages failed: %v", err)
	}

	// One image across all styles keeps the test fast.
	gen := NewGenerator(outDir, 4.0)
	entries, err := gen.Run(paths[:1])
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(entries) != len(mapping.Styles) {
		t.Fatalf("expected %d entries, got %d", len(mapping.Styles), len(entries))
	}

	for _, e := range entries {
		if e.Err != "" {
			t.Errorf("render %s/%s failed: %s", e.Image, e.Style, e.Err)
			continue
		}
		if _, err := os.Stat(filepath.Join(outDir, e.WavPath)); err != nil {
			t.Errorf("missing wav %s: %v", e.WavPath, err)
		}
		if e.Notes == 0 {
			t.Errorf("render %s/%s produced no notes", e.Image, e.Style)
		}
	}

	f, err := os.Open(filepath.Join(outDir, "metadata.csv"))
	if err != nil {
		t.Fatalf("metadata.csv missing: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading metadata.csv: %v", err)
	}
	if len(records) != len(entries)+1 {
		t.Errorf("expected %d csv rows, got %d", len(entries)+1, len(records))
	}

	page, err := os.ReadFile(filepath.Join(outDir, "index.html"))
	if err != nil {
		t.Fatalf("index.html missing: %v", err)
	}
	if !strings.Contains(string(page), "<audio") {
		t.Error("index.html has no audio players")
	}
}

func TestSafeFilename(t *testing.T) {
	got := safeFilename("my pic_C#'.wav")
	if strings.ContainsAny(got, " #'") {
		t.Errorf("unsafe characters remain in %q", got)
	}
}
