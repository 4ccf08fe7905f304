// Package cache stores finished renders keyed by image content and
// render parameters, so repeated runs over the same image skip the
// whole pipeline.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// cacheVersion invalidates old entries when the render pipeline's
// output format changes.
const cacheVersion = "2"

// RenderCache manages cached render results
type RenderCache struct {
	dir string
}

// CachedRender represents one cached result
type CachedRender struct {
	WavPath  string
	Metadata Metadata
	CacheKey string
	CachedAt time.Time
}

// Metadata captures the musical parameters of a cached render
type Metadata struct {
	Root       string   `json:"root"`
	Mode       string   `json:"mode"`
	Tempo      float64  `json:"tempo"`
	Style      string   `json:"style"`
	Duration   float64  `json:"duration"`
	SampleRate int      `json:"sample_rate"`
	Seed       int64    `json:"seed"`
	Notes      int      `json:"notes"`
	Voices     int      `json:"voices"`
	Chords     []string `json:"chords,omitempty"`
	CreatedAt  string   `json:"created_at"`
	Version    string   `json:"version"`
}

// New creates a render cache rooted at dir (created if missing). An
// empty dir selects ".cache/renders" under the working directory.
func New(dir string) (*RenderCache, error) {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working dir: %w", err)
		}
		dir = filepath.Join(cwd, ".cache", "renders")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &RenderCache{dir: dir}, nil
}

// KeyFor generates a cache key from the image file's content hash plus
// the render parameters that affect output.
func KeyFor(imagePath, style string, duration float64, sampleRate int, seed int64) (string, error) {
	file, err := os.Open(imagePath)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", fmt.Errorf("hash image: %w", err)
	}
	fmt.Fprintf(hash, "|%s|%.3f|%d|%d|%s", style, duration, sampleRate, seed, cacheVersion)

	return "img_" + hex.EncodeToString(hash.Sum(nil))[:16], nil
}

// Get retrieves a cached render for the given key
func (c *RenderCache) Get(key string) (*CachedRender, bool) {
	sub := filepath.Join(c.dir, key)
	info, err := os.Stat(sub)
	if err != nil || !info.IsDir() {
		return nil, false
	}

	wavPath := filepath.Join(sub, "render.wav")
	if !fileExists(wavPath) {
		return nil, false
	}

	metaData, err := os.ReadFile(filepath.Join(sub, "metadata.json"))
	if err != nil {
		return nil, false
	}
	var meta Metadata
	if err := json.Unmarshal(metaData, &meta); err != nil {
		return nil, false
	}
	if meta.Version != cacheVersion {
		return nil, false
	}

	return &CachedRender{
		WavPath:  wavPath,
		Metadata: meta,
		CacheKey: key,
		CachedAt: info.ModTime(),
	}, true
}

// Put copies a rendered WAV into the cache along with its metadata
func (c *RenderCache) Put(key, wavPath string, meta Metadata) (*CachedRender, error) {
	sub := filepath.Join(c.dir, key)
	if err := os.MkdirAll(sub, 0755); err != nil {
		return nil, fmt.Errorf("create cache entry: %w", err)
	}

	dst := filepath.Join(sub, "render.wav")
	if err := copyFile(wavPath, dst); err != nil {
		return nil, fmt.Errorf("cache wav: %w", err)
	}

	meta.Version = cacheVersion
	meta.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	metaData, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(sub, "metadata.json"), metaData, 0644); err != nil {
		return nil, fmt.Errorf("write metadata: %w", err)
	}

	return &CachedRender{
		WavPath:  dst,
		Metadata: meta,
		CacheKey: key,
		CachedAt: time.Now(),
	}, nil
}

// Clear removes all cached renders
func (c *RenderCache) Clear() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(c.dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
