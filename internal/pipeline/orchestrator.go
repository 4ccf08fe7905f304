package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/newrealmco/image2sound/internal/audio"
	"github.com/newrealmco/image2sound/internal/cache"
	"github.com/newrealmco/image2sound/internal/compose"
	"github.com/newrealmco/image2sound/internal/features"
	"github.com/newrealmco/image2sound/internal/mapping"
	"github.com/newrealmco/image2sound/internal/music"
	"github.com/newrealmco/image2sound/internal/progress"
	"github.com/newrealmco/image2sound/internal/synth"
)

// Config holds pipeline configuration
type Config struct {
	InputPath  string
	OutputPath string
	Style      string  // neutral, ambient, cinematic, rock
	Duration   float64 // target seconds
	SampleRate int
	Seed       int64  // overrides the image-derived seed when non-zero
	UseCache   bool   // skip the pipeline when an identical render is cached
	CacheDir   string // empty selects the default .cache/renders
}

// DefaultConfig returns default pipeline configuration
func DefaultConfig() Config {
	return Config{
		Style:      string(mapping.StyleNeutral),
		Duration:   20,
		SampleRate: 44100,
		UseCache:   true,
	}
}

// Result contains all pipeline outputs
type Result struct {
	OutputPath string
	Root       string
	Mode       string
	Tempo      float64
	Intensity  float64
	Seed       int64
	Notes      int
	Voices     int
	Sections   []compose.Section
	Chords     []string
	FromCache  bool
	CacheKey   string
	AudioSecs  float64
}

// Orchestrator coordinates the full image-to-audio pipeline
type Orchestrator struct {
	progress *progress.Reporter
}

// NewOrchestrator creates a new pipeline orchestrator
func NewOrchestrator(out io.Writer, verbose bool) *Orchestrator {
	return &Orchestrator{
		progress: progress.NewReporter(out, verbose),
	}
}

// Execute runs the full pipeline: validate, extract features, map to
// music parameters, compose, render, encode.
func (o *Orchestrator) Execute(cfg Config) (*Result, error) {
	// Stage 1: validate
	o.progress.StartStage(progress.StageValidate)
	style, err := mapping.ParseStyle(cfg.Style)
	if err != nil {
		return nil, err
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = "out.wav"
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 44100
	}
	if _, err := os.Stat(cfg.InputPath); err != nil {
		return nil, fmt.Errorf("input image: %w", err)
	}
	o.progress.StageComplete("Input: %s (%s style, %.1fs)", filepath.Base(cfg.InputPath), style, cfg.Duration)

	// Cache check before doing any work.
	var renderCache *cache.RenderCache
	var cacheKey string
	if cfg.UseCache {
		renderCache, err = cache.New(cfg.CacheDir)
		if err != nil {
			o.progress.Warning("Cache init failed: %v", err)
		} else {
			cacheKey, err = cache.KeyFor(cfg.InputPath, string(style), cfg.Duration, cfg.SampleRate, cfg.Seed)
			if err != nil {
				o.progress.Warning("Cache key failed: %v", err)
				cacheKey = ""
			}
			if cacheKey != "" {
				if cached, ok := renderCache.Get(cacheKey); ok {
					if err := copyFile(cached.WavPath, cfg.OutputPath); err == nil {
						o.progress.StageComplete("Using cached render (key: %s)", cacheKey[:12])
						return &Result{
							OutputPath: cfg.OutputPath,
							Root:       cached.Metadata.Root,
							Mode:       cached.Metadata.Mode,
							Tempo:      cached.Metadata.Tempo,
							Seed:       cached.Metadata.Seed,
							Notes:      cached.Metadata.Notes,
							Voices:     cached.Metadata.Voices,
							Chords:     cached.Metadata.Chords,
							FromCache:  true,
							CacheKey:   cacheKey,
						}, nil
					}
				}
			}
		}
	}

	// Stage 2: feature extraction
	o.progress.StartStage(progress.StageExtract)
	feats, err := features.Extract(cfg.InputPath)
	if err != nil {
		return nil, err
	}
	o.progress.StageComplete("Brightness %.2f, contrast %.2f, edges %.2f, %d colors",
		feats.Brightness, feats.Contrast, feats.EdgeDensity, len(feats.Palette))

	// Stage 3: mapping
	o.progress.StartStage(progress.StageMap)
	params, err := mapping.Map(feats, style, cfg.Duration)
	if err != nil {
		return nil, err
	}
	if cfg.Seed != 0 {
		params.Seed = cfg.Seed
	}
	o.progress.StageComplete("%s %s, %.0f BPM, %d voices", params.Root, params.Mode, params.Tempo, len(params.Voices))

	// Stage 4: composition
	o.progress.StartStage(progress.StageCompose)
	composer, err := compose.NewComposer(params)
	if err != nil {
		return nil, err
	}
	notes := composer.Compose()
	o.progress.StageComplete("%d sections, %d notes", len(composer.Sections()), len(notes))

	// Stage 5: render and encode
	o.progress.StartStage(progress.StageRender)
	renderer := synth.NewRenderer(cfg.SampleRate, params.Tempo, composer.RNG())
	for i, v := range params.Voices {
		renderer.SetTrackBrightness(music.VoiceTrack(i, string(v.Instrument)), v.Brightness)
	}
	buf := renderer.Render(notes)
	if err := audio.WriteWAV(cfg.OutputPath, buf); err != nil {
		return nil, err
	}
	o.progress.StageComplete("%.1fs of audio at %d Hz", buf.Duration(), cfg.SampleRate)

	if renderCache != nil && cacheKey != "" {
		_, err := renderCache.Put(cacheKey, cfg.OutputPath, cache.Metadata{
			Root:       params.Root,
			Mode:       params.Mode,
			Tempo:      params.Tempo,
			Style:      string(style),
			Duration:   cfg.Duration,
			SampleRate: cfg.SampleRate,
			Seed:       params.Seed,
			Notes:      len(notes),
			Voices:     len(params.Voices),
			Chords:     params.Chords,
		})
		if err != nil {
			o.progress.Warning("Cache store failed: %v", err)
		}
	}

	return &Result{
		OutputPath: cfg.OutputPath,
		Root:       params.Root,
		Mode:       params.Mode,
		Tempo:      params.Tempo,
		Intensity:  mapping.Intensity(feats),
		Seed:       params.Seed,
		Notes:      len(notes),
		Voices:     len(params.Voices),
		Sections:   composer.Sections(),
		Chords:     params.Chords,
		CacheKey:   cacheKey,
		AudioSecs:  buf.Duration(),
	}, nil
}

// ComposeOnly runs the pipeline up to the note list, for callers that
// want to inspect the composition without rendering audio.
func (o *Orchestrator) ComposeOnly(cfg Config) (compose.Params, []music.Note, error) {
	style, err := mapping.ParseStyle(cfg.Style)
	if err != nil {
		return compose.Params{}, nil, err
	}
	feats, err := features.Extract(cfg.InputPath)
	if err != nil {
		return compose.Params{}, nil, err
	}
	params, err := mapping.Map(feats, style, cfg.Duration)
	if err != nil {
		return compose.Params{}, nil, err
	}
	if cfg.Seed != 0 {
		params.Seed = cfg.Seed
	}
	composer, err := compose.NewComposer(params)
	if err != nil {
		return compose.Params{}, nil, err
	}
	return params, composer.Compose(), nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}
