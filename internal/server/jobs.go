package server

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/newrealmco/image2sound/internal/audio"
	"github.com/newrealmco/image2sound/internal/compose"
	"github.com/newrealmco/image2sound/internal/features"
	"github.com/newrealmco/image2sound/internal/mapping"
	"github.com/newrealmco/image2sound/internal/music"
	"github.com/newrealmco/image2sound/internal/synth"
	"github.com/newrealmco/image2sound/internal/workspace"
)

// Job status constants
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusComplete   JobStatus = "complete"
	StatusFailed     JobStatus = "failed"
)

// JobResult holds the outcome of a render job
type JobResult struct {
	Root      string
	Mode      string
	Tempo     float64
	Intensity float64
	Voices    int
	Notes     int
	Sections  int
	Chords    []string
	Seed      int64
	AudioSecs float64
}

// Job represents one image render job
type Job struct {
	ID        string
	Status    JobStatus
	Stage     string
	Filename  string
	InputPath string
	Style     string
	Duration  float64
	Work      *workspace.Workspace
	Result    *JobResult
	Error     string
	Updates   chan string
	CreatedAt time.Time
}

// JobManager manages render jobs
type JobManager struct {
	jobs       map[string]*Job
	mu         sync.RWMutex
	sampleRate int
}

// NewJobManager creates a new job manager
func NewJobManager(sampleRate int) *JobManager {
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	return &JobManager{
		jobs:       make(map[string]*Job),
		sampleRate: sampleRate,
	}
}

// Create creates a new job with its own workspace
func (m *JobManager) Create() (*Job, error) {
	ws, err := workspace.Create()
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id := fmt.Sprintf("%d", time.Now().UnixNano())
	job := &Job{
		ID:        id,
		Status:    StatusPending,
		Stage:     "Uploading...",
		Work:      ws,
		Updates:   make(chan string, 10),
		CreatedAt: time.Now(),
	}

	m.jobs[id] = job
	return job, nil
}

// Get retrieves a job by ID
func (m *JobManager) Get(id string) *Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.jobs[id]
}

// Process runs the sonification pipeline for a job
func (m *JobManager) Process(job *Job) {
	defer close(job.Updates)
	defer func() {
		// Cleanup after 10 minutes
		time.AfterFunc(10*time.Minute, func() {
			job.Work.Cleanup()
			m.mu.Lock()
			delete(m.jobs, job.ID)
			m.mu.Unlock()
		})
	}()

	job.Status = StatusProcessing

	fail := func(stage string, err error) {
		job.Status = StatusFailed
		job.Error = fmt.Sprintf("%s: %v", stage, err)
		job.Updates <- job.Error
	}

	// Stage 1: Validate
	job.Stage = "Validating input..."
	job.Updates <- job.Stage

	style, err := mapping.ParseStyle(job.Style)
	if err != nil {
		fail("Invalid style", err)
		return
	}
	if job.Duration <= 0 {
		job.Duration = 20
	}

	// Stage 2: Feature extraction
	job.Stage = "Analyzing image..."
	job.Updates <- job.Stage

	feats, err := features.Extract(job.InputPath)
	if err != nil {
		fail("Image analysis failed", err)
		return
	}
	job.Updates <- fmt.Sprintf("Brightness %.2f, %d palette colors", feats.Brightness, len(feats.Palette))

	// Stage 3: Parameter mapping
	job.Stage = "Mapping to music..."
	job.Updates <- job.Stage

	params, err := mapping.Map(feats, style, job.Duration)
	if err != nil {
		fail("Mapping failed", err)
		return
	}
	job.Updates <- fmt.Sprintf("%s %s at %.0f BPM", params.Root, params.Mode, params.Tempo)

	// Stage 4: Composition
	job.Stage = "Composing..."
	job.Updates <- job.Stage

	composer, err := compose.NewComposer(params)
	if err != nil {
		fail("Composition failed", err)
		return
	}
	notes := composer.Compose()
	job.Updates <- fmt.Sprintf("%d notes in %d sections", len(notes), len(composer.Sections()))

	// Stage 5: Render
	job.Stage = "Rendering audio..."
	job.Updates <- job.Stage

	renderer := synth.NewRenderer(m.sampleRate, params.Tempo, composer.RNG())
	for i, v := range params.Voices {
		renderer.SetTrackBrightness(music.VoiceTrack(i, string(v.Instrument)), v.Brightness)
	}
	buf := renderer.Render(notes)

	if err := audio.WriteWAV(job.Work.OutputWAV(), buf); err != nil {
		fail("WAV encode failed", err)
		return
	}

	job.Result = &JobResult{
		Root:      params.Root,
		Mode:      params.Mode,
		Tempo:     params.Tempo,
		Intensity: mapping.Intensity(feats),
		Voices:    len(params.Voices),
		Notes:     len(notes),
		Sections:  len(composer.Sections()),
		Chords:    params.Chords,
		Seed:      params.Seed,
		AudioSecs: buf.Duration(),
	}
	m.writeMetadata(job)

	job.Status = StatusComplete
	job.Stage = "Complete!"
	job.Updates <- job.Stage
}

// writeMetadata stores the result as JSON alongside the render
func (m *JobManager) writeMetadata(job *Job) {
	data, err := json.MarshalIndent(job.Result, "", "  ")
	if err != nil {
		return
	}
	os.WriteFile(job.Work.MetadataJSON(), data, 0644)
}
