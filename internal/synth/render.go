package synth

import (
	"math"
	"math/rand"
	"sort"

	"github.com/newrealmco/image2sound/internal/music"
)

// tailSeconds is the silence appended after the last note so decays and
// delay repeats are not cut off.
const tailSeconds = 0.5

// peakTarget is the absolute sample value the final mix is normalized to.
const peakTarget = 0.98

// noteGain is the pre-mix headroom applied to every rendered note.
const noteGain = 0.2

// StereoBuffer is the rendered two-channel waveform. Both channels have
// identical length and are mutated only by accumulation during the mix,
// then normalized exactly once.
type StereoBuffer struct {
	Left       []float64
	Right      []float64
	SampleRate int
}

// Duration returns the buffer length in seconds.
func (b *StereoBuffer) Duration() float64 {
	return float64(len(b.Left)) / float64(b.SampleRate)
}

// Peak returns the maximum absolute sample value across both channels.
func (b *StereoBuffer) Peak() float64 {
	peak := 0.0
	for _, s := range b.Left {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	for _, s := range b.Right {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	return peak
}

// Renderer mixes composed notes into a stereo buffer.
type Renderer struct {
	sampleRate int
	tempo      float64
	rng        *rand.Rand
	brightness map[string]float64 // per-track filter brightness, 0-1
}

// NewRenderer creates a renderer at the given sample rate. tempo drives
// the delay time for lead tracks; rng is the composition's shared seeded
// generator (percussion noise draws from it).
func NewRenderer(sampleRate int, tempo float64, rng *rand.Rand) *Renderer {
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Renderer{
		sampleRate: sampleRate,
		tempo:      tempo,
		rng:        rng,
		brightness: make(map[string]float64),
	}
}

// SetTrackBrightness registers the brightness proxy for a track. Tracks
// without an entry render at a neutral 0.5.
func (r *Renderer) SetTrackBrightness(track string, brightness float64) {
	r.brightness[track] = brightness
}

// Render sums all notes into a freshly allocated stereo buffer and
// peak-normalizes the result. Zero notes yields a minimal silent buffer;
// zero-length or out-of-range notes are skipped, never an error.
func (r *Renderer) Render(notes []music.Note) *StereoBuffer {
	end := 0.0
	for _, n := range notes {
		if n.End() > end {
			end = n.End()
		}
	}

	total := int(float64(r.sampleRate) * (end + tailSeconds))
	if total < 1 {
		total = 1
	}
	buf := &StereoBuffer{
		Left:       make([]float64, total),
		Right:      make([]float64, total),
		SampleRate: r.sampleRate,
	}

	// Canonical chronological order: delay lines carry state across a
	// track's notes, so each track must see its notes in time order.
	// sort.SliceStable keeps insertion order for ties.
	ordered := make([]music.Note, len(notes))
	copy(ordered, notes)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Start < ordered[j].Start
	})

	delays := make(map[string]*DelayLine)

	for _, n := range ordered {
		r.renderNote(buf, n, delays)
	}

	normalize(buf)
	return buf
}

// renderNote synthesizes one note and accumulates it into the buffer.
func (r *Renderer) renderNote(buf *StereoBuffer, n music.Note, delays map[string]*DelayLine) {
	length := int(float64(r.sampleRate) * n.Duration)
	start := int(float64(r.sampleRate) * n.Start)
	if length <= 0 || start < 0 || start >= len(buf.Left) {
		return
	}
	if start+length > len(buf.Left) {
		length = len(buf.Left) - start
	}

	inst := Instrument(music.TrackInstrument(n.Track))
	freq := music.PitchToFreq(n.Pitch)

	brightness, ok := r.brightness[n.Track]
	if !ok {
		brightness = 0.5
	}

	sig := Synthesize(inst, freq, length, r.sampleRate, brightness, r.rng)
	env := Envelope(inst, length, r.sampleRate)
	for i := range sig {
		sig[i] *= env[i] * n.Velocity * noteGain
	}

	if inst.HasDelay() {
		line, ok := delays[n.Track]
		if !ok {
			line = NewDelayLine(EighthNoteDelay(r.tempo, r.sampleRate), 0.35)
			delays[n.Track] = line
		}
		line.Process(sig)
	}

	left, right := PanGains(n.Pan)
	for i, s := range sig {
		buf.Left[start+i] += s * left
		buf.Right[start+i] += s * right
	}
}

// normalize scales the whole buffer so its peak hits peakTarget. A
// silent buffer is left untouched (peak treated as 1.0, no divide by
// zero).
func normalize(buf *StereoBuffer) {
	peak := buf.Peak()
	if peak == 0 {
		return
	}
	scale := peakTarget / peak
	for i := range buf.Left {
		buf.Left[i] *= scale
		buf.Right[i] *= scale
	}
}
