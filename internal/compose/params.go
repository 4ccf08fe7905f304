// Package compose turns musical parameters into a time-ordered note
// list: sectional structure (A/B/A'/Tutti), per-voice note generation
// and transition effects between sections.
package compose

import (
	"hash/fnv"

	apperrors "github.com/newrealmco/image2sound/internal/errors"
	"github.com/newrealmco/image2sound/internal/synth"
)

// VoiceSpec is the performance profile for one synthesized voice,
// derived from one dominant image color. Immutable for the duration of
// a composition run.
type VoiceSpec struct {
	Instrument synth.Instrument
	ModeBias   float64          // -1..1, tendency toward (+) or away from (-) passing tones
	Pan        float64          // -1..1 stereo position
	Gain       float64          // >= 0, velocity base
	Octave     int              // signed register offset from the reference pitch
	Activity   float64          // > 0, note-density multiplier
	Brightness float64          // 0..1, filter-cutoff proxy
	Color      [3]uint8         // source color, carried for reporting
}

// Meter is a time signature.
type Meter struct {
	Numerator   int // beats per bar
	Denominator int // beat unit, pass-through only
}

// Params holds everything one composition run needs. Voices arrive
// ordered by descending color proportion; that ranking drives section
// voice assignment.
type Params struct {
	Root     string  // root pitch class name, validated against music.ParseRoot
	Mode     string  // mode name, unknown names fall back to ionian
	Tempo    float64 // BPM, must be > 0
	Duration float64 // target seconds, must be > 0
	Meter    Meter
	Chords   []string // symbolic chord labels, pass-through only
	Seed     int64    // RNG seed; 0 derives one from root+mode+tempo
	Voices   []VoiceSpec
}

// Validate fails fast on invalid identity parameters. Heuristic
// parameters (mode, instrument ids) are never validated here; they
// degrade to documented defaults downstream.
func (p Params) Validate() error {
	if p.Tempo <= 0 {
		return apperrors.NewParamError("tempo", "", apperrors.ErrInvalidTempo)
	}
	if p.Duration <= 0 {
		return apperrors.NewParamError("duration", "", apperrors.ErrInvalidDuration)
	}
	if p.Meter.Numerator < 1 {
		return apperrors.NewParamError("meter", "", apperrors.ErrInvalidMeter)
	}
	return nil
}

// SecondsPerBeat returns the beat length for the configured tempo.
func (p Params) SecondsPerBeat() float64 {
	return 60.0 / p.Tempo
}

// ResolvedSeed returns the run's RNG seed. A zero seed is replaced by a
// deterministic hash of root, mode and tempo so identical parameters
// always reproduce the same piece.
func (p Params) ResolvedSeed() int64 {
	if p.Seed != 0 {
		return p.Seed
	}
	h := fnv.New64a()
	h.Write([]byte(p.Root))
	h.Write([]byte{'|'})
	h.Write([]byte(p.Mode))
	h.Write([]byte{'|'})
	var tempo [8]byte
	t := uint64(p.Tempo * 1000)
	for i := range tempo {
		tempo[i] = byte(t >> (8 * i))
	}
	h.Write(tempo[:])
	return int64(h.Sum64())
}
