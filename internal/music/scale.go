// Package music provides pitch, scale and mode primitives shared by the
// composition and synthesis stages.
package music

import (
	"fmt"
	"math"

	apperrors "github.com/newrealmco/image2sound/internal/errors"
)

// ReferencePitch is the MIDI value the scale engine anchors to (middle C).
const ReferencePitch = 60

// Pitched instruments are clamped to the standard 88-key range.
const (
	MinPitch = 21
	MaxPitch = 108
)

// ScaleDegrees is the number of degrees in every mode pattern.
const ScaleDegrees = 7

// pitchClassNames maps the accepted root spellings to pitch classes 0-11.
var pitchClassNames = []string{"C", "C#", "D", "Eb", "E", "F", "F#", "G", "Ab", "A", "Bb", "B"}

// ParseRoot converts a root note name to its pitch class (0-11).
// Unknown names are a hard error: the root is a core identity parameter
// and must never be silently substituted.
func ParseRoot(name string) (int, error) {
	for i, n := range pitchClassNames {
		if n == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown root note %q: %w", name, apperrors.ErrUnknownRoot)
}

// RootName returns the canonical spelling for a pitch class.
func RootName(pc int) string {
	return pitchClassNames[((pc%12)+12)%12]
}

// Mode is a named 7-degree semitone pattern anchored at 0.
type Mode struct {
	Name    string
	Pattern [ScaleDegrees]int
}

var modes = map[string]Mode{
	"ionian":     {"ionian", [ScaleDegrees]int{0, 2, 4, 5, 7, 9, 11}},
	"dorian":     {"dorian", [ScaleDegrees]int{0, 2, 3, 5, 7, 9, 10}},
	"phrygian":   {"phrygian", [ScaleDegrees]int{0, 1, 3, 5, 7, 8, 10}},
	"lydian":     {"lydian", [ScaleDegrees]int{0, 2, 4, 6, 7, 9, 11}},
	"mixolydian": {"mixolydian", [ScaleDegrees]int{0, 2, 4, 5, 7, 9, 10}},
	"aeolian":    {"aeolian", [ScaleDegrees]int{0, 2, 3, 5, 7, 8, 10}},
	"locrian":    {"locrian", [ScaleDegrees]int{0, 1, 3, 5, 6, 8, 10}},
}

// ModeByName looks up a mode pattern. Unknown names fall back to ionian;
// mode names arrive from heuristic mapping and must not abort a run.
func ModeByName(name string) Mode {
	if m, ok := modes[name]; ok {
		return m
	}
	return modes["ionian"]
}

// ModeNames returns the supported mode names (unordered).
func ModeNames() []string {
	names := make([]string, 0, len(modes))
	for n := range modes {
		names = append(names, n)
	}
	return names
}

// Scale is an ordered set of 7 absolute pitches around the reference pitch.
type Scale struct {
	Root    int
	Mode    Mode
	Pitches [ScaleDegrees]int
}

// NewScale builds the scale for a root pitch class and mode. The caller is
// responsible for validating the root via ParseRoot; pitch classes outside
// 0-11 are wrapped here only as pitch-class arithmetic, not as validation.
func NewScale(rootPC int, mode Mode) Scale {
	s := Scale{Root: ((rootPC % 12) + 12) % 12, Mode: mode}
	for i, off := range mode.Pattern {
		s.Pitches[i] = ReferencePitch + (s.Root+off)%12
	}
	return s
}

// Degree returns the pitch for a scale degree, wrapping modulo 7 so beat
// indices can cycle through the scale indefinitely.
func (s Scale) Degree(i int) int {
	return s.Pitches[((i%ScaleDegrees)+ScaleDegrees)%ScaleDegrees]
}

// ClampPitch bounds a pitch to the playable range for pitched voices.
func ClampPitch(p int) int {
	if p < MinPitch {
		return MinPitch
	}
	if p > MaxPitch {
		return MaxPitch
	}
	return p
}

// PitchToFreq converts a MIDI pitch to frequency in Hz (A4 = 440 Hz).
func PitchToFreq(pitch int) float64 {
	return 440.0 * math.Pow(2, float64(pitch-69)/12.0)
}
