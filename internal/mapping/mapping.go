// Package mapping converts extracted image features into musical
// parameters: key, mode, tempo, meter, chord labels and one VoiceSpec
// per dominant color.
package mapping

import (
	"errors"
	"math"

	"github.com/newrealmco/image2sound/internal/compose"
	apperrors "github.com/newrealmco/image2sound/internal/errors"
	"github.com/newrealmco/image2sound/internal/features"
	"github.com/newrealmco/image2sound/internal/synth"
)

// Style adjusts the base mapping toward a musical aesthetic
type Style string

const (
	StyleNeutral   Style = "neutral"
	StyleAmbient   Style = "ambient"
	StyleCinematic Style = "cinematic"
	StyleRock      Style = "rock"
)

// Styles lists the accepted style names.
var Styles = []Style{StyleNeutral, StyleAmbient, StyleCinematic, StyleRock}

// ErrUnknownStyle is returned for style names outside Styles.
var ErrUnknownStyle = errors.New("unknown style")

// ParseStyle validates a style name. Styles are caller-chosen identity
// parameters, so unknown names fail fast instead of defaulting.
func ParseStyle(name string) (Style, error) {
	for _, s := range Styles {
		if string(s) == name {
			return s, nil
		}
	}
	return "", apperrors.NewParamError("style", name, ErrUnknownStyle)
}

// hueKeys maps 30-degree hue buckets around the color wheel to keys
// along the circle of fifths.
var hueKeys = []string{"C", "G", "D", "A", "E", "B", "F#", "C#", "Ab", "Eb", "Bb", "F"}

// Map derives the full composition parameters from an image feature
// record. The mapping is deterministic: the same features and style
// always yield the same parameters.
func Map(f *features.Features, style Style, targetDuration float64) (compose.Params, error) {
	if len(f.Palette) == 0 {
		return compose.Params{}, apperrors.NewParamError("palette", "", apperrors.ErrEmptyPalette)
	}

	// Key from the hue of the brightest dominant color.
	rootColor := f.Palette[0]
	for _, c := range f.Palette {
		if colorSum(c.RGB) > colorSum(rootColor.RGB) {
			rootColor = c
		}
	}
	hue, _, _ := rgbToHSV(rootColor.RGB)
	root := hueKeys[int(hue/30)%12]

	// Brightness drives tempo (80-140 BPM) and the major/minor choice.
	brightness := clamp01(f.Brightness)
	tempo := 80 + 60*brightness
	mode := "aeolian"
	if brightness >= 0.5 {
		mode = "ionian"
	}

	switch style {
	case StyleAmbient:
		tempo = math.Max(60, tempo-20)
		mode = "ionian"
	case StyleCinematic:
		tempo = math.Min(150, tempo+10)
	case StyleRock:
		tempo = math.Min(160, tempo+20)
		mode = "aeolian"
	}

	return compose.Params{
		Root:     root,
		Mode:     mode,
		Tempo:    math.Round(tempo),
		Duration: targetDuration,
		Meter:    compose.Meter{Numerator: 4, Denominator: 4},
		Chords:   chordLabels(mode),
		Seed:     int64(f.Seed),
		Voices:   deriveVoices(f),
	}, nil
}

// Intensity is the combined edge/contrast measure carried into reports.
func Intensity(f *features.Features) float64 {
	return math.Min(1, 0.5*f.EdgeDensity+0.5*f.Contrast)
}

// deriveVoices builds one VoiceSpec per palette color. The palette
// arrives ordered by descending proportion and the voice order preserves
// that ranking, which the section planner relies on.
func deriveVoices(f *features.Features) []compose.VoiceSpec {
	voices := make([]compose.VoiceSpec, 0, len(f.Palette))
	for _, c := range f.Palette {
		hue, sat, val := rgbToHSV(c.RGB)

		// Hue sector picks the timbre; the wheel is split evenly across
		// the pitched instrument set.
		sector := int(hue / (360.0 / float64(len(synth.PitchedInstruments))))
		if sector >= len(synth.PitchedInstruments) {
			sector = len(synth.PitchedInstruments) - 1
		}

		octave := 0
		switch {
		case val < 0.33:
			octave = -1
		case val > 0.66:
			octave = 1
		}

		voices = append(voices, compose.VoiceSpec{
			Instrument: synth.PitchedInstruments[sector],
			ModeBias:   clampRange((sat-0.5)*1.6, -1, 1),
			Pan:        clampRange((c.Centroid[0]*2-1)*0.8, -1, 1),
			Gain:       0.5 + 0.5*c.Proportion,
			Octave:     octave,
			Activity:   clampRange(0.5+2*c.Proportion+0.5*f.TextureEnergy, 0.25, 2),
			Brightness: clamp01(0.5*f.Brightness + 0.5*val),
			Color:      c.RGB,
		})
	}
	return voices
}

// chordLabels returns the symbolic progression for the mode family.
// The labels are pass-through metadata; the composition core does not
// interpret them.
func chordLabels(mode string) []string {
	if mode == "aeolian" {
		return []string{"i", "VI", "III", "VII"}
	}
	return []string{"I", "V", "vi", "IV"}
}

// rgbToHSV converts an 8-bit RGB color to hue (degrees, 0-360),
// saturation and value (both 0-1).
func rgbToHSV(rgb [3]uint8) (h, s, v float64) {
	r := float64(rgb[0]) / 255
	g := float64(rgb[1]) / 255
	b := float64(rgb[2]) / 255

	mx := math.Max(r, math.Max(g, b))
	mn := math.Min(r, math.Min(g, b))
	v = mx
	if mx > 0 {
		s = (mx - mn) / mx
	}
	if mx == mn {
		return 0, s, v
	}
	switch mx {
	case r:
		h = math.Mod(60*(g-b)/(mx-mn)+360, 360)
	case g:
		h = math.Mod(60*(b-r)/(mx-mn)+120, 360)
	default:
		h = math.Mod(60*(r-g)/(mx-mn)+240, 360)
	}
	return h, s, v
}

func colorSum(rgb [3]uint8) int {
	return int(rgb[0]) + int(rgb[1]) + int(rgb[2])
}

func clamp01(v float64) float64 {
	return clampRange(v, 0, 1)
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
