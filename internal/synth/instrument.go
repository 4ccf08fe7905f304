// Package synth renders composed notes into audio: per-instrument
// oscillator recipes, amplitude envelopes, a small effects stage and the
// final stereo mixdown.
package synth

import (
	"math"
	"math/rand"
)

// Instrument identifies a fixed synthesis recipe
type Instrument string

const (
	InstrumentPluck      Instrument = "pluck"
	InstrumentBell       Instrument = "bell"
	InstrumentMarimba    Instrument = "marimba"
	InstrumentPadGlass   Instrument = "pad_glass"
	InstrumentPadWarm    Instrument = "pad_warm"
	InstrumentLeadClean  Instrument = "lead_clean"
	InstrumentBrassShort Instrument = "brass_short"

	// Percussion and transition-effect voices
	InstrumentKick  Instrument = "kick"
	InstrumentSnare Instrument = "snare"
	InstrumentHat   Instrument = "hat"
	InstrumentSwell Instrument = "swell"
)

// PitchedInstruments lists the instruments assignable to image voices,
// in the order the mapping stage cycles through them.
var PitchedInstruments = []Instrument{
	InstrumentPluck,
	InstrumentBell,
	InstrumentMarimba,
	InstrumentPadGlass,
	InstrumentPadWarm,
	InstrumentLeadClean,
	InstrumentBrassShort,
}

// IsPercussive reports whether the instrument is an unpitched hit that
// uses the legacy linear-fade envelope.
func (i Instrument) IsPercussive() bool {
	switch i {
	case InstrumentKick, InstrumentSnare, InstrumentHat:
		return true
	}
	return false
}

// HasDelay reports whether the instrument's track carries the melodic
// delay line.
func (i Instrument) HasDelay() bool {
	return i == InstrumentLeadClean
}

// hasBrightnessFilter reports whether the recipe runs through the
// brightness-driven one-pole low-pass.
func (i Instrument) hasBrightnessFilter() bool {
	switch i {
	case InstrumentPadWarm, InstrumentBrassShort, InstrumentMarimba:
		return true
	}
	return false
}

// Oscillator primitives. Phase is in cycles, not radians.

func sine(phase float64) float64 {
	return math.Sin(2 * math.Pi * phase)
}

func triangle(phase float64) float64 {
	p := phase - math.Floor(phase)
	return 4*math.Abs(p-0.5) - 1
}

func square(phase float64) float64 {
	if phase-math.Floor(phase) < 0.5 {
		return 1
	}
	return -1
}

func sawtooth(phase float64) float64 {
	p := phase - math.Floor(phase)
	return 2*p - 1
}

// Synthesize renders the raw (pre-envelope) waveform for one note.
// freq is the fundamental in Hz, n the sample count, brightness in [0,1]
// drives the low-pass cutoff on filtered recipes. rng feeds the noise
// sources so percussion stays reproducible under a fixed seed.
// Unrecognized instruments fall back to a plain sine; instrument ids come
// from heuristic mapping and must never abort a render.
func Synthesize(inst Instrument, freq float64, n int, sampleRate int, brightness float64, rng *rand.Rand) []float64 {
	out := make([]float64, n)
	sr := float64(sampleRate)

	switch inst {
	case InstrumentPluck:
		for i := range out {
			t := float64(i) / sr
			out[i] = sine(freq*t) + 0.3*triangle(freq*t)
		}
	case InstrumentBell:
		for i := range out {
			t := float64(i) / sr
			out[i] = sine(freq*t) + 0.5*sine(2*freq*t) + 0.3*sine(3*freq*t) + 0.2*sine(5*freq*t)
		}
	case InstrumentMarimba:
		for i := range out {
			t := float64(i) / sr
			out[i] = triangle(freq*t) + 0.4*sine(2*freq*t)
		}
	case InstrumentPadGlass:
		for i := range out {
			t := float64(i) / sr
			out[i] = sine(freq*t) + 0.7*sine(freq*1.005*t) + 0.5*sine(freq*0.995*t)
		}
	case InstrumentPadWarm:
		for i := range out {
			t := float64(i) / sr
			out[i] = sine(freq*t) + 0.4*triangle(freq*t) + 0.3*sine(0.5*freq*t)
		}
	case InstrumentLeadClean:
		for i := range out {
			t := float64(i) / sr
			out[i] = sine(freq*t) + 0.2*square(freq*t)
		}
	case InstrumentBrassShort:
		for i := range out {
			t := float64(i) / sr
			out[i] = sawtooth(freq*t) + 0.3*sine(3*freq*t)
		}
	case InstrumentKick:
		// Pitch sweep from 120 Hz down plus a soft noise transient.
		for i := range out {
			t := float64(i) / sr
			f := 120.0 * math.Exp(-t*18)
			out[i] = sine(f*t) + 0.2*rng.NormFloat64()*math.Exp(-t*60)
		}
	case InstrumentSnare:
		for i := range out {
			t := float64(i) / sr
			out[i] = 0.8*rng.NormFloat64()*0.5 + 0.4*sine(190*t)
		}
	case InstrumentHat:
		for i := range out {
			out[i] = rng.NormFloat64() * 0.4
		}
		highPass(out, 6000, sampleRate)
	case InstrumentSwell:
		// Noise under a rising filter sweep; the long decay comes from
		// the envelope stage.
		for i := range out {
			out[i] = rng.NormFloat64() * 0.5
		}
		sweepLowPass(out, 200, 4000, sampleRate)
	default:
		for i := range out {
			t := float64(i) / sr
			out[i] = sine(freq * t)
		}
	}

	if inst.hasBrightnessFilter() {
		cutoff := filterCutoff(freq, brightness)
		OnePoleLowPass(out, cutoff, sampleRate)
	}

	return out
}

// filterCutoff interpolates the low-pass cutoff between 2x and 8x the
// fundamental, capped at 8 kHz.
func filterCutoff(freq, brightness float64) float64 {
	if brightness < 0 {
		brightness = 0
	}
	if brightness > 1 {
		brightness = 1
	}
	cutoff := freq * (2 + 6*brightness)
	if cutoff > 8000 {
		cutoff = 8000
	}
	return cutoff
}

// sweepLowPass applies a one-pole low-pass whose cutoff rises linearly
// from startHz to endHz over the buffer. Used by the swell effect voice.
func sweepLowPass(buf []float64, startHz, endHz float64, sampleRate int) {
	if len(buf) == 0 {
		return
	}
	var y float64
	for i := range buf {
		frac := float64(i) / float64(len(buf))
		cutoff := startHz + (endHz-startHz)*frac
		a := 1 - math.Exp(-2*math.Pi*cutoff/float64(sampleRate))
		y = a*buf[i] + (1-a)*y
		buf[i] = y
	}
}

// highPass removes content below cutoff by subtracting a low-passed copy.
func highPass(buf []float64, cutoff float64, sampleRate int) {
	low := make([]float64, len(buf))
	copy(low, buf)
	OnePoleLowPass(low, cutoff, sampleRate)
	for i := range buf {
		buf[i] -= low[i]
	}
}
