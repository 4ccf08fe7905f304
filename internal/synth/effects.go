package synth

import "math"

// OnePoleLowPass filters the buffer in place with
// y[n] = a*x[n] + (1-a)*y[n-1], a = 1 - e^(-2*pi*cutoff/sampleRate).
// State lives only within the buffer; there is no cross-note history
// for filtering.
func OnePoleLowPass(buf []float64, cutoff float64, sampleRate int) {
	if len(buf) == 0 {
		return
	}
	a := 1 - math.Exp(-2*math.Pi*cutoff/float64(sampleRate))
	var y float64
	for i, x := range buf {
		y = a*x + (1-a)*y
		buf[i] = y
	}
}

// PanGains maps pan in [-1,1] to equal-power left/right gains.
// Center pan yields sqrt(2)/2 on both channels (-3 dB), keeping
// perceived loudness constant across the pan range.
func PanGains(pan float64) (left, right float64) {
	if pan < -1 {
		pan = -1
	}
	if pan > 1 {
		pan = 1
	}
	angle := (pan + 1) * math.Pi / 4
	return math.Cos(angle), math.Sin(angle)
}

// DelayLine is a fixed-length circular delay buffer with feedback.
// State persists across calls, so a track's notes must be processed in
// time order.
type DelayLine struct {
	buf      []float64
	pos      int
	feedback float64
}

// NewDelayLine creates a delay of delaySamples with the given feedback
// gain. Feedback is clamped to [0,1) to keep the line stable.
func NewDelayLine(delaySamples int, feedback float64) *DelayLine {
	if delaySamples < 1 {
		delaySamples = 1
	}
	if feedback < 0 {
		feedback = 0
	}
	if feedback > 0.95 {
		feedback = 0.95
	}
	return &DelayLine{
		buf:      make([]float64, delaySamples),
		feedback: feedback,
	}
}

// EighthNoteDelay returns the sample length of an eighth note at the
// given tempo.
func EighthNoteDelay(tempo float64, sampleRate int) int {
	if tempo <= 0 {
		tempo = 120
	}
	return int(float64(sampleRate) * 60.0 / tempo / 2.0)
}

// Process mixes the delayed signal into the buffer in place:
// out[i] = dry[i] + 0.3*delayed, buffer write = dry[i] + feedback*delayed.
// Samples are processed strictly in order because the line is stateful.
func (d *DelayLine) Process(buf []float64) {
	for i := range buf {
		dry := buf[i]
		delayed := d.buf[d.pos]
		buf[i] = dry + 0.3*delayed
		d.buf[d.pos] = dry + d.feedback*delayed
		d.pos++
		if d.pos >= len(d.buf) {
			d.pos = 0
		}
	}
}
