package synth

import "math"

// envelopeShape holds the attack time and exponential decay constant for
// one instrument family.
type envelopeShape struct {
	Attack float64 // seconds of linear ramp to full level
	Decay  float64 // exponential time constant tau, seconds
}

var envelopeShapes = map[Instrument]envelopeShape{
	InstrumentPluck:      {0.010, 0.30},
	InstrumentBell:       {0.050, 0.80},
	InstrumentMarimba:    {0.020, 0.40},
	InstrumentPadGlass:   {0.150, 0.80},
	InstrumentPadWarm:    {0.150, 0.80},
	InstrumentLeadClean:  {0.030, 0.50},
	InstrumentBrassShort: {0.020, 0.25}, // staccato
	InstrumentSwell:      {0.010, 0.40},
}

var defaultEnvelope = envelopeShape{0.010, 0.40}

// Envelope returns an amplitude curve of exactly n samples for the
// instrument: a linear attack ramp followed by exponential decay.
// Percussive instruments keep the legacy plain linear fade. No
// normalization happens here; that is done once globally at mix time.
func Envelope(inst Instrument, n int, sampleRate int) []float64 {
	env := make([]float64, n)
	if n == 0 {
		return env
	}

	if inst.IsPercussive() {
		for i := range env {
			env[i] = 1 - float64(i)/float64(n)
		}
		return env
	}

	shape, ok := envelopeShapes[inst]
	if !ok {
		shape = defaultEnvelope
	}

	sr := float64(sampleRate)
	for i := range env {
		t := float64(i) / sr
		attack := 1.0
		if shape.Attack > 0 && t < shape.Attack {
			attack = t / shape.Attack
		}
		env[i] = attack * math.Exp(-t/shape.Decay)
	}
	return env
}
