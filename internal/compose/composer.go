package compose

import (
	"math"
	"math/rand"
	"sort"

	"github.com/newrealmco/image2sound/internal/music"
)

// Transition effect timing: a one-second window ending half a second
// before the section boundary.
const (
	transitionWindow = 1.0
	transitionLead   = 0.5
	fillHitsPerSec   = 4
	fillPanJitter    = 0.3
)

// fillVoices are the percussion instruments a fill alternates through.
var fillVoices = []string{"kick", "snare", "hat"}

// Composer generates the full note list for one composition run. All
// randomness is drawn from a single seeded generator owned by the run;
// the same seed and parameters always produce an identical sequence.
type Composer struct {
	params   Params
	scale    music.Scale
	sections []Section
	rng      *rand.Rand
}

// NewComposer validates the parameters and builds a composer with a
// generator seeded from Params.ResolvedSeed.
func NewComposer(p Params) (*Composer, error) {
	return NewComposerWithRNG(p, rand.New(rand.NewSource(p.ResolvedSeed())))
}

// NewComposerWithRNG is NewComposer with an injected random source, for
// deterministic tests and for callers that share one generator across
// composition and rendering.
func NewComposerWithRNG(p Params, rng *rand.Rand) (*Composer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	rootPC, err := music.ParseRoot(p.Root)
	if err != nil {
		return nil, err
	}

	spb := p.SecondsPerBeat()
	totalBeats := int(p.Duration / spb)

	return &Composer{
		params:   p,
		scale:    music.NewScale(rootPC, music.ModeByName(p.Mode)),
		sections: PlanSections(len(p.Voices), totalBeats, p.Meter.Numerator),
		rng:      rng,
	}, nil
}

// Sections exposes the computed section plan (read-only).
func (c *Composer) Sections() []Section {
	return c.sections
}

// RNG returns the run's shared random generator so the renderer can keep
// drawing from the same stream.
func (c *Composer) RNG() *rand.Rand {
	return c.rng
}

// Compose generates all voice and transition notes, chronologically
// sorted with stable tie order.
func (c *Composer) Compose() []music.Note {
	var notes []music.Note

	for _, sec := range c.sections {
		for _, vi := range sec.ActiveVoices {
			if vi < 0 || vi >= len(c.params.Voices) {
				continue
			}
			notes = append(notes, c.composeVoice(vi, sec)...)
		}
	}

	notes = append(notes, c.composeTransitions()...)

	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].Start < notes[j].Start
	})
	return notes
}

// composeVoice generates one voice's notes within one section.
func (c *Composer) composeVoice(vi int, sec Section) []music.Note {
	voice := c.params.Voices[vi]
	spb := c.params.SecondsPerBeat()

	density := voice.Activity * sec.Density
	if density <= 0 {
		return nil
	}
	step := int(math.Round(1.0 / density))
	if step < 1 {
		step = 1 // never zero: guarantees progress through the section
	}

	track := music.VoiceTrack(vi, string(voice.Instrument))
	pieceEnd := float64(c.sections[len(c.sections)-1].EndBeat) * spb
	var notes []music.Note

	for beat := sec.StartBeat; beat < sec.EndBeat; beat += step {
		pitch := c.scale.Degree(beat)
		pitch += c.passingTone(voice.ModeBias)
		pitch += 12 * voice.Octave
		if sec.Name == SectionAPrime {
			pitch += 2 // structural variation on the reprise
		}
		pitch = music.ClampPitch(pitch)

		dur := spb * (0.8 + 0.4*c.rng.Float64())
		if density > 1.5 {
			dur *= 0.7
		} else if density < 0.7 {
			dur *= 1.4
		}

		// Keep the last notes inside the piece plus the fixed 0.5s tail.
		start := float64(beat) * spb
		if start+dur > pieceEnd+0.5 {
			dur = pieceEnd + 0.5 - start
		}

		vel := voice.Gain * (0.7 + 0.3*c.rng.Float64())
		if sec.Name == SectionTutti {
			vel *= 0.8
		}

		notes = append(notes, music.Note{
			Start:    start,
			Duration: dur,
			Pitch:    pitch,
			Velocity: vel,
			Track:    track,
			Pan:      voice.Pan,
		})
	}
	return notes
}

// passingTone applies the mode-bias chromatic deviation. A single
// uniform draw decides both whether to deviate and in which direction:
// with |bias| <= 0.3 no draw happens at all; otherwise the draw fires
// with probability |bias|*0.5, and only a positive bias actually shifts
// the pitch (negative bias consumes the draw but stays diatonic).
func (c *Composer) passingTone(bias float64) int {
	abs := math.Abs(bias)
	if abs <= 0.3 {
		return 0
	}
	r := c.rng.Float64()
	if r >= abs*0.5 || bias <= 0 {
		return 0
	}
	if r < abs*0.25 {
		return 1
	}
	return -1
}

// composeTransitions emits fill or swell effect notes before every
// section boundary flagged with a transition.
func (c *Composer) composeTransitions() []music.Note {
	spb := c.params.SecondsPerBeat()
	var notes []music.Note

	for _, sec := range c.sections {
		if !sec.HasTransition {
			continue
		}
		boundary := float64(sec.EndBeat) * spb
		start := boundary - transitionLead - transitionWindow
		if start < 0 {
			start = 0
		}

		if c.rng.Float64() < 0.5 {
			notes = append(notes, music.Note{
				Start:    start,
				Duration: transitionWindow,
				Pitch:    music.ReferencePitch,
				Velocity: 0.6,
				Track:    music.EffectTrack("swell"),
			})
			continue
		}

		hits := int(transitionWindow * fillHitsPerSec)
		for h := 0; h < hits; h++ {
			notes = append(notes, music.Note{
				Start:    start + float64(h)/fillHitsPerSec,
				Duration: 0.06,
				Pitch:    music.ReferencePitch,
				Velocity: 0.8,
				Track:    music.EffectTrack(fillVoices[h%len(fillVoices)]),
				Pan:      (c.rng.Float64()*2 - 1) * fillPanJitter,
			})
		}
	}
	return notes
}
