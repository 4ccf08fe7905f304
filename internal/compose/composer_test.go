package compose

import (
	"errors"
	"math"
	"reflect"
	"testing"

	apperrors "github.com/newrealmco/image2sound/internal/errors"
	"github.com/newrealmco/image2sound/internal/music"
	"github.com/newrealmco/image2sound/internal/synth"
)

func testParams() Params {
	return Params{
		Root:     "C",
		Mode:     "ionian",
		Tempo:    120,
		Duration: 8,
		Meter:    Meter{4, 4},
		Seed:     99,
		Voices: []VoiceSpec{
			{Instrument: synth.InstrumentPluck, Gain: 0.8, Activity: 1.0, Brightness: 0.5},
			{Instrument: synth.InstrumentBell, Gain: 0.6, Activity: 0.5, Pan: 0.4, Brightness: 0.5},
		},
	}
}

func TestComposerValidation(t *testing.T) {
	t.Run("UnknownRootFails", func(t *testing.T) {
		p := testParams()
		p.Root = "X"
		if _, err := NewComposer(p); !errors.Is(err, apperrors.ErrUnknownRoot) {
			t.Errorf("want ErrUnknownRoot, got %v", err)
		}
	})

	t.Run("NonPositiveTempoFails", func(t *testing.T) {
		p := testParams()
		p.Tempo = 0
		if _, err := NewComposer(p); !errors.Is(err, apperrors.ErrInvalidTempo) {
			t.Errorf("want ErrInvalidTempo, got %v", err)
		}
	})

	t.Run("NegativeDurationFails", func(t *testing.T) {
		p := testParams()
		p.Duration = -3
		if _, err := NewComposer(p); !errors.Is(err, apperrors.ErrInvalidDuration) {
			t.Errorf("want ErrInvalidDuration, got %v", err)
		}
	})

	t.Run("UnknownModeIsNotAnError", func(t *testing.T) {
		p := testParams()
		p.Mode = "hyperdorian"
		if _, err := NewComposer(p); err != nil {
			t.Errorf("unknown mode should fall back, got %v", err)
		}
	})
}

func TestCompose(t *testing.T) {
	t.Run("Deterministic", func(t *testing.T) {
		c1, err := NewComposer(testParams())
		if err != nil {
			t.Fatal(err)
		}
		c2, _ := NewComposer(testParams())

		if !reflect.DeepEqual(c1.Compose(), c2.Compose()) {
			t.Error("identical seed and params must produce identical note sequences")
		}
	})

	t.Run("SeedChangesOutput", func(t *testing.T) {
		p2 := testParams()
		p2.Seed = 100
		c1, _ := NewComposer(testParams())
		c2, _ := NewComposer(p2)
		if reflect.DeepEqual(c1.Compose(), c2.Compose()) {
			t.Error("different seeds should produce different micro-variation")
		}
	})

	t.Run("ZeroSeedDerivedFromParams", func(t *testing.T) {
		p := testParams()
		p.Seed = 0
		if p.ResolvedSeed() == 0 {
			t.Error("zero seed should be replaced with a derived one")
		}
		p2 := p
		if p.ResolvedSeed() != p2.ResolvedSeed() {
			t.Error("derived seed must be stable for identical params")
		}
	})

	t.Run("SortedAndWithinDuration", func(t *testing.T) {
		p := testParams()
		p.Duration = 12
		c, _ := NewComposer(p)
		notes := c.Compose()
		if len(notes) == 0 {
			t.Fatal("composition should produce notes")
		}

		// Total beats round up to whole bars, so the playable window can
		// exceed the request by up to a bar; the slack guard below uses
		// the planned length plus the fixed 0.5s tail.
		planned := float64(c.Sections()[len(c.Sections())-1].EndBeat) * p.SecondsPerBeat()
		for i, n := range notes {
			if i > 0 && n.Start < notes[i-1].Start {
				t.Fatal("notes must be non-decreasing in start time")
			}
			if n.Duration <= 0 {
				t.Errorf("note %d has non-positive duration", i)
			}
			if n.End() > planned+0.5 {
				t.Errorf("note %d ends at %f, past planned end %f + slack", i, n.End(), planned)
			}
		}
	})

	t.Run("PitchesClamped", func(t *testing.T) {
		p := testParams()
		p.Voices[0].Octave = -6
		p.Voices[1].Octave = 6
		c, _ := NewComposer(p)
		for _, n := range c.Compose() {
			if music.IsEffectTrack(n.Track) {
				continue
			}
			if n.Pitch < music.MinPitch || n.Pitch > music.MaxPitch {
				t.Errorf("pitch %d outside [21,108]", n.Pitch)
			}
		}
	})

	t.Run("FullActivityFillsEveryBeat", func(t *testing.T) {
		// One voice at activity 1.0 in a density-1.0 section produces
		// one note per beat, each 0.8-1.2x the beat length.
		p := testParams()
		p.Voices = p.Voices[:1]
		c, _ := NewComposer(p)
		sec := c.Sections()[0]

		notes := c.composeVoice(0, sec)
		if len(notes) != sec.Beats() {
			t.Fatalf("got %d notes in a %d-beat section, want one per beat", len(notes), sec.Beats())
		}
		spb := p.SecondsPerBeat()
		for _, n := range notes {
			if n.Duration < 0.8*spb-1e-9 || n.Duration > 1.2*spb+1e-9 {
				t.Errorf("duration %f outside [0.8, 1.2] beats", n.Duration/spb)
			}
		}
	})

	t.Run("TuttiLowersVelocity", func(t *testing.T) {
		p := testParams()
		p.Duration = 16 // 8 bars at 120bpm 4/4 -> A, B, Tutti plan
		c, _ := NewComposer(p)

		var tutti Section
		found := false
		for _, s := range c.Sections() {
			if s.Name == SectionTutti {
				tutti, found = s, true
			}
		}
		if !found {
			t.Fatal("expected a Tutti section in an 8-bar plan")
		}
		for _, n := range c.composeVoice(0, tutti) {
			// gain 0.8, ceiling 0.8*(0.7+0.3)*0.8
			if n.Velocity > 0.8*0.8+1e-9 {
				t.Errorf("tutti velocity %f above scaled ceiling", n.Velocity)
			}
		}
	})

	t.Run("TransitionsLandBeforeBoundaries", func(t *testing.T) {
		p := testParams()
		p.Duration = 16
		c, _ := NewComposer(p)
		notes := c.Compose()

		boundaries := map[float64]bool{}
		for _, s := range c.Sections() {
			if s.HasTransition {
				boundaries[float64(s.EndBeat)*p.SecondsPerBeat()] = true
			}
		}
		if len(boundaries) == 0 {
			t.Fatal("plan should flag transitions")
		}

		fx := 0
		for _, n := range notes {
			if !music.IsEffectTrack(n.Track) {
				continue
			}
			fx++
			matched := false
			for b := range boundaries {
				if n.Start >= b-1.5-1e-9 && n.End() <= b-0.5+0.2 {
					matched = true
				}
			}
			if !matched {
				t.Errorf("effect note at %f is outside every transition window", n.Start)
			}
			if math.Abs(n.Pan) > fillPanJitter+1e-9 {
				t.Errorf("effect pan %f beyond jitter range", n.Pan)
			}
		}
		if fx == 0 {
			t.Error("expected transition effect notes")
		}
	})
}

func TestPassingTone(t *testing.T) {
	t.Run("SmallBiasNeverDeviates", func(t *testing.T) {
		p := testParams()
		c, _ := NewComposer(p)
		for i := 0; i < 200; i++ {
			if c.passingTone(0.3) != 0 {
				t.Fatal("bias at threshold must not deviate")
			}
		}
	})

	t.Run("NegativeBiasConsumesDrawWithoutShift", func(t *testing.T) {
		c, _ := NewComposer(testParams())
		for i := 0; i < 200; i++ {
			if c.passingTone(-0.9) != 0 {
				t.Fatal("negative bias must never shift the pitch")
			}
		}
	})

	t.Run("PositiveBiasDeviatesSometimes", func(t *testing.T) {
		c, _ := NewComposer(testParams())
		ups, downs := 0, 0
		for i := 0; i < 2000; i++ {
			switch c.passingTone(1.0) {
			case 1:
				ups++
			case -1:
				downs++
			}
		}
		if ups == 0 || downs == 0 {
			t.Errorf("strong positive bias should deviate both ways, got +%d/-%d", ups, downs)
		}
		// Probability 0.5 overall at bias 1.0.
		total := ups + downs
		if total < 800 || total > 1200 {
			t.Errorf("deviation count %d out of 2000, want ~1000", total)
		}
	})
}
