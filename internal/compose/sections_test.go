package compose

import "testing"

func TestPlanSections(t *testing.T) {
	t.Run("ThreeBars_ABOnly", func(t *testing.T) {
		// 12 beats in 4/4 is 3 bars: {A, B}, A gets the ceiling half.
		sections := PlanSections(3, 12, 4)
		if len(sections) != 2 {
			t.Fatalf("got %d sections, want 2", len(sections))
		}
		if sections[0].Name != SectionA || sections[1].Name != SectionB {
			t.Errorf("section names = %s, %s, want A, B", sections[0].Name, sections[1].Name)
		}
		if sections[0].Beats() != 8 || sections[1].Beats() != 4 {
			t.Errorf("beats = %d, %d; 3 bars should split 2/1 with A larger",
				sections[0].Beats(), sections[1].Beats())
		}
	})

	t.Run("EightBeatsEvenSplit", func(t *testing.T) {
		// An even bar count splits evenly between A and B.
		sections := PlanSections(2, 8, 4)
		if len(sections) != 2 {
			t.Fatalf("got %d sections, want 2", len(sections))
		}
		if sections[0].Beats() != sections[1].Beats() {
			t.Errorf("2-bar plan should split evenly, got %d and %d",
				sections[0].Beats(), sections[1].Beats())
		}
	})

	t.Run("MidSize_AddsTutti", func(t *testing.T) {
		sections := PlanSections(3, 24, 4) // 6 bars
		if len(sections) != 3 {
			t.Fatalf("got %d sections, want 3", len(sections))
		}
		if sections[2].Name != SectionTutti {
			t.Errorf("last section = %s, want Tutti", sections[2].Name)
		}
		if sections[2].Density != 0.6 {
			t.Errorf("Tutti density = %f, want 0.6", sections[2].Density)
		}
		if len(sections[2].ActiveVoices) != 3 {
			t.Errorf("Tutti active voices = %v, want all 3", sections[2].ActiveVoices)
		}
	})

	t.Run("Long_AddsReprise", func(t *testing.T) {
		sections := PlanSections(5, 40, 4) // 10 bars
		if len(sections) != 4 {
			t.Fatalf("got %d sections, want 4", len(sections))
		}
		if sections[2].Name != SectionAPrime {
			t.Errorf("third section = %s, want A'", sections[2].Name)
		}
		if sections[2].Density != 1.2 {
			t.Errorf("A' density = %f, want 1.2", sections[2].Density)
		}
	})

	t.Run("TilesWithoutGaps", func(t *testing.T) {
		for _, beats := range []int{1, 5, 12, 17, 32, 64, 100} {
			sections := PlanSections(4, beats, 4)
			if sections[0].StartBeat != 0 {
				t.Errorf("beats=%d: first section starts at %d", beats, sections[0].StartBeat)
			}
			for i := 1; i < len(sections); i++ {
				if sections[i].StartBeat != sections[i-1].EndBeat {
					t.Errorf("beats=%d: gap between section %d and %d", beats, i-1, i)
				}
			}
			last := sections[len(sections)-1]
			if last.EndBeat < beats {
				t.Errorf("beats=%d: plan ends at %d, does not cover request", beats, last.EndBeat)
			}
			if last.EndBeat%4 != 0 {
				t.Errorf("beats=%d: plan ends mid-bar at %d", beats, last.EndBeat)
			}
		}
	})

	t.Run("MinimumTwoBars", func(t *testing.T) {
		sections := PlanSections(1, 1, 4)
		total := sections[len(sections)-1].EndBeat
		if total != 8 {
			t.Errorf("tiny request should round up to 2 bars (8 beats), got %d", total)
		}
	})

	t.Run("AllButLastHaveTransitions", func(t *testing.T) {
		sections := PlanSections(4, 48, 4)
		for i, s := range sections {
			wantTransition := i < len(sections)-1
			if s.HasTransition != wantTransition {
				t.Errorf("section %d (%s): HasTransition = %v, want %v", i, s.Name, s.HasTransition, wantTransition)
			}
		}
	})

	t.Run("VoiceAssignment", func(t *testing.T) {
		sections := PlanSections(5, 48, 4) // 12 bars: A, B, A', Tutti
		a, b, aPrime := sections[0], sections[1], sections[2]

		if len(a.ActiveVoices) != 2 || a.ActiveVoices[0] != 0 || a.ActiveVoices[1] != 4 {
			t.Errorf("A voices = %v, want [0 4] (lead + last voice as pad)", a.ActiveVoices)
		}
		if len(b.ActiveVoices) != 2 || b.ActiveVoices[0] != 1 || b.ActiveVoices[1] != 3 {
			t.Errorf("B voices = %v, want [1 3]", b.ActiveVoices)
		}
		if len(aPrime.ActiveVoices) != 2 || aPrime.ActiveVoices[0] != 0 || aPrime.ActiveVoices[1] != 2 {
			t.Errorf("A' voices = %v, want [0 2]", aPrime.ActiveVoices)
		}
	})

	t.Run("SingleVoiceBFallsBackToLead", func(t *testing.T) {
		sections := PlanSections(1, 12, 4)
		if v := sections[1].ActiveVoices; len(v) != 1 || v[0] != 0 {
			t.Errorf("B with one voice = %v, want [0]", v)
		}
	})
}
