package compose

import "math"

// SectionName labels the structural role of a section
type SectionName string

const (
	SectionA      SectionName = "A"
	SectionB      SectionName = "B"
	SectionAPrime SectionName = "A'"
	SectionTutti  SectionName = "Tutti"
)

// Section is a contiguous beat range with its own active-voice subset
// and density multiplier. Sections tile [0, totalBeats) exactly.
type Section struct {
	Name          SectionName
	StartBeat     int // inclusive
	EndBeat       int // exclusive
	ActiveVoices  []int
	Density       float64 // multiplier on per-voice activity, (0,1.2]
	HasTransition bool    // trailing fill/swell before the next section
}

// Beats returns the section length in beats.
func (s Section) Beats() int {
	return s.EndBeat - s.StartBeat
}

// barSpan allocates a number of bars to a named section during planning.
type barSpan struct {
	name SectionName
	bars int
}

// PlanSections partitions the requested beat count into the piece's
// macro-structure. Total beats are rounded up to whole bars (bar length
// = meter numerator, minimum 2 bars). The plan depends on bar count:
//
//	<= 3 bars:  A, B              (A gets the larger half when odd)
//	4-8 bars:   A, B, Tutti       (each ~total/3, remainder to Tutti)
//	> 8 bars:   A, B, A', Tutti   (each ~total/4, remainder to Tutti)
//
// Voice assignment is keyed to voice rank by color proportion (index 0
// is the most dominant color). Every section except the last is flagged
// with a trailing transition.
func PlanSections(voiceCount, totalBeats, beatsPerBar int) []Section {
	if beatsPerBar < 1 {
		beatsPerBar = 4
	}
	bars := int(math.Ceil(float64(totalBeats) / float64(beatsPerBar)))
	if bars < 2 {
		bars = 2
	}

	var spans []barSpan
	switch {
	case bars <= 3:
		aBars := (bars + 1) / 2
		spans = []barSpan{{SectionA, aBars}, {SectionB, bars - aBars}}
	case bars <= 8:
		each := bars / 3
		spans = []barSpan{{SectionA, each}, {SectionB, each}, {SectionTutti, bars - 2*each}}
	default:
		each := bars / 4
		spans = []barSpan{{SectionA, each}, {SectionB, each}, {SectionAPrime, each}, {SectionTutti, bars - 3*each}}
	}

	sections := make([]Section, 0, len(spans))
	beat := 0
	for _, span := range spans {
		end := beat + span.bars*beatsPerBar
		s := Section{
			Name:      span.name,
			StartBeat: beat,
			EndBeat:   end,
		}
		s.ActiveVoices, s.Density = sectionVoicing(span.name, voiceCount)
		sections = append(sections, s)
		beat = end
	}

	for i := range sections[:len(sections)-1] {
		sections[i].HasTransition = true
	}

	return sections
}

// sectionVoicing returns the active voice indices and density multiplier
// for a section. Voices are ranked by descending color proportion, so
// index 0 is the dominant voice and the last index the least dominant
// (used as a pad).
func sectionVoicing(name SectionName, voiceCount int) ([]int, float64) {
	if voiceCount < 1 {
		return nil, 1.0
	}

	switch name {
	case SectionA:
		voices := []int{0}
		if voiceCount >= 4 {
			voices = append(voices, voiceCount-1) // least dominant color as pad
		}
		return voices, 1.0
	case SectionB:
		lead := 1
		if voiceCount == 1 {
			lead = 0
		}
		voices := []int{lead}
		if voiceCount >= 5 {
			voices = append(voices, voiceCount-2)
		}
		return voices, 1.0
	case SectionAPrime:
		voices := []int{0}
		if voiceCount >= 3 {
			voices = append(voices, 2) // third voice for variation
		}
		return voices, 1.2
	case SectionTutti:
		voices := make([]int, voiceCount)
		for i := range voices {
			voices[i] = i
		}
		return voices, 0.6
	}
	return []int{0}, 1.0
}
