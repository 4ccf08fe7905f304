package music

import (
	"fmt"
	"strings"
)

// Note is a single scheduled sound event. Notes are immutable values:
// created by the composer, consumed by the renderer.
type Note struct {
	Start    float64 // seconds from composition start
	Duration float64 // seconds, always > 0 for audible notes
	Pitch    int     // MIDI pitch, clamped to [MinPitch, MaxPitch] for pitched voices
	Velocity float64 // 0.0-1.0
	Track    string  // voice track ("v0_pluck") or reserved effect track ("fx_swell")
	Pan      float64 // -1.0 (left) to 1.0 (right)
}

// End returns the time the note stops sounding.
func (n Note) End() float64 {
	return n.Start + n.Duration
}

// VoiceTrack builds the track identifier for a composed voice.
func VoiceTrack(voiceIndex int, instrument string) string {
	return fmt.Sprintf("v%d_%s", voiceIndex, instrument)
}

// EffectTrack builds the reserved track identifier for transition effects.
func EffectTrack(kind string) string {
	return "fx_" + kind
}

// TrackInstrument extracts the instrument name from a track identifier.
// Both voice tracks ("v3_bell") and effect tracks ("fx_kick") resolve to
// their trailing instrument name.
func TrackInstrument(track string) string {
	if i := strings.Index(track, "_"); i >= 0 {
		return track[i+1:]
	}
	return track
}

// IsEffectTrack reports whether a track carries transition/drum effects
// rather than a pitched voice.
func IsEffectTrack(track string) bool {
	return strings.HasPrefix(track, "fx_")
}
