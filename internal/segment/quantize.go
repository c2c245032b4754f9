package segment

import "math"

const (
	// ReferenceHz is A4, MIDI note 69.
	ReferenceHz    = 440.0
	ReferenceNote  = 69
	MinPitch       = 0
	MaxPitch       = 127
	semitonesPerOc = 12
)

// HzToSemitone maps a positive frequency onto the continuous MIDI note scale.
func HzToSemitone(hz float64) float64 {
	return ReferenceNote + semitonesPerOc*math.Log2(hz/ReferenceHz)
}

// Quantize rounds a continuous semitone value to the nearest note number,
// halves away from zero (68.5 -> 69, 69.5 -> 70), then clamps to [0, 127].
func Quantize(semitone float64) int {
	q := math.Round(semitone)
	if q < MinPitch {
		return MinPitch
	}
	if q > MaxPitch {
		return MaxPitch
	}
	return int(q)
}

// PitchOf is the note number a voiced frame is assigned.
func PitchOf(hz float64) int {
	return Quantize(HzToSemitone(hz))
}
