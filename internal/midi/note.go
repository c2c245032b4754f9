package midi

import "fmt"

// DefaultVelocity is the constant intensity applied to every note.
const DefaultVelocity = 100

// Note represents a single MIDI note event.
// End is always after Start; the segmenter never emits zero-length notes.
type Note struct {
	Pitch      int        `json:"pitch"`
	Start      float64    `json:"start"`
	End        float64    `json:"end"`
	Velocity   int        `json:"velocity"`
	Instrument Instrument `json:"instrument"`
}

// Duration in seconds
func (n Note) Duration() float64 {
	return n.End - n.Start
}

func (n Note) String() string {
	return fmt.Sprintf("%s [%.3fs-%.3fs] vel=%d", NoteName(n.Pitch), n.Start, n.End, n.Velocity)
}

var noteNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName returns the scientific pitch name of a MIDI note number, e.g. 60 -> C4.
func NoteName(pitch int) string {
	octave := pitch/12 - 1
	return fmt.Sprintf("%s%d", noteNames[pitch%12], octave)
}
