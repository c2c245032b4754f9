package pitch

import (
	"context"
	"fmt"
	"math"

	apperrors "github.com/yoswag75/Musicify/internal/errors"
)

// Frame is one analysis hop: its position and the estimated fundamental in Hz.
// Hz == 0 means no pitch was detected.
type Frame struct {
	Index int
	Hz    float64
}

// Voiced reports whether a pitch was detected for the frame.
func (f Frame) Voiced() bool {
	return f.Hz > 0
}

// Track is the full ordered frame sequence of one recording.
// Frame i starts at i*Hop seconds.
type Track struct {
	Hop    float64
	Frames []Frame
}

// NewTrack builds a Track from per-hop frequencies, indexing frames in order.
func NewTrack(hop float64, hz []float64) Track {
	frames := make([]Frame, len(hz))
	for i, f := range hz {
		frames[i] = Frame{Index: i, Hz: f}
	}
	return Track{Hop: hop, Frames: frames}
}

// Duration is the time span covered by the frames.
func (t Track) Duration() float64 {
	return float64(len(t.Frames)) * t.Hop
}

// Voiced counts frames with a detected pitch.
func (t Track) Voiced() int {
	n := 0
	for _, f := range t.Frames {
		if f.Voiced() {
			n++
		}
	}
	return n
}

// Validate rejects tracks the segmenter cannot interpret: a non-positive or
// non-finite hop, out-of-order indices, and NaN, infinite or negative frequencies.
func (t Track) Validate() error {
	if !(t.Hop > 0) || math.IsInf(t.Hop, 0) {
		return fmt.Errorf("%w: hop duration must be positive and finite, got %v", apperrors.ErrInvalidFrame, t.Hop)
	}
	for i, f := range t.Frames {
		if f.Index != i {
			return fmt.Errorf("%w: frame %d has index %d", apperrors.ErrInvalidFrame, i, f.Index)
		}
		if err := checkHz(f.Hz); err != nil {
			return fmt.Errorf("%w: frame %d: %v", apperrors.ErrInvalidFrame, i, err)
		}
	}
	return nil
}

func checkHz(hz float64) error {
	switch {
	case math.IsNaN(hz):
		return fmt.Errorf("frequency is NaN")
	case math.IsInf(hz, 0):
		return fmt.Errorf("frequency is infinite")
	case hz < 0:
		return fmt.Errorf("negative frequency %v", hz)
	}
	return nil
}

// Sanitize returns a copy with malformed frequencies mapped to unvoiced and
// indices renumbered in order, along with the number of frames it changed.
func (t Track) Sanitize() (Track, int) {
	out := Track{Hop: t.Hop, Frames: make([]Frame, len(t.Frames))}
	changed := 0
	for i, f := range t.Frames {
		hz := f.Hz
		if checkHz(hz) != nil {
			hz = 0
			changed++
		}
		out.Frames[i] = Frame{Index: i, Hz: hz}
	}
	return out, changed
}

// Source produces a pitch track from a decoded mono WAV file.
type Source interface {
	Name() string
	Track(ctx context.Context, wavPath string) (Track, error)
}
