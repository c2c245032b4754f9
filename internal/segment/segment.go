// Package segment turns a frame-by-frame pitch track into discrete note events.
//
// The segmenter is a single-pass state machine with one open note at most.
// A voiced frame opens a note, a frame quantizing to the same pitch extends it,
// a different pitch closes it and opens the next one at the same instant, and
// an unvoiced frame closes it. Whatever is still open when the frames run out
// is closed at the end of the last frame. Consecutive notes therefore never
// overlap, and no note outlasts the track.
package segment

import (
	"fmt"
	"math"

	apperrors "github.com/yoswag75/Musicify/internal/errors"
	"github.com/yoswag75/Musicify/internal/midi"
	"github.com/yoswag75/Musicify/internal/pitch"
)

// Options are constant for every note of one run.
type Options struct {
	Instrument midi.Instrument
	Velocity   int // 0 means midi.DefaultVelocity
}

// Stats summarizes one segmentation pass.
type Stats struct {
	Frames         int
	VoicedFrames   int
	UnvoicedFrames int
	Notes          int
	NoteSeconds    float64
}

// Segmenter is the streaming form: Push frames in index order, then Finish.
// It is not safe for concurrent use.
type Segmenter struct {
	hop  float64
	opts Options

	sounding bool
	pitch    int
	start    float64

	frames   int
	finished bool
	notes    []midi.Note
	stats    Stats
}

// NewSegmenter creates a segmenter for frames spaced hop seconds apart.
func NewSegmenter(hop float64, opts Options) (*Segmenter, error) {
	if !(hop > 0) || math.IsInf(hop, 0) {
		return nil, fmt.Errorf("%w: hop duration must be positive and finite, got %v", apperrors.ErrInvalidFrame, hop)
	}
	if opts.Velocity == 0 {
		opts.Velocity = midi.DefaultVelocity
	}
	if opts.Velocity < 1 || opts.Velocity > 127 {
		return nil, fmt.Errorf("velocity must be within 1-127, got %d", opts.Velocity)
	}
	return &Segmenter{hop: hop, opts: opts}, nil
}

// Push consumes the next frame. Frames must arrive with consecutive indices
// starting at 0 and carry a finite, non-negative frequency.
func (s *Segmenter) Push(f pitch.Frame) error {
	if s.finished {
		return fmt.Errorf("segmenter already finished")
	}
	if f.Index != s.frames {
		return fmt.Errorf("%w: expected frame %d, got %d", apperrors.ErrInvalidFrame, s.frames, f.Index)
	}
	if math.IsNaN(f.Hz) || math.IsInf(f.Hz, 0) || f.Hz < 0 {
		return fmt.Errorf("%w: frame %d has frequency %v", apperrors.ErrInvalidFrame, f.Index, f.Hz)
	}

	now := float64(f.Index) * s.hop
	s.frames++

	if !f.Voiced() {
		s.stats.UnvoicedFrames++
		if s.sounding {
			s.emit(now)
			s.sounding = false
		}
		return nil
	}

	s.stats.VoicedFrames++
	q := PitchOf(f.Hz)

	switch {
	case !s.sounding:
		s.open(q, now)
	case q != s.pitch:
		s.emit(now)
		s.open(q, now)
	}
	return nil
}

// Finish closes any open note at the end of the last frame and returns all notes.
// Calling it again returns the same notes.
func (s *Segmenter) Finish() []midi.Note {
	if !s.finished {
		if s.sounding {
			s.emit(float64(s.frames) * s.hop)
			s.sounding = false
		}
		s.finished = true
		s.stats.Frames = s.frames
	}
	return s.notes
}

// Stats reports counters for the frames pushed so far.
func (s *Segmenter) Stats() Stats {
	st := s.stats
	st.Frames = s.frames
	return st
}

func (s *Segmenter) open(p int, at float64) {
	s.sounding = true
	s.pitch = p
	s.start = at
}

// emit closes the open note at end; a note that would have no duration is dropped.
func (s *Segmenter) emit(end float64) {
	if end <= s.start {
		return
	}
	s.notes = append(s.notes, midi.Note{
		Pitch:      s.pitch,
		Start:      s.start,
		End:        end,
		Velocity:   s.opts.Velocity,
		Instrument: s.opts.Instrument,
	})
	s.stats.Notes++
	s.stats.NoteSeconds += end - s.start
}

// Segment runs the whole track through a Segmenter. The track is validated
// first, so malformed input is rejected before any note is produced.
func Segment(track pitch.Track, opts Options) ([]midi.Note, Stats, error) {
	if err := track.Validate(); err != nil {
		return nil, Stats{}, err
	}

	seg, err := NewSegmenter(track.Hop, opts)
	if err != nil {
		return nil, Stats{}, err
	}
	for _, f := range track.Frames {
		if err := seg.Push(f); err != nil {
			return nil, Stats{}, err
		}
	}
	notes := seg.Finish()
	return notes, seg.Stats(), nil
}
