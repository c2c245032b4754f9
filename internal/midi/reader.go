package midi

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gitlab.com/gomidi/midi/v2/smf"
)

// ReadNotes parses a MIDI file written by Encoder back into notes.
// Used by the server to report note counts and by tests.
func ReadNotes(path string) (notes []Note, err error) {
	// smf.ReadFrom can panic on malformed input
	// https://github.com/gomidi/midi/issues/20
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(fmt.Sprint(r))
		}
	}()

	dat, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read MIDI file: %w", err)
	}
	s, err := smf.ReadFrom(bytes.NewReader(dat))
	if err != nil {
		return nil, fmt.Errorf("parse MIDI file: %w", err)
	}
	return decode(s), nil
}

func decode(s *smf.SMF) []Note {
	resolution := float64(TicksPerQuarter)
	if mt, ok := s.TimeFormat.(smf.MetricTicks); ok {
		resolution = float64(mt)
	}
	secondsPerTick := 60.0 / TempoBPM / resolution

	var notes []Note
	for _, track := range s.Tracks {
		var (
			abs        uint32
			instrument Instrument
			open       = map[uint8]int{}
		)
		for _, ev := range track {
			abs += ev.Delta
			var ch, key, vel, program uint8

			switch {
			case ev.Message.GetProgramChange(&ch, &program):
				instrument, _ = InstrumentForProgram(program)
			case ev.Message.GetNoteOn(&ch, &key, &vel) && vel > 0:
				open[key] = len(notes)
				notes = append(notes, Note{
					Pitch:      int(key),
					Start:      float64(abs) * secondsPerTick,
					Velocity:   int(vel),
					Instrument: instrument,
				})
			case ev.Message.GetNoteOff(&ch, &key, &vel) || ev.Message.GetNoteOn(&ch, &key, &vel):
				if idx, ok := open[key]; ok {
					notes[idx].End = float64(abs) * secondsPerTick
					delete(open, key)
				}
			}
		}
	}
	return notes
}
