package midi

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const (
	// TicksPerQuarter is the SMF time resolution.
	TicksPerQuarter = 480
	// TempoBPM is fixed; tempo inference is not attempted, so note times map 1:1 to wall-clock seconds.
	TempoBPM = 120
)

// event is a MIDI message at an absolute tick
type event struct {
	tick uint32
	off  bool
	msg  smf.Message
}

// Encoder turns note events into a Standard MIDI File with one instrument track.
type Encoder struct {
	Channel uint8
}

// NewEncoder creates an encoder writing on channel 0
func NewEncoder() *Encoder {
	return &Encoder{}
}

// SecondsToTicks converts a time in seconds to SMF ticks at the fixed tempo.
func SecondsToTicks(seconds float64) uint32 {
	if seconds <= 0 {
		return 0
	}
	return uint32(math.Round(seconds * TempoBPM / 60 * TicksPerQuarter))
}

// Build assembles the SMF without writing it.
func (e *Encoder) Build(notes []Note, instrument Instrument) (*smf.SMF, error) {
	if _, err := validInstrument(instrument); err != nil {
		return nil, err
	}
	if e.Channel > 15 {
		return nil, fmt.Errorf("invalid MIDI channel %d", e.Channel)
	}

	s := smf.NewSMF1()
	s.TimeFormat = smf.MetricTicks(TicksPerQuarter)

	var tempo smf.Track
	tempo = append(tempo, smf.Event{Delta: 0, Message: smf.MetaTrackSequenceName("Tempo")})
	tempo = append(tempo, smf.Event{Delta: 0, Message: smf.MetaTempo(TempoBPM)})
	tempo = append(tempo, smf.Event{Delta: 0, Message: smf.EOT})
	if err := s.Add(tempo); err != nil {
		return nil, fmt.Errorf("add tempo track: %w", err)
	}

	if err := s.Add(e.noteTrack(notes, instrument)); err != nil {
		return nil, fmt.Errorf("add instrument track: %w", err)
	}

	return s, nil
}

// noteTrack builds the instrument track: name, program change, notes, end of track.
func (e *Encoder) noteTrack(notes []Note, instrument Instrument) smf.Track {
	var track smf.Track
	track = append(track, smf.Event{Delta: 0, Message: smf.MetaTrackSequenceName(instrument.Name)})
	track = append(track, smf.Event{Delta: 0, Message: smf.Message(gomidi.ProgramChange(e.Channel, instrument.Program))})

	events := make([]event, 0, len(notes)*2)
	for _, n := range notes {
		key := uint8(clamp(n.Pitch, 0, 127))
		vel := uint8(clamp(n.Velocity, 1, 127))

		start := SecondsToTicks(n.Start)
		end := SecondsToTicks(n.End)
		if end <= start {
			end = start + 1
		}

		events = append(events,
			event{tick: start, msg: smf.Message(gomidi.NoteOn(e.Channel, key, vel))},
			event{tick: end, off: true, msg: smf.Message(gomidi.NoteOff(e.Channel, key))},
		)
	}

	// Note-offs go ahead of note-ons at the same tick so back-to-back notes never overlap.
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].tick == events[j].tick {
			return events[i].off && !events[j].off
		}
		return events[i].tick < events[j].tick
	})

	var last uint32
	for _, ev := range events {
		track = append(track, smf.Event{Delta: ev.tick - last, Message: ev.msg})
		last = ev.tick
	}

	track = append(track, smf.Event{Delta: 0, Message: smf.EOT})
	return track
}

// WriteTo encodes the notes and writes the file to w.
func (e *Encoder) WriteTo(w io.Writer, notes []Note, instrument Instrument) error {
	s, err := e.Build(notes, instrument)
	if err != nil {
		return err
	}
	if _, err := s.WriteTo(w); err != nil {
		return fmt.Errorf("error writing MIDI file: %w", err)
	}
	return nil
}

// WriteFile encodes the notes into a new file at path.
func (e *Encoder) WriteFile(path string, notes []Note, instrument Instrument) error {
	// Validate before creating the file so a bad instrument leaves nothing behind.
	s, err := e.Build(notes, instrument)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create MIDI file: %w", err)
	}
	if _, err := s.WriteTo(f); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("error writing MIDI file: %w", err)
	}
	return f.Close()
}

// validInstrument checks the instrument against the catalog.
func validInstrument(instrument Instrument) (Instrument, error) {
	known, err := LookupInstrument(instrument.Name)
	if err != nil {
		return Instrument{}, err
	}
	if known.Program != instrument.Program {
		return Instrument{}, fmt.Errorf("instrument %q has program %d, got %d", known.Name, known.Program, instrument.Program)
	}
	return known, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
