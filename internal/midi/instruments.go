package midi

import (
	"fmt"
	"sort"
	"strings"

	apperrors "github.com/yoswag75/Musicify/internal/errors"
	"golang.org/x/exp/maps"
)

// Instrument is a General MIDI program with its display name.
type Instrument struct {
	Name    string `json:"name"`
	Program uint8  `json:"program"`
}

func (i Instrument) String() string {
	return i.Name
}

// https://en.wikipedia.org/wiki/General_MIDI#Program_change_events
var gmNames = [128]string{
	"Acoustic Grand Piano", "Bright Acoustic Piano", "Electric Grand Piano", "Honky-Tonk Piano",
	"Electric Piano 1", "Electric Piano 2", "Harpsichord", "Clavinet",
	"Celesta", "Glockenspiel", "Music Box", "Vibraphone",
	"Marimba", "Xylophone", "Tubular Bells", "Dulcimer",
	"Drawbar Organ", "Percussive Organ", "Rock Organ", "Church Organ",
	"Reed Organ", "Accordion", "Harmonica", "Tango Accordion",
	"Acoustic Guitar (Nylon)", "Acoustic Guitar (Steel)", "Electric Guitar (Jazz)", "Electric Guitar (Clean)",
	"Electric Guitar (Muted)", "Overdriven Guitar", "Distortion Guitar", "Guitar Harmonics",
	"Acoustic Bass", "Electric Bass (Finger)", "Electric Bass (Pick)", "Fretless Bass",
	"Slap Bass 1", "Slap Bass 2", "Synth Bass 1", "Synth Bass 2",
	"Violin", "Viola", "Cello", "Contrabass",
	"Tremolo Strings", "Pizzicato Strings", "Orchestral Harp", "Timpani",
	"String Ensemble 1", "String Ensemble 2", "Synth Strings 1", "Synth Strings 2",
	"Choir Aahs", "Voice Oohs", "Synth Voice", "Orchestra Hit",
	"Trumpet", "Trombone", "Tuba", "Muted Trumpet",
	"French Horn", "Brass Section", "Synth Brass 1", "Synth Brass 2",
	"Soprano Sax", "Alto Sax", "Tenor Sax", "Baritone Sax",
	"Oboe", "English Horn", "Bassoon", "Clarinet",
	"Piccolo", "Flute", "Recorder", "Pan Flute",
	"Blown Bottle", "Shakuhachi", "Whistle", "Ocarina",
	"Lead 1 (Square)", "Lead 2 (Sawtooth)", "Lead 3 (Calliope)", "Lead 4 (Chiff)",
	"Lead 5 (Charang)", "Lead 6 (Voice)", "Lead 7 (Fifths)", "Lead 8 (Bass + Lead)",
	"Pad 1 (New Age)", "Pad 2 (Warm)", "Pad 3 (Polysynth)", "Pad 4 (Choir)",
	"Pad 5 (Bowed)", "Pad 6 (Metallic)", "Pad 7 (Halo)", "Pad 8 (Sweep)",
	"FX 1 (Rain)", "FX 2 (Soundtrack)", "FX 3 (Crystal)", "FX 4 (Atmosphere)",
	"FX 5 (Brightness)", "FX 6 (Goblins)", "FX 7 (Echoes)", "FX 8 (Sci-Fi)",
	"Sitar", "Banjo", "Shamisen", "Koto",
	"Kalimba", "Bagpipe", "Fiddle", "Shanai",
	"Tinkle Bell", "Agogo", "Steel Drums", "Woodblock",
	"Taiko Drum", "Melodic Tom", "Synth Drum", "Reverse Cymbal",
	"Guitar Fret Noise", "Breath Noise", "Seashore", "Bird Tweet",
	"Telephone Ring", "Helicopter", "Applause", "Gunshot",
}

// byKey maps a normalized name to its program number.
var byKey = func() map[string]uint8 {
	m := make(map[string]uint8, len(gmNames))
	for program, name := range gmNames {
		m[normalize(name)] = uint8(program)
	}
	return m
}()

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// LookupInstrument resolves a display name case-insensitively.
func LookupInstrument(name string) (Instrument, error) {
	program, ok := byKey[normalize(name)]
	if !ok {
		return Instrument{}, fmt.Errorf("%w: %q", apperrors.ErrUnknownInstrument, name)
	}
	return Instrument{Name: gmNames[program], Program: program}, nil
}

// InstrumentForProgram returns the catalog entry for a program number.
func InstrumentForProgram(program uint8) (Instrument, error) {
	if int(program) >= len(gmNames) {
		return Instrument{}, fmt.Errorf("%w: program %d", apperrors.ErrUnknownInstrument, program)
	}
	return Instrument{Name: gmNames[program], Program: program}, nil
}

// Instruments lists the catalog in program order.
func Instruments() []Instrument {
	programs := maps.Values(byKey)
	sort.Slice(programs, func(i, j int) bool { return programs[i] < programs[j] })

	out := make([]Instrument, 0, len(programs))
	for _, p := range programs {
		out = append(out, Instrument{Name: gmNames[p], Program: p})
	}
	return out
}
