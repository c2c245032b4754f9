// Package audiotest writes small WAV fixtures for tests.
package audiotest

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"testing"
)

// Sine returns n samples of a sine at hz with the given amplitude.
func Sine(hz, amplitude float64, sampleRate, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*hz*float64(i)/float64(sampleRate))
	}
	return out
}

// WriteWAV writes mono 16-bit PCM samples in [-1, 1] to path.
func WriteWAV(t testing.TB, path string, samples []float64, sampleRate int) {
	t.Helper()

	var data bytes.Buffer
	for _, s := range samples {
		s = math.Max(-1, math.Min(1, s))
		binary.Write(&data, binary.LittleEndian, int16(math.Round(s*32767)))
	}

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+data.Len()))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*2))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(data.Len()))
	buf.Write(data.Bytes())

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("write wav fixture: %v", err)
	}
}
