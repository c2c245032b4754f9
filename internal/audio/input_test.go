package audio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoswag75/Musicify/internal/audio/audiotest"
	apperrors "github.com/yoswag75/Musicify/internal/errors"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestValidateInputDetectsMagicBytes(t *testing.T) {
	wav := filepath.Join(t.TempDir(), "take.bin")
	audiotest.WriteWAV(t, wav, audiotest.Sine(440, 0.5, 8000, 80), 8000)

	tests := []struct {
		name string
		path string
		want Format
	}{
		{"wav", wav, FormatWAV},
		{"id3 tag", writeFile(t, "a.bin", []byte("ID3\x04\x00\x00\x00\x00\x00\x00")), FormatMP3},
		{"mpeg frame sync", writeFile(t, "b.bin", []byte{0xFF, 0xFB, 0x90, 0x64, 0x00, 0x00}), FormatMP3},
		{"flac", writeFile(t, "c.bin", []byte("fLaC\x00\x00\x00\x22")), FormatFLAC},
		{"ogg", writeFile(t, "d.bin", []byte("OggS\x00\x02\x00\x00")), FormatOGG},
		{"mp4 container", writeFile(t, "e.bin", []byte("\x00\x00\x00\x20ftypM4A \x00\x00")), FormatM4A},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateInput(tt.path, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateInputFallsBackToExtension(t *testing.T) {
	header := []byte("\x00\x01\x02\x03\x04\x05\x06\x07")

	for ext, want := range map[string]Format{
		".wav":  FormatWAV,
		".MP3":  FormatMP3,
		".flac": FormatFLAC,
		".ogg":  FormatOGG,
		".m4a":  FormatM4A,
	} {
		t.Run(ext, func(t *testing.T) {
			got, err := ValidateInput(writeFile(t, "song"+ext, header), 0)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestValidateInputRejects(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		path    string
		maxSize int64
		want    error
	}{
		{"empty path", "", 0, apperrors.ErrMissingInput},
		{"missing file", filepath.Join(dir, "nope.wav"), 0, apperrors.ErrFileNotFound},
		{"directory", dir, 0, apperrors.ErrUnsupportedFormat},
		{"empty file", writeFile(t, "empty.wav", nil), 0, apperrors.ErrCorruptedFile},
		{"short header", writeFile(t, "short.wav", []byte("RI")), 0, apperrors.ErrCorruptedFile},
		{"too large", writeFile(t, "big.wav", make([]byte, 2048)), 1024, apperrors.ErrFileTooLarge},
		{"not audio", writeFile(t, "notes.txt", []byte("hello world")), 0, apperrors.ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateInput(tt.path, tt.maxSize)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, FormatUnknown, got)
		})
	}
}

func TestValidateInputSizeLimitIsInclusive(t *testing.T) {
	path := writeFile(t, "exact.mp3", append([]byte("ID3"), make([]byte, 1021)...))
	got, err := ValidateInput(path, 1024)
	require.NoError(t, err)
	assert.Equal(t, FormatMP3, got)
}

func TestSongName(t *testing.T) {
	tests := map[string]string{
		"/music/melody.wav":   "melody",
		"take.1.mp3":          "take",
		"noext":               "noext",
		"/tmp/.hidden":        ".hidden",
		".hidden.wav":         ".hidden.wav",
		"dir.d/Song Name.m4a": "Song Name",
	}
	for in, want := range tests {
		assert.Equal(t, want, SongName(in), in)
	}
}
