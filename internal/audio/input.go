package audio

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/yoswag75/Musicify/internal/errors"
)

const (
	MaxFileSize = 100 * 1024 * 1024 // 100MB
)

// Format represents an audio file format
type Format string

const (
	FormatWAV     Format = "wav"
	FormatMP3     Format = "mp3"
	FormatFLAC    Format = "flac"
	FormatOGG     Format = "ogg"
	FormatM4A     Format = "m4a"
	FormatUnknown Format = "unknown"
)

// ValidateInput checks if the input file is valid for processing.
// maxSize <= 0 uses MaxFileSize.
func ValidateInput(path string, maxSize int64) (Format, error) {
	if path == "" {
		return FormatUnknown, fmt.Errorf("%w: audio file path", apperrors.ErrMissingInput)
	}
	if maxSize <= 0 {
		maxSize = MaxFileSize
	}

	// Check file exists
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return FormatUnknown, fmt.Errorf("%w: %s", apperrors.ErrFileNotFound, path)
	}
	if err != nil {
		return FormatUnknown, fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		return FormatUnknown, fmt.Errorf("%w: %s is a directory", apperrors.ErrUnsupportedFormat, path)
	}

	// Check file size
	if info.Size() > maxSize {
		return FormatUnknown, fmt.Errorf("%w: maximum size is %dMB", apperrors.ErrFileTooLarge, maxSize/(1024*1024))
	}
	if info.Size() == 0 {
		return FormatUnknown, fmt.Errorf("%w: %s is empty", apperrors.ErrCorruptedFile, path)
	}

	// Check format by magic bytes
	format, err := detectFormat(path)
	if err != nil {
		return FormatUnknown, err
	}

	if format == FormatUnknown {
		return FormatUnknown, fmt.Errorf("%w: please provide a WAV, MP3, FLAC, OGG or M4A file", apperrors.ErrUnsupportedFormat)
	}

	return format, nil
}

// detectFormat checks file magic bytes to determine audio format
func detectFormat(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown, fmt.Errorf("%w: %v", apperrors.ErrCorruptedFile, err)
	}
	defer f.Close()

	// Read first 12 bytes for magic detection
	header := make([]byte, 12)
	n, err := f.Read(header)
	if err != nil || n < 4 {
		return FormatUnknown, fmt.Errorf("%w: could not read file header", apperrors.ErrCorruptedFile)
	}
	header = header[:n]

	switch {
	case bytes.HasPrefix(header, []byte("RIFF")) && n >= 12 && string(header[8:12]) == "WAVE":
		return FormatWAV, nil
	case bytes.HasPrefix(header, []byte("ID3")):
		return FormatMP3, nil
	case header[0] == 0xFF && (header[1]&0xE0) == 0xE0:
		return FormatMP3, nil
	case bytes.HasPrefix(header, []byte("fLaC")):
		return FormatFLAC, nil
	case bytes.HasPrefix(header, []byte("OggS")):
		return FormatOGG, nil
	case n >= 8 && string(header[4:8]) == "ftyp":
		return FormatM4A, nil
	}

	// Fallback: check extension
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return FormatWAV, nil
	case ".mp3":
		return FormatMP3, nil
	case ".flac":
		return FormatFLAC, nil
	case ".ogg":
		return FormatOGG, nil
	case ".m4a":
		return FormatM4A, nil
	}

	return FormatUnknown, nil
}

// SongName is the input file name up to its first dot, e.g. "take.1.mp3" -> "take".
func SongName(path string) string {
	base := filepath.Base(path)
	if i := strings.Index(base, "."); i > 0 {
		return base[:i]
	}
	return base
}
