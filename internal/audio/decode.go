package audio

import (
	"context"
	"fmt"
	"os"
	"strconv"

	apperrors "github.com/yoswag75/Musicify/internal/errors"
	"github.com/yoswag75/Musicify/internal/exec"
)

// Decoder converts an input recording into mono PCM WAV at a fixed sample rate.
type Decoder interface {
	Decode(ctx context.Context, inputPath, wavPath string) error
}

// FFmpegDecoder handles decoding and resampling using ffmpeg
type FFmpegDecoder struct {
	bin        string
	sampleRate int
	runner     exec.Commander
}

// NewFFmpegDecoder creates a new decoder
func NewFFmpegDecoder(runner exec.Commander, bin string, sampleRate int) *FFmpegDecoder {
	if bin == "" {
		bin = "ffmpeg"
	}
	return &FFmpegDecoder{bin: bin, sampleRate: sampleRate, runner: runner}
}

// Decode writes a mono 16-bit WAV of inputPath to wavPath
func (d *FFmpegDecoder) Decode(ctx context.Context, inputPath, wavPath string) error {
	if _, err := d.runner.LookPath(d.bin); err != nil {
		return apperrors.NewProcessError(d.bin, apperrors.StageDecode, -1, "", err)
	}

	result, err := d.runner.Run(ctx, d.bin,
		"-hide_banner", "-loglevel", "error", "-y",
		"-i", inputPath,
		"-ac", "1",
		"-ar", strconv.Itoa(d.sampleRate),
		"-c:a", "pcm_s16le",
		"-f", "wav",
		wavPath,
	)
	if err != nil {
		exitCode, stderr := -1, ""
		if result != nil {
			exitCode, stderr = result.ExitCode, exec.TrimStderr(result.Stderr, 5)
		}
		return apperrors.NewProcessError(d.bin, apperrors.StageDecode, exitCode, stderr, err)
	}

	// A bare 44-byte header means ffmpeg found no audio stream.
	info, err := os.Stat(wavPath)
	if err != nil {
		return apperrors.NewProcessError(d.bin, apperrors.StageDecode, 0, "",
			fmt.Errorf("%w: decoder produced no output", apperrors.ErrCorruptedFile))
	}
	if info.Size() <= 44 {
		return apperrors.NewProcessError(d.bin, apperrors.StageDecode, 0, "",
			fmt.Errorf("%w: decoded audio is empty", apperrors.ErrCorruptedFile))
	}
	return nil
}
