package audio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/yoswag75/Musicify/internal/errors"
	"github.com/yoswag75/Musicify/internal/exec"
)

type fakeCommander struct {
	installed map[string]bool
	output    []byte // written to the last argument when non-nil
	err       error
	args      []string
}

func (f *fakeCommander) LookPath(name string) (string, error) {
	if f.installed[name] {
		return "/opt/bin/" + name, nil
	}
	return "", apperrors.ErrToolNotInstalled
}

func (f *fakeCommander) Run(ctx context.Context, name string, args ...string) (*exec.Result, error) {
	f.args = append([]string{name}, args...)
	if f.err != nil {
		return &exec.Result{ExitCode: 1, Stderr: "in.mp3: Invalid data found when processing input\n"}, f.err
	}
	if f.output != nil {
		if err := os.WriteFile(args[len(args)-1], f.output, 0644); err != nil {
			return nil, err
		}
	}
	return &exec.Result{}, nil
}

func decodeStageError(t *testing.T, err error) *apperrors.ProcessError {
	t.Helper()
	var pe *apperrors.ProcessError
	require.True(t, errors.As(err, &pe), "got %v", err)
	assert.Equal(t, apperrors.StageDecode, pe.Stage)
	assert.False(t, apperrors.IsRecoverable(err))
	return pe
}

func TestDecodeArguments(t *testing.T) {
	out := filepath.Join(t.TempDir(), "decoded.wav")
	fc := &fakeCommander{installed: map[string]bool{"ffmpeg": true}, output: make([]byte, 1024)}

	err := NewFFmpegDecoder(fc, "", 16000).Decode(context.Background(), "in.mp3", out)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"ffmpeg", "-hide_banner", "-loglevel", "error", "-y",
		"-i", "in.mp3",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		"-f", "wav",
		out,
	}, fc.args)
}

func TestDecodeConfiguredBinary(t *testing.T) {
	out := filepath.Join(t.TempDir(), "decoded.wav")
	fc := &fakeCommander{installed: map[string]bool{"/usr/local/bin/ffmpeg": true}, output: make([]byte, 1024)}

	require.NoError(t, NewFFmpegDecoder(fc, "/usr/local/bin/ffmpeg", 22050).Decode(context.Background(), "in.wav", out))
	require.NotEmpty(t, fc.args)
	assert.Equal(t, "/usr/local/bin/ffmpeg", fc.args[0])
}

func TestDecodeMissingTool(t *testing.T) {
	fc := &fakeCommander{installed: map[string]bool{}}

	err := NewFFmpegDecoder(fc, "", 22050).Decode(context.Background(), "in.mp3", filepath.Join(t.TempDir(), "out.wav"))
	pe := decodeStageError(t, err)
	assert.Equal(t, "ffmpeg", pe.Tool)
	assert.Equal(t, -1, pe.ExitCode)
	assert.ErrorIs(t, err, apperrors.ErrToolNotInstalled)
	assert.Nil(t, fc.args, "decoder must not run when ffmpeg is missing")
}

func TestDecodeToolFailure(t *testing.T) {
	fc := &fakeCommander{installed: map[string]bool{"ffmpeg": true}, err: errors.New("exit status 1")}

	err := NewFFmpegDecoder(fc, "", 22050).Decode(context.Background(), "in.mp3", filepath.Join(t.TempDir(), "out.wav"))
	pe := decodeStageError(t, err)
	assert.Equal(t, 1, pe.ExitCode)
	assert.Equal(t, "in.mp3: Invalid data found when processing input", pe.Stderr)
}

func TestDecodeUnusableOutput(t *testing.T) {
	tests := map[string][]byte{
		"no output":   nil,
		"header only": make([]byte, 44),
	}
	for name, output := range tests {
		t.Run(name, func(t *testing.T) {
			fc := &fakeCommander{installed: map[string]bool{"ffmpeg": true}, output: output}

			err := NewFFmpegDecoder(fc, "", 22050).Decode(context.Background(), "in.mp3", filepath.Join(t.TempDir(), "out.wav"))
			decodeStageError(t, err)
			assert.ErrorIs(t, err, apperrors.ErrCorruptedFile)
		})
	}
}
