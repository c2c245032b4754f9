package exec

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/yoswag75/Musicify/internal/errors"
)

func TestRunCapturesOutput(t *testing.T) {
	r := NewRunner(nil)
	if _, err := r.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	result, err := r.Run(context.Background(), "sh", "-c", "echo out; echo err 1>&2; exit 0")
	require.NoError(t, err)
	assert.Equal(t, "out\n", result.Stdout)
	assert.Equal(t, "err\n", result.Stderr)
	assert.Equal(t, 0, result.ExitCode)
}

func TestRunReportsExitCode(t *testing.T) {
	r := NewRunner(nil)
	if _, err := r.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	result, err := r.Run(context.Background(), "sh", "-c", "exit 3")
	require.Error(t, err)
	assert.Equal(t, 3, result.ExitCode)
}

func TestRunMissingTool(t *testing.T) {
	r := NewRunner(nil)

	_, err := r.Run(context.Background(), "musicify-definitely-not-a-binary")
	assert.True(t, errors.Is(err, apperrors.ErrToolNotInstalled))

	_, err = r.LookPath("musicify-definitely-not-a-binary")
	assert.True(t, errors.Is(err, apperrors.ErrToolNotInstalled))
}

func TestRunTimeout(t *testing.T) {
	r := NewRunner(nil)
	if _, err := r.LookPath("sleep"); err != nil {
		t.Skip("sleep not available")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := r.Run(ctx, "sleep", "5")
	assert.True(t, errors.Is(err, apperrors.ErrTimeout))
}

func TestTrimStderr(t *testing.T) {
	assert.Equal(t, "c\nd", TrimStderr("a\nb\nc\nd\n", 2))
	assert.Equal(t, "only", TrimStderr("only", 5))
}
