package score

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/yoswag75/Musicify/internal/errors"
	"github.com/yoswag75/Musicify/internal/exec"
)

type fakeCommander struct {
	installed map[string]bool
	write     bool
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
		return &exec.Result{ExitCode: 1, Stderr: "cannot read file"}, f.err
	}
	if f.write {
		out := args[len(args)-1]
		if err := os.WriteFile(out, []byte("%PDF-1.4"), 0644); err != nil {
			return nil, err
		}
	}
	return &exec.Result{}, nil
}

func TestRenderSuccess(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "song.pdf")
	fc := &fakeCommander{installed: map[string]bool{"musescore": true}, write: true}

	err := NewMuseScore(fc, "", time.Minute).Render(context.Background(), "in.mid", out)
	require.NoError(t, err)
	assert.Equal(t, []string{"/opt/bin/musescore", "in.mid", "-o", out}, fc.args)
}

func TestRenderConfiguredBinary(t *testing.T) {
	fc := &fakeCommander{installed: map[string]bool{"/custom/mscore": true}}
	path, err := NewMuseScore(fc, "/custom/mscore", 0).Locate()
	require.NoError(t, err)
	assert.Equal(t, "/opt/bin//custom/mscore", path)
}

func TestRenderFailuresAreRecoverable(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "song.pdf")

	cases := map[string]*fakeCommander{
		"NotInstalled": {installed: map[string]bool{}},
		"NonZeroExit":  {installed: map[string]bool{"mscore": true}, err: errors.New("exit status 1")},
		"NoOutput":     {installed: map[string]bool{"mscore": true}},
	}
	for name, fc := range cases {
		t.Run(name, func(t *testing.T) {
			err := NewMuseScore(fc, "", time.Minute).Render(context.Background(), "in.mid", out)
			require.Error(t, err)
			assert.True(t, apperrors.IsRecoverable(err), "got %v", err)
		})
	}
}
