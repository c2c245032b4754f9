package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/yoswag75/Musicify/internal/errors"
)

func TestLoadDefaults(t *testing.T) {
	s, err := Load()
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal("ffmpeg", s.FFmpegBin)
	assert.Equal("aubio", s.AubioBin)
	assert.Equal(22050, s.SampleRate)
	assert.Equal(512, s.HopLength)
	assert.Equal(100, s.Velocity)
	assert.Equal(2*time.Minute, s.RenderTimeout)
	assert.InDelta(512.0/22050.0, s.HopDuration(), 1e-12)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("MUSICIFY_MUSESCORE_BIN", "/opt/mscore")
	t.Setenv("MUSICIFY_HOP_LENGTH", "256")
	t.Setenv("MUSICIFY_TRACKER", "fft")
	t.Setenv("MUSICIFY_RENDER_TIMEOUT", "30s")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/opt/mscore", s.MuseScoreBin)
	assert.Equal(t, 256, s.HopLength)
	assert.Equal(t, "fft", s.Tracker)
	assert.Equal(t, 30*time.Second, s.RenderTimeout)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("MUSICIFY_VELOCITY", "200")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base, err := Load()
	require.NoError(t, err)

	cases := map[string]func(*Settings){
		"zero sample rate": func(s *Settings) { s.SampleRate = 0 },
		"zero hop":         func(s *Settings) { s.HopLength = 0 },
		"small window":     func(s *Settings) { s.WindowSize = s.HopLength - 1 },
		"inverted range":   func(s *Settings) { s.MinFreq, s.MaxFreq = 500, 100 },
		"unknown tracker":  func(s *Settings) { s.Tracker = "crepe" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			s := base
			mutate(&s)
			assert.Error(t, s.Validate())
		})
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "batch.yaml")
	data := `
output_dir: out
instrument: Flute
parallel: 3
jobs:
  - input: a.mp3
  - input: /abs/b.wav
    instrument: Violin
    output_dir: /elsewhere
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	m, err := LoadManifest(path)
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal(3, m.Parallel)
	assert.Len(m.Jobs, 2)

	assert.Equal(filepath.Join(dir, "a.mp3"), m.Jobs[0].Input)
	assert.Equal("Flute", m.Jobs[0].Instrument)
	assert.Equal(filepath.Join(dir, "out"), m.Jobs[0].OutputDir)

	assert.Equal("/abs/b.wav", m.Jobs[1].Input)
	assert.Equal("Violin", m.Jobs[1].Instrument)
	assert.Equal("/elsewhere", m.Jobs[1].OutputDir)
}

func TestLoadManifestErrors(t *testing.T) {
	dir := t.TempDir()

	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0644))
		return p
	}

	t.Run("NoJobs", func(t *testing.T) {
		_, err := LoadManifest(write("empty.yaml", "output_dir: out\n"))
		assert.True(t, errors.Is(err, apperrors.ErrMissingInput))
	})

	t.Run("MissingInstrument", func(t *testing.T) {
		_, err := LoadManifest(write("noinst.yaml", "output_dir: out\njobs:\n  - input: a.mp3\n"))
		assert.True(t, errors.Is(err, apperrors.ErrMissingInput))
	})

	t.Run("DefaultParallel", func(t *testing.T) {
		m, err := LoadManifest(write("ok.yaml", "output_dir: out\ninstrument: Oboe\njobs:\n  - input: a.mp3\n"))
		require.NoError(t, err)
		assert.Equal(t, 1, m.Parallel)
	})

	t.Run("BadYAML", func(t *testing.T) {
		_, err := LoadManifest(write("bad.yaml", "jobs: [:\n"))
		assert.Error(t, err)
	})

	t.Run("DuplicateTarget", func(t *testing.T) {
		body := `
output_dir: out
instrument: Flute
jobs:
  - input: takes/song.wav
  - input: song.mp3
    instrument: flute
`
		_, err := LoadManifest(write("dup.yaml", body))
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrDuplicateOutput))
		assert.Contains(t, err.Error(), "jobs 1 and 2")
	})

	t.Run("SameSongDifferentTargets", func(t *testing.T) {
		body := `
output_dir: out
jobs:
  - input: song.wav
    instrument: Flute
  - input: song.wav
    instrument: Violin
  - input: song.wav
    instrument: Flute
    output_dir: other
`
		m, err := LoadManifest(write("distinct.yaml", body))
		require.NoError(t, err)
		assert.Len(t, m.Jobs, 3)
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := LoadManifest(filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
	})
}
