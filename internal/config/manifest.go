package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yoswag75/Musicify/internal/audio"
	apperrors "github.com/yoswag75/Musicify/internal/errors"
	"github.com/yoswag75/Musicify/internal/midi"
	"gopkg.in/yaml.v3"
)

// Manifest describes a batch of conversions.
type Manifest struct {
	OutputDir  string        `yaml:"output_dir"`
	Instrument string        `yaml:"instrument"`
	Parallel   int           `yaml:"parallel"`
	Jobs       []ManifestJob `yaml:"jobs"`
}

// ManifestJob is one entry of a Manifest. Empty fields inherit the manifest defaults.
type ManifestJob struct {
	Input      string `yaml:"input"`
	Instrument string `yaml:"instrument"`
	OutputDir  string `yaml:"output_dir"`
}

// LoadManifest reads a YAML manifest and fills per-job defaults.
// Relative paths are resolved against the manifest's directory. Two jobs
// that would publish the same file are rejected with ErrDuplicateOutput.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	if len(m.Jobs) == 0 {
		return nil, fmt.Errorf("%w: manifest %s lists no jobs", apperrors.ErrMissingInput, path)
	}
	if m.Parallel <= 0 {
		m.Parallel = 1
	}

	base := filepath.Dir(path)
	seen := make(map[target]int, len(m.Jobs))
	for i := range m.Jobs {
		job := &m.Jobs[i]
		if job.Instrument == "" {
			job.Instrument = m.Instrument
		}
		if job.OutputDir == "" {
			job.OutputDir = m.OutputDir
		}

		switch {
		case job.Input == "":
			return nil, fmt.Errorf("%w: job %d has no input", apperrors.ErrMissingInput, i+1)
		case job.Instrument == "":
			return nil, fmt.Errorf("%w: job %d (%s) has no instrument", apperrors.ErrMissingInput, i+1, job.Input)
		case job.OutputDir == "":
			return nil, fmt.Errorf("%w: job %d (%s) has no output_dir", apperrors.ErrMissingInput, i+1, job.Input)
		}

		job.Input = resolve(base, job.Input)
		job.OutputDir = resolve(base, job.OutputDir)

		t := targetOf(*job)
		if prev, ok := seen[t]; ok {
			return nil, fmt.Errorf("%w: jobs %d and %d both write %s for %s in %s",
				apperrors.ErrDuplicateOutput, prev, i+1, t.song, t.instrument, job.OutputDir)
		}
		seen[t] = i + 1
	}

	return &m, nil
}

func resolve(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// target identifies the files a job publishes: outputs are named after the
// song and the canonical instrument inside the output directory.
type target struct {
	dir        string
	song       string
	instrument string
}

func targetOf(job ManifestJob) target {
	name := strings.ToLower(strings.TrimSpace(job.Instrument))
	if inst, err := midi.LookupInstrument(job.Instrument); err == nil {
		name = inst.Name
	}
	return target{
		dir:        filepath.Clean(job.OutputDir),
		song:       audio.SongName(job.Input),
		instrument: name,
	}
}
