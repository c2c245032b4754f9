package score

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	apperrors "github.com/yoswag75/Musicify/internal/errors"
	"github.com/yoswag75/Musicify/internal/exec"
)

// Renderer engraves a MIDI file into a score document.
type Renderer interface {
	Render(ctx context.Context, midiPath, outPath string) error
}

// Candidate executable names searched on PATH when no binary is configured.
var Candidates = []string{"mscore", "musescore", "mscore4portable", "MuseScore4", "mscore3", "MuseScore3"}

// MuseScore renders through the MuseScore command line converter.
// Every failure it returns is a recoverable ProcessError.
type MuseScore struct {
	bin     string
	timeout time.Duration
	runner  exec.Commander
}

// NewMuseScore creates a renderer. An empty bin searches Candidates.
func NewMuseScore(runner exec.Commander, bin string, timeout time.Duration) *MuseScore {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &MuseScore{bin: bin, timeout: timeout, runner: runner}
}

// Locate resolves the MuseScore binary.
func (m *MuseScore) Locate() (string, error) {
	if m.bin != "" {
		return m.runner.LookPath(m.bin)
	}
	for _, name := range Candidates {
		if path, err := m.runner.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: MuseScore (tried %v)", apperrors.ErrToolNotInstalled, Candidates)
}

// Render converts midiPath to outPath; the output format follows outPath's extension.
func (m *MuseScore) Render(ctx context.Context, midiPath, outPath string) error {
	bin, err := m.Locate()
	if err != nil {
		return apperrors.NewProcessError("musescore", apperrors.StageRender, -1, "", err)
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	result, err := m.runner.Run(ctx, bin, midiPath, "-o", outPath)
	if err != nil {
		exitCode, stderr := -1, ""
		if result != nil {
			exitCode, stderr = result.ExitCode, exec.TrimStderr(result.Stderr, 5)
		}
		return apperrors.NewProcessError(bin, apperrors.StageRender, exitCode, stderr, err)
	}

	// MuseScore sometimes exits 0 without writing anything
	if info, err := os.Stat(outPath); err != nil || info.Size() == 0 {
		return apperrors.NewProcessError(bin, apperrors.StageRender, 0, "", errors.New("no score written"))
	}
	return nil
}
