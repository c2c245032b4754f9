package pitch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/yoswag75/Musicify/internal/errors"
	"github.com/yoswag75/Musicify/internal/exec"
)

// AubioConfig selects the aubio pitch analysis parameters.
type AubioConfig struct {
	Bin        string
	SampleRate int
	WindowSize int
	HopLength  int
	Method     string  // yin, yinfft, mcomb, schmitt, fcomb, specacf
	Silence    float64 // dB below which frames are reported as 0 Hz
}

// AubioSource runs `aubio pitch` and parses its "time frequency" output.
type AubioSource struct {
	cfg    AubioConfig
	runner exec.Commander
}

// NewAubioSource creates a pitch source backed by the aubio CLI
func NewAubioSource(runner exec.Commander, cfg AubioConfig) *AubioSource {
	if cfg.Bin == "" {
		cfg.Bin = "aubio"
	}
	if cfg.Method == "" {
		cfg.Method = "yinfft"
	}
	if cfg.Silence == 0 {
		cfg.Silence = -70
	}
	return &AubioSource{cfg: cfg, runner: runner}
}

func (a *AubioSource) Name() string { return "aubio" }

// Hop is the frame spacing in seconds
func (a *AubioSource) Hop() float64 {
	return float64(a.cfg.HopLength) / float64(a.cfg.SampleRate)
}

// Track runs the external tracker on wavPath.
func (a *AubioSource) Track(ctx context.Context, wavPath string) (Track, error) {
	if _, err := a.runner.LookPath(a.cfg.Bin); err != nil {
		return Track{}, apperrors.NewProcessError(a.cfg.Bin, apperrors.StageTrack, -1, "", err)
	}

	result, err := a.runner.Run(ctx, a.cfg.Bin, "pitch",
		"-i", wavPath,
		"-r", strconv.Itoa(a.cfg.SampleRate),
		"-B", strconv.Itoa(a.cfg.WindowSize),
		"-H", strconv.Itoa(a.cfg.HopLength),
		"-m", a.cfg.Method,
		"-u", "Hz",
		"-s", strconv.FormatFloat(a.cfg.Silence, 'f', -1, 64),
	)
	if err != nil {
		exitCode, stderr := -1, ""
		if result != nil {
			exitCode, stderr = result.ExitCode, exec.TrimStderr(result.Stderr, 5)
		}
		return Track{}, apperrors.NewProcessError(a.cfg.Bin, apperrors.StageTrack, exitCode, stderr, err)
	}

	hz, err := ParseAubioOutput(result.Stdout)
	if err != nil {
		return Track{}, apperrors.NewProcessError(a.cfg.Bin, apperrors.StageTrack, 0, "", err)
	}
	return NewTrack(a.Hop(), hz), nil
}

// ParseAubioOutput reads one "time frequency" pair per line and returns the
// frequencies in order. Blank lines are skipped; anything else is an error.
func ParseAubioOutput(out string) ([]float64, error) {
	var hz []float64
	sc := bufio.NewScanner(strings.NewReader(out))
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: expected time and frequency, got %q", line, sc.Text())
		}
		if _, err := strconv.ParseFloat(fields[0], 64); err != nil {
			return nil, fmt.Errorf("line %d: bad time %q", line, fields[0])
		}
		f, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad frequency %q", line, fields[1])
		}
		hz = append(hz, f)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(hz) == 0 {
		return nil, errors.New("tracker produced no frames")
	}
	return hz, nil
}
