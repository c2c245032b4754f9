package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for expected failure modes
var (
	ErrFileNotFound      = errors.New("file not found")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrCorruptedFile     = errors.New("file corrupted or unreadable")
	ErrFileTooLarge      = errors.New("file exceeds size limit")
	ErrTimeout           = errors.New("operation timed out")
	ErrToolNotInstalled  = errors.New("required tool not installed")
	ErrUnknownInstrument = errors.New("unknown instrument")
	ErrInvalidFrame      = errors.New("invalid pitch frame")
	ErrMissingInput      = errors.New("missing required input")
	ErrDuplicateOutput   = errors.New("duplicate output target")
)

// Stage names used in ProcessError
const (
	StageDecode = "decode"
	StageTrack  = "pitch_tracking"
	StageRender = "score_render"
)

// ProcessError represents a failure in an external process
type ProcessError struct {
	Tool     string // "ffmpeg", "aubio", "mscore"
	Stage    string // StageDecode, StageTrack, StageRender
	ExitCode int
	Stderr   string
	Cause    error
}

func (e *ProcessError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s failed at %s (exit %d): %s", e.Tool, e.Stage, e.ExitCode, e.Stderr)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s failed at %s (exit %d): %v", e.Tool, e.Stage, e.ExitCode, e.Cause)
	}
	return fmt.Sprintf("%s failed at %s (exit %d)", e.Tool, e.Stage, e.ExitCode)
}

func (e *ProcessError) Unwrap() error {
	return e.Cause
}

// IsRecoverable reports whether the job can still succeed without this stage.
// Only score rendering is optional; the MIDI file is already staged by then.
func (e *ProcessError) IsRecoverable() bool {
	return e.Stage == StageRender
}

// NewProcessError creates a ProcessError
func NewProcessError(tool, stage string, exitCode int, stderr string, cause error) *ProcessError {
	return &ProcessError{
		Tool:     tool,
		Stage:    stage,
		ExitCode: exitCode,
		Stderr:   stderr,
		Cause:    cause,
	}
}

// IsRecoverable reports whether err is a recoverable ProcessError anywhere in its chain.
func IsRecoverable(err error) bool {
	var pe *ProcessError
	if errors.As(err, &pe) {
		return pe.IsRecoverable()
	}
	return false
}
