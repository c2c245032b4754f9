package exec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	apperrors "github.com/yoswag75/Musicify/internal/errors"
	"go.uber.org/zap"
)

// Result holds command execution output
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Commander is the subset of Runner used by the tool wrappers.
// Tests substitute a fake to avoid depending on installed binaries.
type Commander interface {
	Run(ctx context.Context, name string, args ...string) (*Result, error)
	LookPath(name string) (string, error)
}

// Runner executes external commands with context support
type Runner struct {
	Dir    string
	Env    []string
	logger *zap.Logger
}

// NewRunner creates a new command runner
func NewRunner(logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{logger: logger}
}

// LookPath resolves a binary on PATH, reporting ErrToolNotInstalled when absent.
func (r *Runner) LookPath(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s", apperrors.ErrToolNotInstalled, name)
	}
	return path, nil
}

// Run executes a command and captures output. A context deadline is reported
// as ErrTimeout so callers can tell it apart from a non-zero exit.
func (r *Runner) Run(ctx context.Context, name string, args ...string) (*Result, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Dir = r.Dir
	if len(r.Env) > 0 {
		cmd.Env = r.Env
	}

	r.logger.Debug("running command",
		zap.String("tool", name),
		zap.String("args", strings.Join(args, " ")))

	err := cmd.Run()

	result := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
	}

	r.logger.Debug("command finished",
		zap.String("tool", name),
		zap.Int("exit", result.ExitCode),
		zap.Duration("elapsed", result.Duration))

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return result, fmt.Errorf("%s: %w", name, apperrors.ErrTimeout)
		}
		if errors.Is(err, exec.ErrNotFound) {
			return result, fmt.Errorf("%w: %s", apperrors.ErrToolNotInstalled, name)
		}
		return result, fmt.Errorf("command %s failed: %w", name, err)
	}

	return result, nil
}

// TrimStderr shortens tool stderr to its last few lines for user-facing messages.
func TrimStderr(stderr string, maxLines int) string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	return strings.Join(lines, "\n")
}
