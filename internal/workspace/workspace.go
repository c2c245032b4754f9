package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Workspace manages temporary files for a single processing job
type Workspace struct {
	Dir       string
	CreatedAt time.Time
}

// Create creates a new isolated workspace in the system temp directory
func Create() (*Workspace, error) {
	dir, err := os.MkdirTemp("", "musicify-*")
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}

	return &Workspace{
		Dir:       dir,
		CreatedAt: time.Now(),
	}, nil
}

// Path helpers for workspace files
func (w *Workspace) DecodedWAV() string       { return filepath.Join(w.Dir, "decoded.wav") }
func (w *Workspace) Upload(ext string) string { return filepath.Join(w.Dir, "input"+ext) }
func (w *Workspace) File(name string) string  { return filepath.Join(w.Dir, name) }

// Cleanup removes the workspace directory and all contents
func (w *Workspace) Cleanup() error {
	return os.RemoveAll(w.Dir)
}
