package workspace

import (
	"fmt"
	"os"
	"path/filepath"
)

// Staging holds a job's outputs in a hidden directory inside their destination
// until Commit renames them into place. Staging and destination share a
// filesystem, so each rename is atomic and a reader never sees a half-written
// file under its final name.
type Staging struct {
	dir     string
	dest    string
	created bool
	names   []string
}

// NewStaging creates destDir if needed and a staging directory inside it.
func NewStaging(destDir string) (*Staging, error) {
	_, statErr := os.Stat(destDir)
	created := os.IsNotExist(statErr)
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	dir, err := os.MkdirTemp(destDir, ".musicify-staging-*")
	if err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}
	return &Staging{dir: dir, dest: destDir, created: created}, nil
}

// Path returns where to write name before it is committed.
func (s *Staging) Path(name string) string {
	for _, n := range s.names {
		if n == name {
			return filepath.Join(s.dir, name)
		}
	}
	s.names = append(s.names, name)
	return filepath.Join(s.dir, name)
}

// Final is the path name will have after Commit.
func (s *Staging) Final(name string) string {
	return filepath.Join(s.dest, name)
}

// Drop removes whatever was staged under name so Commit never publishes it.
func (s *Staging) Drop(name string) error {
	for i, n := range s.names {
		if n == name {
			s.names = append(s.names[:i], s.names[i+1:]...)
			break
		}
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Commit moves every staged file that was actually written into the
// destination and removes the staging directory. Names that were requested
// but never written are skipped. If any rename fails, files already moved
// are put back into staging, so either all outputs appear or none do; the
// caller should then Discard. It returns the published paths.
func (s *Staging) Commit() (map[string]string, error) {
	published := make(map[string]string, len(s.names))
	var moved []string
	for _, name := range s.names {
		src := filepath.Join(s.dir, name)
		if _, err := os.Stat(src); os.IsNotExist(err) {
			continue
		}
		dst := s.Final(name)
		if err := os.Rename(src, dst); err != nil {
			s.rollback(moved)
			return nil, fmt.Errorf("publish %s: %w", name, err)
		}
		moved = append(moved, name)
		published[name] = dst
	}
	if err := os.RemoveAll(s.dir); err != nil {
		return published, fmt.Errorf("remove staging directory: %w", err)
	}
	return published, nil
}

func (s *Staging) rollback(moved []string) {
	for _, name := range moved {
		os.Rename(s.Final(name), filepath.Join(s.dir, name))
	}
}

// Discard drops all staged files. A destination directory created by
// NewStaging is removed again if nothing else was put there meanwhile.
func (s *Staging) Discard() error {
	if err := os.RemoveAll(s.dir); err != nil {
		return err
	}
	if s.created {
		os.Remove(s.dest)
	}
	return nil
}
