package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DirSink stores artifacts in a directory on disk.
type DirSink struct {
	dir string
}

func NewDirSink(dir string) *DirSink {
	return &DirSink{dir: dir}
}

// Save writes the artifact and returns the path it was written to.
func (s *DirSink) Save(artifact Artifact) (string, error) {
	name := filepath.Base(artifact.Filename)
	if name == "." || name == string(filepath.Separator) {
		return "", errors.New("artifact has no filename")
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, artifact.Body, 0o644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}
