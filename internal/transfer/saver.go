package transfer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/sumx/internal/shared"
)

const summarySuffix = "_summary.txt"

// Saver writes a downloaded summary and returns its location.
type Saver interface {
	Save(name string, data []byte) (string, error)
}

// DirSaver writes files into Dir, creating it when missing.
type DirSaver struct {
	Dir string
}

func (d DirSaver) Save(name string, data []byte) (string, error) {
	dir := d.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("%w: failed to create %s: %w", shared.ErrStorage, dir, err)
	}

	path := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("%w: failed to write %s: %w", shared.ErrStorage, path, err)
	}
	return path, nil
}

// SuggestedName strips the last extension of fileName and appends "_summary.txt".
//
// Names without an extension, or whose only dot is leading, keep their full text.
func SuggestedName(fileName string) string {
	base := filepath.Base(fileName)
	if ext := filepath.Ext(base); len(ext) > 1 && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	return base + summarySuffix
}
