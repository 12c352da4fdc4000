// internal/results/files.go
package results

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"
)

// DefaultDir is where results land when no directory is configured.
const DefaultDir = "~/.stutter-cli/results"

// maxCollisions bounds the numeric suffix search in UniqueFileName.
const maxCollisions = 10000

// ResolveDir expands a leading ~ and makes the directory absolute. An empty
// dir resolves DefaultDir.
func ResolveDir(dir string) (string, error) {
	if dir == "" {
		dir = DefaultDir
	}
	expanded, err := homedir.Expand(dir)
	if err != nil {
		return "", fmt.Errorf("failed to expand results directory %q: %w", dir, err)
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("failed to resolve results directory %q: %w", expanded, err)
	}
	return abs, nil
}

// UniqueFileName turns name into a timestamped name that does not exist yet
// under dir: "results.csv" becomes "results_20260301_120000_123.csv", then
// "results_20260301_120000_123_1.csv" and so on if that is taken. name may
// carry a subdirectory, which is kept. A missing extension defaults to ".csv".
// The returned name is relative to dir.
func UniqueFileName(dir, name string, now time.Time) (string, error) {
	sub := filepath.Dir(name)
	base := filepath.Base(name)
	ext := filepath.Ext(base)
	base = base[:len(base)-len(ext)]
	if ext == "" {
		ext = ".csv"
	}
	stamp := fmt.Sprintf("%s_%03d", now.Format("20060102_150405"), now.Nanosecond()/int(time.Millisecond))

	candidate := fmt.Sprintf("%s_%s%s", base, stamp, ext)
	for i := 1; ; i++ {
		rel := candidate
		if sub != "." {
			rel = filepath.Join(sub, candidate)
		}
		_, err := os.Stat(filepath.Join(dir, rel))
		if errors.Is(err, os.ErrNotExist) {
			return rel, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check %s: %w", rel, err)
		}
		if i > maxCollisions {
			return "", fmt.Errorf("no free file name for %s after %d attempts", name, maxCollisions)
		}
		candidate = fmt.Sprintf("%s_%s_%d%s", base, stamp, i, ext)
	}
}
