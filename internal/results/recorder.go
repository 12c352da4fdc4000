// internal/results/recorder.go
package results

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/stutter-cli/api/schemas"
)

// Config controls where and what the Recorder writes.
type Config struct {
	Dir         string `mapstructure:"dir" yaml:"dir"`
	ResultsFile string `mapstructure:"results_file" yaml:"results_file"`
	CountFile   string `mapstructure:"count_file" yaml:"count_file"`
	SummaryFile string `mapstructure:"summary_file" yaml:"summary_file"`
	// SQLitePath enables the run store when set. Relative paths are resolved
	// against Dir.
	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
}

// DefaultConfig writes to DefaultDir with the classic file names and keeps
// the SQLite store off.
func DefaultConfig() Config {
	return Config{
		Dir:         DefaultDir,
		ResultsFile: "sphere_results.csv",
		CountFile:   "sphere_hits.csv",
		SummaryFile: "summary.json",
	}
}

// Recorder writes result files under one directory, never overwriting an
// existing file.
type Recorder struct {
	cfg    Config
	dir    string
	logger *zap.Logger
	now    func() time.Time
}

// NewRecorder resolves and creates the results directory.
func NewRecorder(cfg Config, logger *zap.Logger) (*Recorder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dir, err := ResolveDir(cfg.Dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create results directory %s: %w", dir, err)
	}
	return &Recorder{cfg: cfg, dir: dir, logger: logger.Named("results"), now: time.Now}, nil
}

// Dir returns the resolved results directory.
func (r *Recorder) Dir() string { return r.dir }

// StorePath returns the absolute SQLite path, or "" when the store is off.
func (r *Recorder) StorePath() string {
	if r.cfg.SQLitePath == "" {
		return ""
	}
	if filepath.IsAbs(r.cfg.SQLitePath) {
		return r.cfg.SQLitePath
	}
	return filepath.Join(r.dir, r.cfg.SQLitePath)
}

// WriteResults writes the per-condition CSV and returns its path.
func (r *Recorder) WriteResults(records []schemas.ResultRecord) (string, error) {
	var buf bytes.Buffer
	if err := WriteResultsCSV(&buf, records); err != nil {
		return "", err
	}
	path, err := r.writeUnique(r.cfg.ResultsFile, "results.csv", buf.Bytes())
	if err != nil {
		return "", err
	}
	r.logger.Info("CSV saved.", zap.String("path", path), zap.Int("rows", len(records)))
	return path, nil
}

// WriteCount writes the raw hit tally and returns its path.
func (r *Recorder) WriteCount(count int) (string, error) {
	var buf bytes.Buffer
	if err := WriteCountCSV(&buf, count); err != nil {
		return "", err
	}
	path, err := r.writeUnique(r.cfg.CountFile, "hits.csv", buf.Bytes())
	if err != nil {
		return "", err
	}
	r.logger.Info("Hit count saved.", zap.String("path", path), zap.Int("count", count))
	return path, nil
}

// WriteSummary writes the JSON summary and returns its path.
func (r *Recorder) WriteSummary(s Summary) (string, error) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, s); err != nil {
		return "", err
	}
	path, err := r.writeUnique(r.cfg.SummaryFile, "summary.json", buf.Bytes())
	if err != nil {
		return "", err
	}
	r.logger.Info("Summary saved.", zap.String("path", path), zap.String("run_id", s.RunID))
	return path, nil
}

func (r *Recorder) writeUnique(name, fallback string, data []byte) (string, error) {
	if name == "" {
		name = fallback
	}
	rel, err := UniqueFileName(r.dir, name, r.now())
	if err != nil {
		return "", err
	}
	path := filepath.Join(r.dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	// O_EXCL keeps a concurrent writer from clobbering the same name.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}
	return path, nil
}
