// internal/input/reader.go
package input

import (
	"errors"
	"math"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/xkilldash9x/stutter-cli/api/schemas"
)

// Default axis names used by the host's input manager.
const (
	DefaultHorizontalAxis = "Horizontal"
	DefaultVerticalAxis   = "Vertical"
)

// Reader samples the two movement axes from an InputSource. An axis the host
// does not know reads as zero; the condition is logged once per Reader.
type Reader struct {
	source     schemas.InputSource
	logger     *zap.Logger
	horizontal string
	vertical   string
	warnOnce   rate.Sometimes
}

// NewReader creates a Reader for the given axis names. Empty names fall back to
// the defaults.
func NewReader(source schemas.InputSource, logger *zap.Logger, horizontal, vertical string) *Reader {
	if horizontal == "" {
		horizontal = DefaultHorizontalAxis
	}
	if vertical == "" {
		vertical = DefaultVerticalAxis
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{
		source:     source,
		logger:     logger,
		horizontal: horizontal,
		vertical:   vertical,
		warnOnce:   rate.Sometimes{First: 1},
	}
}

// Sample returns the raw (horizontal, vertical) pair.
func (r *Reader) Sample() r2.Vec {
	if r == nil || r.source == nil {
		return r2.Vec{}
	}
	return r2.Vec{X: r.axis(r.horizontal), Y: r.axis(r.vertical)}
}

// ButtonDown forwards to the source; a nil source never reports a press.
func (r *Reader) ButtonDown(name string) bool {
	if r == nil || r.source == nil || name == "" {
		return false
	}
	return r.source.ButtonDown(name)
}

func (r *Reader) axis(name string) float64 {
	v, err := r.source.Axis(name)
	if err != nil {
		if errors.Is(err, schemas.ErrAxisNotConfigured) {
			r.warnOnce.Do(func() {
				r.logger.Warn("Input axis is not configured; treating it as zero.",
					zap.String("axis", name))
			})
		} else {
			r.logger.Debug("Input axis sample failed.", zap.String("axis", name), zap.Error(err))
		}
		return 0
	}
	if math.IsNaN(v) {
		return 0
	}
	return v
}
