// internal/sequence/conditions.go
package sequence

import (
	"fmt"
	"math/rand"

	"github.com/xkilldash9x/stutter-cli/api/schemas"
)

// DefaultValues are the stop and move durations crossed to build a sequence.
var DefaultValues = []float64{0.1, 0.3, 0.5}

// Generate returns the Cartesian product values × values, stop duration in
// the outer loop and move duration in the inner one.
func Generate(values []float64) []schemas.Condition {
	out := make([]schemas.Condition, 0, len(values)*len(values))
	for _, stop := range values {
		for _, move := range values {
			out = append(out, schemas.Condition{StopDuration: stop, MoveDuration: move})
		}
	}
	return out
}

// Shuffle permutes list in place with a Fisher–Yates pass driven by seed. The
// same seed always yields the same order.
func Shuffle(list []schemas.Condition, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	for i := len(list) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		list[i], list[j] = list[j], list[i]
	}
}

// Label is the condition label written to results, e.g. "Stop=0.1 Move=0.5".
func Label(c schemas.Condition) string {
	return fmt.Sprintf("Stop=%.1f Move=%.1f", c.StopDuration, c.MoveDuration)
}

// DisplayLabel is the on-screen variant of Label.
func DisplayLabel(c schemas.Condition) string {
	return fmt.Sprintf("Stop=%.1f  Move=%.1f", c.StopDuration, c.MoveDuration)
}
