// internal/trial/runner.go
package trial

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/stutter-cli/api/schemas"
	"github.com/xkilldash9x/stutter-cli/internal/results"
	"github.com/xkilldash9x/stutter-cli/internal/sequence"
)

// Outcome is what a run leaves behind.
type Outcome struct {
	RunID      uuid.UUID
	Seed       int64
	StartedAt  time.Time
	Completed  bool
	Conditions []schemas.Condition
	Records    []schemas.ResultRecord

	SimTime    float64
	Frames     int
	Loads      int
	Knockbacks int
}

// TotalHits sums the hits over every recorded condition.
func (o Outcome) TotalHits() int {
	n := 0
	for _, r := range o.Records {
		n += r.HitCount
	}
	return n
}

// Summary converts the outcome into its JSON export.
func (o Outcome) Summary() results.Summary {
	return results.NewSummary(o.RunID.String(), o.Seed, o.StartedAt, o.Completed, o.Conditions, o.Records)
}

// Run plays one full session headlessly: the gameplay scene is loaded, the
// scripted participant holds its axes, presses the advance button at every
// goal, and the run ends once the last condition is recorded. A cancelled
// context or the time limit ends it early with the partial outcome.
func Run(ctx context.Context, cfg Config, logger *zap.Logger) (Outcome, error) {
	if err := cfg.Validate(); err != nil {
		return Outcome{}, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	session := sequence.NewSession(cfg.Session, logger)
	host := NewHost(cfg, session, logger)
	sequence.StartRun(session, host, cfg.Scene, true)

	dt := 1 / cfg.FrameRate
	for !session.Completed() {
		if err := ctx.Err(); err != nil {
			return outcome(session, host), err
		}
		if host.SimTime() >= cfg.MaxSimTime {
			return outcome(session, host), fmt.Errorf("%w: %d of %d conditions after %.0fs",
				ErrTimeLimit, len(session.Results()), session.Len(), host.SimTime())
		}
		if err := host.Frame(dt); err != nil {
			return outcome(session, host), err
		}
	}
	// Let a queued menu load happen so the host ends in its final scene.
	if host.hasPending {
		if err := host.Frame(dt); err != nil {
			return outcome(session, host), err
		}
	}

	out := outcome(session, host)
	logger.Info("Run finished.",
		zap.String("run_id", out.RunID.String()),
		zap.Int64("seed", out.Seed),
		zap.Int("conditions", len(out.Records)),
		zap.Int("hits", out.TotalHits()),
		zap.Int("knockbacks", out.Knockbacks),
		zap.Float64("sim_seconds", out.SimTime))
	return out, nil
}

func outcome(session *sequence.Session, host *Host) Outcome {
	return Outcome{
		RunID:      session.RunID(),
		Seed:       session.Seed(),
		StartedAt:  session.StartedAt(),
		Completed:  session.Completed(),
		Conditions: session.Conditions(),
		Records:    session.Results(),
		SimTime:    host.SimTime(),
		Frames:     host.Frames(),
		Loads:      host.Loads(),
		Knockbacks: host.Knockbacks(),
	}
}
