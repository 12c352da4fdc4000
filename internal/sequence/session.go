// internal/sequence/session.go
package sequence

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/stutter-cli/api/schemas"
)

// SessionConfig controls how a Session builds its sequence.
type SessionConfig struct {
	Values        []float64 `mapstructure:"values" yaml:"values"`
	Shuffle       bool      `mapstructure:"shuffle" yaml:"shuffle"`
	UseRandomSeed bool      `mapstructure:"use_random_seed" yaml:"use_random_seed"`
	FixedSeed     int64     `mapstructure:"fixed_seed" yaml:"fixed_seed"`
}

// DefaultSessionConfig returns a shuffled 3×3 sequence with a random seed.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Values:        append([]float64(nil), DefaultValues...),
		Shuffle:       true,
		UseRandomSeed: true,
		FixedSeed:     12345,
	}
}

// Session is the state of one experiment run. It outlives scene reloads: the
// owner creates it once and hands it to every scene-scoped Sequencer. Nothing
// is rebuilt implicitly; Init builds the sequence once, Reset discards it.
type Session struct {
	mu     sync.Mutex
	cfg    SessionConfig
	logger *zap.Logger

	// seedSource draws a seed when UseRandomSeed is set.
	seedSource func() int64
	now        func() time.Time

	initialized bool
	completed   bool
	index       int
	conditions  []schemas.Condition
	results     []schemas.ResultRecord

	runID     uuid.UUID
	seed      int64
	startedAt time.Time
}

// NewSession creates an uninitialised session.
func NewSession(cfg SessionConfig, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(cfg.Values) == 0 {
		cfg.Values = append([]float64(nil), DefaultValues...)
	}
	return &Session{
		cfg:        cfg,
		logger:     logger.Named("session"),
		seedSource: randomSeed,
		now:        time.Now,
		index:      -1,
	}
}

// randomSeed draws from the full 32-bit signed range.
func randomSeed() int64 {
	return rand.Int63n(math.MaxUint32) + math.MinInt32
}

// Init builds the sequence if it has not been built since the last Reset.
// Calling it again is a no-op, which is what lets a reloaded scene pick up
// where the previous one left off.
func (s *Session) Init() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return
	}

	s.conditions = Generate(s.cfg.Values)
	s.seed = s.cfg.FixedSeed
	if s.cfg.Shuffle {
		if s.cfg.UseRandomSeed {
			s.seed = s.seedSource()
		}
		Shuffle(s.conditions, s.seed)
	}
	s.index = 0
	s.completed = false
	s.initialized = true
	s.runID = uuid.New()
	s.startedAt = s.now()

	s.logger.Info("Condition sequence initialised.",
		zap.String("run_id", s.runID.String()),
		zap.Int("conditions", len(s.conditions)),
		zap.Bool("shuffled", s.cfg.Shuffle),
		zap.Int64("seed", s.seed))
}

// Reset forgets the sequence so the next Init builds a fresh one. Results are
// kept unless clearResults is set.
func (s *Session) Reset(clearResults bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initialized = false
	s.completed = false
	s.index = -1
	s.conditions = nil
	if clearResults {
		s.results = nil
	}
	s.logger.Debug("Condition sequence reset.", zap.Bool("clear_results", clearResults))
}

// Teardown releases everything the session holds.
func (s *Session) Teardown() {
	s.Reset(true)
	s.mu.Lock()
	s.runID = uuid.Nil
	s.mu.Unlock()
}

// Initialized reports whether Init has built the sequence.
func (s *Session) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// Completed reports whether the sequence has run past its last condition.
func (s *Session) Completed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed
}

// Index returns the position of the current condition, -1 before Init.
func (s *Session) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// Len returns the number of conditions in the sequence.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conditions)
}

// Conditions returns a copy of the sequence in application order.
func (s *Session) Conditions() []schemas.Condition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]schemas.Condition(nil), s.conditions...)
}

// Current returns the condition to apply. ok is false before Init, after
// completion, or for an empty sequence.
func (s *Session) Current() (schemas.Condition, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLocked()
}

func (s *Session) currentLocked() (schemas.Condition, bool) {
	if s.completed || s.index < 0 || s.index >= len(s.conditions) {
		return schemas.Condition{}, false
	}
	return s.conditions[s.index], true
}

// Advance moves to the next condition. It returns true when this call
// completed the sequence. Once completed, further calls do nothing.
func (s *Session) Advance() (completedNow bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completed || !s.initialized {
		return false
	}
	s.index++
	if s.index >= len(s.conditions) {
		s.completed = true
		s.logger.Info("All conditions complete.",
			zap.String("run_id", s.runID.String()),
			zap.Int("results", len(s.results)))
		return true
	}
	return false
}

// Record appends the outcome of the current condition. It reports false and
// records nothing when there is no current condition.
func (s *Session) Record(scene string, hits int) (schemas.ResultRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.currentLocked()
	if !ok {
		return schemas.ResultRecord{}, false
	}
	rec := schemas.ResultRecord{
		SceneName:      scene,
		ConditionLabel: Label(c),
		HitCount:       hits,
		RecordedAt:     s.now(),
	}
	s.results = append(s.results, rec)
	return rec, true
}

// Results returns a copy of the recorded outcomes.
func (s *Session) Results() []schemas.ResultRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]schemas.ResultRecord(nil), s.results...)
}

// RunID identifies the sequence built by the last Init.
func (s *Session) RunID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runID
}

// Seed returns the seed used by the last Init.
func (s *Session) Seed() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seed
}

// StartedAt returns when the last Init ran.
func (s *Session) StartedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startedAt
}

// StartRun resets the session for a new run and loads the gameplay scene. It
// is what the menu's start action does.
func StartRun(session *Session, loader schemas.SceneLoader, scene string, clearResults bool) {
	session.Reset(clearResults)
	if loader != nil && scene != "" {
		loader.LoadScene(scene)
	}
}
