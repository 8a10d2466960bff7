package diag

import (
	"sync"

	"go.uber.org/zap"
)

// Sink is the append-only destination for warnings and structured log lines
// produced while a tracked/memoized function runs. Per spec §4.C, sinks must
// be hash-independent of insertion order where possible: Warnings here are
// read back sorted by the caller (introspect/layout sort by document order),
// never relied on for cache-key stability.
//
// A Sink is safe for concurrent use: layout's parallelize helper (§5) may
// have multiple region layouts reporting warnings concurrently.
type Sink struct {
	mu       sync.Mutex
	warnings []Warning
	log      *zap.Logger
}

// NewSink creates a Sink. A nil logger becomes zap.NewNop(), matching the
// teacher's css.NewParser(log) convention.
func NewSink(log *zap.Logger) *Sink {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sink{log: log.Named("diag")}
}

func (s *Sink) Warn(w Warning) {
	s.mu.Lock()
	s.warnings = append(s.warnings, w)
	s.mu.Unlock()
	s.log.Warn(w.Message, zap.Any("hints", w.Hints))
}

func (s *Sink) Warnings() []Warning {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Warning, len(s.warnings))
	copy(out, s.warnings)
	return out
}

func (s *Sink) Logger() *zap.Logger { return s.log }

// Reset clears accumulated warnings, used between iterative-layout rounds
// (spec §4.G) so stale warnings from a discarded round are not reported.
func (s *Sink) Reset() {
	s.mu.Lock()
	s.warnings = s.warnings[:0]
	s.mu.Unlock()
}
