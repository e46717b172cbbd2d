package repository

import (
	"math"
	"sync"
	"time"
)

// MaxAssignableID bounds ids that come from outside the sequence. It is the
// largest integer a JSON number survives in a browser, far above any
// millisecond timestamp, so Next always has room left.
const MaxAssignableID int64 = 1<<53 - 1

// AssignableID reports whether an externally chosen id may be stored as is.
func AssignableID(id int64) bool {
	return id > 0 && id <= MaxAssignableID
}

// IDSequence hands out time-based ids: the current Unix millisecond, bumped past
// the last issued value so two creations in the same millisecond never collide.
type IDSequence struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewIDSequence(now func() time.Time) *IDSequence {
	if now == nil {
		now = time.Now
	}
	return &IDSequence{now: now}
}

func (s *IDSequence) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.now().UnixMilli()
	if id <= s.last && s.last < math.MaxInt64 {
		id = s.last + 1
	}
	if id <= 0 {
		id = 1
	}
	s.last = id
	return id
}

// Observe records an externally chosen id so later ids stay above it.
// Ids outside the assignable range are ignored.
func (s *IDSequence) Observe(id int64) {
	if !AssignableID(id) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if id > s.last {
		s.last = id
	}
}
