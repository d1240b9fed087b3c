package api

import (
	"sync"
	"time"

	"github.com/starford/folio/internal/site"
)

// Build describes the outcome of one build attempt.
type Build struct {
	ID        string        `json:"id,omitempty"`
	OK        bool          `json:"ok"`
	Error     string        `json:"error,omitempty"`
	Documents int           `json:"documents"`
	Assets    int           `json:"assets"`
	Duration  time.Duration `json:"duration_ns"`
	At        time.Time     `json:"at"`
}

// Status remembers the most recent build attempt.
type Status struct {
	mu    sync.RWMutex
	last  Build
	known bool
}

// NewStatus returns an empty Status.
func NewStatus() *Status {
	return &Status{}
}

// Record stores the outcome of a build attempt.
func (s *Status) Record(stats *site.Stats, err error) {
	b := Build{At: time.Now(), OK: err == nil}
	if err != nil {
		b.Error = err.Error()
	}
	if stats != nil {
		b.ID = stats.BuildID
		b.Documents = stats.Documents
		b.Assets = stats.Assets
		b.Duration = stats.Duration
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.last, s.known = b, true
}

// Last returns the most recent build attempt, if any.
func (s *Status) Last() (Build, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.known
}
