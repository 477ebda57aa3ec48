package timing

import (
	"sync"
	"time"
)

// Stopwatch records how long the named stages of one query took. A stage
// is timed by calling Stage and invoking the returned stop function when
// the stage ends; repeated runs of the same stage (a refined retrieval
// pass, a synthesis retry) accumulate.
type Stopwatch struct {
	mu     sync.Mutex
	start  time.Time
	stages map[string]time.Duration
}

// Start creates a Stopwatch whose total runs from now.
func Start() *Stopwatch {
	return &Stopwatch{
		start:  time.Now(),
		stages: make(map[string]time.Duration),
	}
}

// Stage begins timing the named stage and returns the function that ends it.
func (s *Stopwatch) Stage(name string) func() {
	begin := time.Now()
	return func() {
		elapsed := time.Since(begin)
		s.mu.Lock()
		s.stages[name] += elapsed
		s.mu.Unlock()
	}
}

// StageMs returns the accumulated milliseconds spent in the named stage.
func (s *Stopwatch) StageMs(name string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stages[name].Milliseconds()
}

// TotalMs returns the milliseconds since the Stopwatch was started.
func (s *Stopwatch) TotalMs() int64 {
	return time.Since(s.start).Milliseconds()
}
