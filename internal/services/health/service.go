package health

import (
	"context"
	"time"
)

// Checker reports whether a dependency is reachable.
type Checker interface {
	Ping(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) error

// Ping calls f.
func (f CheckerFunc) Ping(ctx context.Context) error { return f(ctx) }

// Service encapsulates health-related checks.
type Service struct {
	checks  map[string]Checker
	timeout time.Duration
}

// NewService constructs a health service over named checks. Nil checkers are reported as disabled.
func NewService(checks map[string]Checker) *Service {
	return &Service{checks: checks, timeout: 2 * time.Second}
}

// Status runs every check and returns a per-dependency payload plus overall health.
func (s *Service) Status(ctx context.Context) (map[string]string, bool) {
	out := make(map[string]string, len(s.checks))
	ok := true
	for name, check := range s.checks {
		if check == nil {
			out[name] = "disabled"
			continue
		}
		checkCtx, cancel := context.WithTimeout(ctx, s.timeout)
		err := check.Ping(checkCtx)
		cancel()
		if err != nil {
			out[name] = "error: " + err.Error()
			ok = false
			continue
		}
		out[name] = "ok"
	}
	return out, ok
}
