package health

import (
	"context"
	"runtime"

	"github.com/go-faster/errors"
)

// Pinger matches pgxpool.Pool and anything else with a context-aware ping.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck probes a dependency by pinging it.
func PingCheck(p Pinger) Check {
	return func(ctx context.Context) error {
		return p.Ping(ctx)
	}
}

// GoroutineCountCheck fails once the goroutine count exceeds max. Registered
// as a liveness probe it surfaces goroutine leaks before the process stalls.
func GoroutineCountCheck(max int) Check {
	return func(context.Context) error {
		if n := runtime.NumGoroutine(); n > max {
			return errors.Errorf("%d goroutines running, max %d", n, max)
		}
		return nil
	}
}
