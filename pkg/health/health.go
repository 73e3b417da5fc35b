// Package health implements liveness and readiness probes. Probes run on a
// shared background ticker and flip state only after consecutive results
// cross a threshold, so a single slow poll does not flap the endpoint.
package health

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
)

// Check reports nil when the probed component is healthy.
type Check func(ctx context.Context) error

// Thresholds before a probe flips state.
const (
	failsToUnhealthy = 3
	passesToHealthy  = 1
)

// probe is one named check plus its accumulated state. State transitions
// happen only on the poll goroutine; handlers read via atomics.
type probe struct {
	name    string
	timeout time.Duration
	check   Check

	healthy atomic.Bool
	lastErr atomic.Pointer[error]

	fails  int
	passes int
}

func (p *probe) poll(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.check(ctx)
	p.lastErr.Store(&err)

	if err != nil {
		p.passes = 0
		if p.fails++; p.fails >= failsToUnhealthy {
			p.healthy.Store(false)
		}
		return
	}
	p.fails = 0
	if p.passes++; p.passes >= passesToHealthy {
		p.healthy.Store(true)
	}
}

func (p *probe) failure() (string, bool) {
	if p.healthy.Load() {
		return "", false
	}
	if e := p.lastErr.Load(); e != nil && *e != nil {
		return (*e).Error(), true
	}
	return "probe is unhealthy", true
}

// Registry holds the service's probes and the manual readiness gate.
type Registry struct {
	ready atomic.Bool

	mu        sync.Mutex
	liveness  []*probe
	readiness []*probe
	cancel    context.CancelFunc
}

// NewRegistry returns a Registry in the not-ready state. Call SetReady(true)
// once wiring is complete.
func NewRegistry() *Registry {
	return &Registry{}
}

func newProbe(name string, timeout time.Duration, check Check) *probe {
	p := &probe{name: name, timeout: timeout, check: check}
	p.healthy.Store(true)
	return p
}

// AddLiveness registers a probe for /livez.
func (r *Registry) AddLiveness(name string, timeout time.Duration, check Check) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.liveness = append(r.liveness, newProbe(name, timeout, check))
}

// AddReadiness registers a probe for /readyz.
func (r *Registry) AddReadiness(name string, timeout time.Duration, check Check) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readiness = append(r.readiness, newProbe(name, timeout, check))
}

// Start polls every registered probe on its own goroutine at the given
// interval until the context is cancelled or Stop is called. Register all
// probes before calling Start.
func (r *Registry) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	r.mu.Lock()
	r.cancel = cancel
	probes := make([]*probe, 0, len(r.liveness)+len(r.readiness))
	probes = append(probes, r.liveness...)
	probes = append(probes, r.readiness...)
	r.mu.Unlock()

	for _, p := range probes {
		go func(p *probe) {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			p.poll(ctx)
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					p.poll(ctx)
				}
			}
		}(p)
	}
}

// Stop cancels the poll goroutines. Safe to call more than once.
func (r *Registry) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

// SetReady flips the manual readiness gate. Flip it to false at the start of
// graceful shutdown so load balancers stop routing new traffic.
func (r *Registry) SetReady(ready bool) {
	r.ready.Store(ready)
}

// Ready reports whether the gate is open and every readiness probe passes.
func (r *Registry) Ready() bool {
	if !r.ready.Load() {
		return false
	}

	r.mu.Lock()
	probes := r.readiness
	r.mu.Unlock()

	for _, p := range probes {
		if !p.healthy.Load() {
			return false
		}
	}
	return true
}

type probeResponse struct {
	Status   string            `json:"status"`
	Failures map[string]string `json:"failures,omitempty"`
}

// LiveHandler serves the liveness endpoint.
func (r *Registry) LiveHandler(c echo.Context) error {
	r.mu.Lock()
	probes := append([]*probe(nil), r.liveness...)
	r.mu.Unlock()

	return respond(c, failures(probes))
}

// ReadyHandler serves the readiness endpoint. It fails while the manual gate
// is closed even when every probe passes.
func (r *Registry) ReadyHandler(c echo.Context) error {
	r.mu.Lock()
	probes := append([]*probe(nil), r.readiness...)
	r.mu.Unlock()

	fs := failures(probes)
	if !r.ready.Load() {
		if fs == nil {
			fs = make(map[string]string)
		}
		fs["gate"] = "service is not ready"
	}
	return respond(c, fs)
}

func failures(probes []*probe) map[string]string {
	var fs map[string]string
	for _, p := range probes {
		if msg, failed := p.failure(); failed {
			if fs == nil {
				fs = make(map[string]string)
			}
			fs[p.name] = msg
		}
	}
	return fs
}

func respond(c echo.Context, fs map[string]string) error {
	if len(fs) > 0 {
		return c.JSON(http.StatusServiceUnavailable, probeResponse{Status: "unhealthy", Failures: fs})
	}
	return c.JSON(http.StatusOK, probeResponse{Status: "ok"})
}
