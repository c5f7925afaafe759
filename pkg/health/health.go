// Package health serves liveness and readiness probes for the API process.
//
// Every registered check runs in its own goroutine. A check flips to
// unhealthy only after FailureThreshold consecutive failures and back after
// SuccessThreshold consecutive successes, so a single slow ping does not pull
// the instance out of rotation.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// Kind selects the probe a check contributes to.
type Kind int

const (
	Liveness Kind = iota
	Readiness
)

func (k Kind) String() string {
	if k == Readiness {
		return "readiness"
	}
	return "liveness"
}

// CheckFunc returns nil when the checked component is healthy.
type CheckFunc func(ctx context.Context) error

// Option configures a Service.
type Option func(*Service)

// WithThresholds overrides the consecutive failure and success counts needed
// to change a check's state. Non-positive values are ignored.
func WithThresholds(failure, success int) Option {
	return func(s *Service) {
		if failure > 0 {
			s.failureThreshold = failure
		}
		if success > 0 {
			s.successThreshold = success
		}
	}
}

type check struct {
	name    string
	kind    Kind
	timeout time.Duration
	fn      CheckFunc

	healthy atomic.Bool
	lastErr atomic.Pointer[string]

	// touched only by the goroutine running the check
	fails, oks int
}

func (c *check) run(ctx context.Context, failureThreshold, successThreshold int) {
	checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	was := c.healthy.Load()
	if err := c.fn(checkCtx); err != nil {
		msg := err.Error()
		c.lastErr.Store(&msg)
		c.oks = 0
		c.fails++
		if c.fails >= failureThreshold {
			c.healthy.Store(false)
		}
	} else {
		c.lastErr.Store(nil)
		c.fails = 0
		c.oks++
		if c.oks >= successThreshold {
			c.healthy.Store(true)
		}
	}

	if now := c.healthy.Load(); now != was {
		zctx.From(ctx).Warn("Health check changed state",
			zap.String("check", c.name),
			zap.Stringer("kind", c.kind),
			zap.Bool("healthy", now),
		)
	}
}

func (c *check) failure() string {
	if p := c.lastErr.Load(); p != nil {
		return *p
	}
	return "check is unhealthy"
}

// Service tracks registered checks and the manual readiness flag.
type Service struct {
	failureThreshold int
	successThreshold int

	ready atomic.Bool

	mu     sync.RWMutex
	checks []*check
	cancel context.CancelFunc
}

// New returns a Service that is not ready until SetReady(true) is called.
func New(opts ...Option) *Service {
	s := &Service{failureThreshold: 3, successThreshold: 1}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add registers a check. Checks start healthy.
func (s *Service) Add(kind Kind, name string, timeout time.Duration, fn CheckFunc) {
	c := &check{name: name, kind: kind, timeout: timeout, fn: fn}
	c.healthy.Store(true)

	s.mu.Lock()
	s.checks = append(s.checks, c)
	s.mu.Unlock()
}

// Start runs every registered check immediately and then once per interval
// until ctx is cancelled or Stop is called.
func (s *Service) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.cancel = cancel
	checks := append([]*check(nil), s.checks...)
	s.mu.Unlock()

	for _, c := range checks {
		go s.loop(ctx, c, interval)
	}
}

func (s *Service) loop(ctx context.Context, c *check, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.run(ctx, s.failureThreshold, s.successThreshold)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.run(ctx, s.failureThreshold, s.successThreshold)
		}
	}
}

// Stop cancels the check goroutines. Safe to call more than once.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// SetReady toggles readiness independently of the checks; the server sets it
// to false before draining connections.
func (s *Service) SetReady(ready bool) {
	s.ready.Store(ready)
}

// Ready reports whether the instance should receive traffic.
func (s *Service) Ready() bool {
	return s.ready.Load() && len(s.failures(Readiness)) == 0
}

func (s *Service) failures(kind Kind) map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string)
	for _, c := range s.checks {
		if c.kind == kind && !c.healthy.Load() {
			out[c.name] = c.failure()
		}
	}
	return out
}

type probeResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Live serves the liveness probe.
func (s *Service) Live(w http.ResponseWriter, _ *http.Request) {
	respond(w, s.failures(Liveness))
}

// ReadyEndpoint serves the readiness probe.
func (s *Service) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	failures := s.failures(Readiness)
	if !s.ready.Load() {
		failures["_readiness"] = "service is not ready"
	}
	respond(w, failures)
}

// Routes mounts /livez and /readyz on r.
func (s *Service) Routes(r chi.Router) {
	r.Get("/livez", s.Live)
	r.Get("/readyz", s.ReadyEndpoint)
}

func respond(w http.ResponseWriter, failures map[string]string) {
	resp := probeResponse{Status: "ok"}
	status := http.StatusOK
	if len(failures) > 0 {
		resp = probeResponse{Status: "unhealthy", Checks: failures}
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
