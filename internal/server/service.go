// service.go - Process-wide service lifecycle.
//
// One Service owns exactly one upload endpoint and one retention sweeper.
// Shared provides the process-level singleton the embedding dashboard
// expects: the first caller's configuration wins and every later call gets
// the same handle back.
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"
)

// Service is the lifecycle controller for the upload endpoint and the
// retention sweeper. Zero or one instance is running per process.
type Service struct {
	cfg      Config
	spool    *Spool
	cooldown *cooldownTracker
	throttle *rateLimiter
	sweep    sweeperStatus

	mu          sync.Mutex
	running     bool
	httpServer  *http.Server
	addr        net.Addr
	cancelSweep context.CancelFunc
}

var (
	sharedMu sync.Mutex
	shared   *Service
)

// Shared returns the process-wide Service, constructing it from cfg on the
// first call. Later calls ignore their cfg and return the existing instance
// untouched.
func Shared(cfg Config) (*Service, error) {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if shared != nil {
		return shared, nil
	}
	s, err := New(cfg)
	if err != nil {
		return nil, err
	}
	shared = s
	return s, nil
}

// New builds an initialized, stopped Service: the ceiling is resolved
// against the dashboard's configuration, the config validated, and the
// spool directory created. Most callers want Shared; New exists for tests
// and for hosts that manage the handle themselves.
func New(cfg Config) (*Service, error) {
	cfg.resolveCeiling()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	spool := NewSpool(cfg.SpoolDir)
	if err := spool.Ensure(); err != nil {
		return nil, fmt.Errorf("create spool directory %s: %w", cfg.SpoolDir, err)
	}

	s := &Service{
		cfg:      cfg,
		spool:    spool,
		cooldown: newCooldownTracker(cfg.Cooldown),
	}
	if cfg.ThrottlePerSec > 0 {
		s.throttle = newRateLimiter(cfg.ThrottlePerSec, cfg.ThrottleBurst)
	}
	return s, nil
}

// Spool exposes the storage manager; the embedding host uses it for
// read-only listings.
func (s *Service) Spool() *Spool { return s.spool }

// Addr returns the bound listen address, or nil before Start.
func (s *Service) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Start purges leftovers from a prior incarnation, binds the listener, and
// launches the HTTP server and retention sweeper in the background. The
// caller is not blocked while the service runs. Starting a running service
// is a no-op; a bind failure is fatal and returned.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	// Discard artifacts from a previous process incarnation before the
	// first request can observe them.
	if n := s.spool.PurgeAll(); n > 0 {
		log.Printf("service=server msg=%q removed=%d", "purged_stale_spool", n)
	}

	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", s.cfg.Addr, err)
	}
	s.addr = ln.Addr()

	s.httpServer = &http.Server{
		Handler:           s.handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancelSweep = cancel
	go startSweeper(ctx, s.spool, SweeperConfig{
		Interval: s.cfg.SweepInterval,
		Backoff:  s.cfg.SweepBackoff,
		MaxAge:   s.cfg.Retention,
	}, &s.sweep)

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Printf("service=server msg=%q err=%v", "serve_failed", err)
		}
	}()

	s.running = true
	log.Printf("service=server msg=%q addr=%s dir=%s max_upload_mb=%d",
		"started", s.addr, s.spool.Dir(), s.cfg.MaxUploadBytes>>20)
	return nil
}

// Stop cancels the sweeper, drains the HTTP server, and purges the spool
// directory. Idempotent. Uploads in flight are not force-cancelled; any
// partial file they leave behind is removed by the next Start's purge.
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.cancelSweep()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.httpServer.Shutdown(ctx)

	s.spool.PurgeAll()
	s.running = false
	s.addr = nil
	log.Printf("service=server msg=%q", "stopped")
	return err
}
