// Package lifecycle coordinates named startup checks and shutdown hooks.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"
)

// ReadinessChecker reports whether a subsystem is ready to serve traffic.
type ReadinessChecker interface {
	Ready() bool
}

type shutdownHook struct {
	name string
	fn   func(ctx context.Context) error
}

// Coordinator runs startup hooks concurrently as they are registered and
// runs shutdown hooks concurrently once Shutdown is called.
type Coordinator struct {
	ctx    context.Context
	cancel context.CancelFunc

	startupWg sync.WaitGroup

	mu       sync.RWMutex
	ready    bool
	failures map[string]error
	shutdown []shutdownHook
}

// New creates a Coordinator with a cancellable context.
func New() *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		ctx:      ctx,
		cancel:   cancel,
		failures: make(map[string]error),
	}
}

// Context returns the coordinator's context, cancelled on shutdown.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// OnStartup starts fn immediately on its own goroutine. A returned error
// marks the coordinator not ready and is reported by Failures.
func (c *Coordinator) OnStartup(name string, fn func(ctx context.Context) error) {
	c.startupWg.Go(func() {
		if err := fn(c.ctx); err != nil {
			c.mu.Lock()
			c.failures[name] = err
			c.mu.Unlock()
		}
	})
}

// OnShutdown registers fn to run during Shutdown. fn receives a context
// bounded by the shutdown timeout.
func (c *Coordinator) OnShutdown(name string, fn func(ctx context.Context) error) {
	c.mu.Lock()
	c.shutdown = append(c.shutdown, shutdownHook{name: name, fn: fn})
	c.mu.Unlock()
}

// Ready reports whether startup has completed without failures.
func (c *Coordinator) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready && len(c.failures) == 0
}

// Failures returns the startup hooks that failed, keyed by name.
func (c *Coordinator) Failures() map[string]error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.failures)
}

// WaitForStartup blocks until all startup hooks have completed and returns
// their joined failures.
func (c *Coordinator) WaitForStartup() error {
	c.startupWg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.ready = true

	var errs []error
	for name, err := range c.failures {
		errs = append(errs, fmt.Errorf("%s: %w", name, err))
	}
	return errors.Join(errs...)
}

// Shutdown cancels the coordinator context and runs every shutdown hook
// concurrently, waiting at most timeout for them to finish.
func (c *Coordinator) Shutdown(timeout time.Duration) error {
	c.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	c.mu.RLock()
	hooks := append([]shutdownHook(nil), c.shutdown...)
	c.mu.RUnlock()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, hook := range hooks {
		wg.Go(func() {
			if err := hook.fn(ctx); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", hook.name, err))
				mu.Unlock()
			}
		})
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return errors.Join(errs...)
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout after %v", timeout)
	}
}
