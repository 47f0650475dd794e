package validator

import (
	"context"
	"sync"

	"github.com/fystack/solana-studio/pkg/common/logger"
)

// Observer receives every status transition exactly once, in order.
type Observer func(Status)

type Option func(*Controller)

func WithObserver(o Observer) Option {
	return func(c *Controller) {
		c.observers = append(c.observers, o)
	}
}

// Controller drives a Process through Stopped → Starting → Running →
// Stopping → Stopped, with Error(reason) reachable from a failed start.
// It is the only writer of the status.
type Controller struct {
	proc Process

	mu        sync.Mutex
	status    Status
	observers []Observer
	pending   []Status

	deliverMu sync.Mutex
}

func NewController(proc Process, opts ...Option) *Controller {
	c := &Controller{
		proc:   proc,
		status: Status{State: StateStopped},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe registers an additional observer for future transitions.
func (c *Controller) Subscribe(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, o)
}

// Status is a pure read and safe from any goroutine.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Start launches the validator from Stopped or Error. In any other state it
// only reports the current status, so a second process is never spawned.
func (c *Controller) Start(ctx context.Context) (Status, error) {
	c.mu.Lock()
	if c.status.holdsProcess() {
		current := c.status
		c.mu.Unlock()
		logger.Debug("Validator start ignored", "status", current.String())
		return current, nil
	}
	c.setLocked(Status{State: StateStarting})
	c.mu.Unlock()
	c.deliver()

	err := c.proc.Start(ctx)

	c.mu.Lock()
	next := Status{State: StateRunning}
	if err != nil {
		next = Status{State: StateError, Reason: err.Error()}
	}
	c.setLocked(next)
	c.mu.Unlock()
	c.deliver()

	if err != nil {
		logger.Error("Validator failed to start", "err", err)
		return next, err
	}
	return next, nil
}

// Stop terminates a running validator. From any state other than Running
// it is a no-op reporting the current status. That includes Error: Stop
// never clears it, and only a fresh Start leaves Error.
func (c *Controller) Stop(ctx context.Context) (Status, error) {
	c.mu.Lock()
	if c.status.State != StateRunning {
		current := c.status
		c.mu.Unlock()
		return current, nil
	}
	c.setLocked(Status{State: StateStopping})
	c.mu.Unlock()
	c.deliver()

	err := c.proc.Stop(ctx)

	c.mu.Lock()
	next := Status{State: StateStopped}
	if err != nil {
		next = Status{State: StateError, Reason: err.Error()}
	}
	c.setLocked(next)
	c.mu.Unlock()
	c.deliver()

	return next, err
}

// ReadLine returns the next captured line of validator output.
func (c *Controller) ReadLine() string {
	return c.proc.ReadLine()
}

// setLocked records a transition and queues it for observers. c.mu must be held.
func (c *Controller) setLocked(next Status) {
	prev := c.status
	c.status = next
	c.pending = append(c.pending, next)
	logger.Info("Validator status changed", "from", prev.String(), "to", next.String())
}

// deliver flushes queued transitions to observers in the order they were
// recorded. If another goroutine is already delivering it picks up our
// events, so an observer that calls back into the controller cannot deadlock.
func (c *Controller) deliver() {
	for {
		if !c.deliverMu.TryLock() {
			return
		}

		c.mu.Lock()
		batch := c.pending
		c.pending = nil
		observers := append([]Observer(nil), c.observers...)
		c.mu.Unlock()

		for _, s := range batch {
			for _, o := range observers {
				notify(o, s)
			}
		}
		c.deliverMu.Unlock()

		c.mu.Lock()
		empty := len(c.pending) == 0
		c.mu.Unlock()
		if empty {
			return
		}
	}
}

// notify isolates a panicking observer so the rest still hear about s and
// delivery is not left locked.
func notify(o Observer, s Status) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Validator status observer panicked", "status", s.String(), "panic", r)
		}
	}()
	o(s)
}
