package geolib

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

type circuitBreakerCallback func(context.Context) (*http.Response, error)

const (
	circuitBreakerStateClosed uint32 = iota
	circuitBreakerStateHalfOpened
	circuitBreakerStateOpened
)

type circuitBreaker struct {
	state            atomic.Uint32
	halfOpenAttempts atomic.Uint32
	mutex            sync.Mutex

	halfOpenTimer        *time.Timer
	failuresCleanupTimer *time.Timer
	failuresCount        uint32

	openThreshold        uint32
	halfOpenTimeout      time.Duration
	resetFailuresTimeout time.Duration
}

func (c *circuitBreaker) Do(ctx context.Context, callback circuitBreakerCallback) (*http.Response, error) {
	switch c.state.Load() {
	case circuitBreakerStateClosed:
		return c.doClosed(ctx, callback)
	case circuitBreakerStateHalfOpened:
		return c.doHalfOpened(ctx, callback)
	default:
		return nil, ErrCircuitBreakerOpened
	}
}

func (c *circuitBreaker) doClosed(ctx context.Context, callback circuitBreakerCallback) (*http.Response, error) {
	resp, err := callback(ctx)
	if c.isIgnored(ctx, err) {
		return resp, err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if err == nil {
		if c.state.Load() == circuitBreakerStateClosed {
			c.switchState(circuitBreakerStateClosed)
		}

		return resp, nil
	}

	c.failuresCount++

	if c.state.Load() == circuitBreakerStateClosed && c.failuresCount > c.openThreshold {
		c.switchState(circuitBreakerStateOpened)
	}

	return resp, err
}

func (c *circuitBreaker) doHalfOpened(ctx context.Context, callback circuitBreakerCallback) (*http.Response, error) {
	if !c.halfOpenAttempts.CompareAndSwap(0, 1) {
		return nil, ErrCircuitBreakerOpened
	}

	resp, err := callback(ctx)
	if c.isIgnored(ctx, err) {
		c.halfOpenAttempts.Store(0)

		return resp, err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.state.Load() != circuitBreakerStateHalfOpened {
		return resp, err
	}

	if err != nil {
		c.switchState(circuitBreakerStateOpened)
	} else {
		c.switchState(circuitBreakerStateClosed)
	}

	return resp, err
}

func (c *circuitBreaker) isIgnored(ctx context.Context, err error) bool {
	return err != nil && (errors.Is(err, ErrCircuitBreakerIgnore) || ctx.Err() != nil)
}

// switchState has to be called under the mutex.
func (c *circuitBreaker) switchState(state uint32) {
	switch state {
	case circuitBreakerStateClosed:
		c.stopTimer(&c.halfOpenTimer)
		c.ensureTimer(&c.failuresCleanupTimer, c.resetFailuresTimeout, c.resetFailures)
	case circuitBreakerStateHalfOpened:
		c.stopTimer(&c.failuresCleanupTimer)
		c.stopTimer(&c.halfOpenTimer)
	case circuitBreakerStateOpened:
		c.stopTimer(&c.failuresCleanupTimer)
		c.ensureTimer(&c.halfOpenTimer, c.halfOpenTimeout, c.tryHalfOpen)
	}

	c.failuresCount = 0

	c.halfOpenAttempts.Store(0)
	c.state.Store(state)
}

func (c *circuitBreaker) resetFailures() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.stopTimer(&c.failuresCleanupTimer)

	if c.state.Load() == circuitBreakerStateClosed {
		c.switchState(circuitBreakerStateClosed)
	}
}

func (c *circuitBreaker) tryHalfOpen() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.state.Load() == circuitBreakerStateOpened {
		c.switchState(circuitBreakerStateHalfOpened)
	}
}

func (c *circuitBreaker) stopTimer(timerRef **time.Timer) {
	if *timerRef == nil {
		return
	}

	(*timerRef).Stop()
	*timerRef = nil
}

func (c *circuitBreaker) ensureTimer(timerRef **time.Timer, timeout time.Duration, callback func()) {
	if *timerRef == nil {
		*timerRef = time.AfterFunc(timeout, callback)
	}
}

func newCircuitBreaker(openThreshold uint32,
	halfOpenTimeout, resetFailuresTimeout time.Duration) *circuitBreaker {
	cb := &circuitBreaker{
		openThreshold:        openThreshold,
		halfOpenTimeout:      halfOpenTimeout,
		resetFailuresTimeout: resetFailuresTimeout,
	}

	cb.mutex.Lock()
	cb.switchState(circuitBreakerStateClosed)
	cb.mutex.Unlock()

	return cb
}
