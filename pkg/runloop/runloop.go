// Package runloop provides the single goroutine that owns mutable
// application state. Other goroutines never touch that state directly;
// they post closures to the loop, which runs them one at a time in the
// order they were posted.
package runloop

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
)

// ErrClosed is returned when posting to a loop that has stopped.
var ErrClosed = errors.New("run loop closed")

// Loop is a FIFO executor. Post never blocks and never drops a message.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	closed  bool
	wake    chan struct{}
	done    chan struct{}
	runOnce sync.Once
}

// New returns a loop that is not running yet. Messages posted before Run
// are kept and processed once Run starts.
func New() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Post enqueues fn. It is safe to call from any goroutine, including from
// inside a function running on the loop.
func (l *Loop) Post(fn func()) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return nil
}

// Do posts fn and waits until it has run. It must not be called from a
// function that is itself running on the loop.
func (l *Loop) Do(fn func()) error {
	finished := make(chan struct{})
	err := l.Post(func() {
		defer close(finished)
		fn()
	})
	if err != nil {
		return err
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
		select {
		case <-finished:
			return nil
		default:
			return ErrClosed
		}
	}
}

// Done is closed after Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Run processes messages until ctx is cancelled. Messages still queued at
// that point are discarded. Run may only be called once.
func (l *Loop) Run(ctx context.Context) error {
	started := false
	l.runOnce.Do(func() { started = true })
	if !started {
		return errors.New("run loop already started")
	}
	defer close(l.done)

	logrus.Debug("run loop started")
	defer logrus.Debug("run loop stopped")

	for {
		select {
		case <-ctx.Done():
			l.close()
			return ctx.Err()
		default:
		}

		l.mu.Lock()
		batch := l.queue
		l.queue = nil
		l.mu.Unlock()

		for _, fn := range batch {
			l.invoke(fn)
		}
		if len(batch) > 0 {
			continue
		}

		select {
		case <-ctx.Done():
			l.close()
			return ctx.Err()
		case <-l.wake:
		}
	}
}

func (l *Loop) close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	if n := len(l.queue); n > 0 {
		logrus.WithField("dropped", n).Debug("run loop closing with pending messages")
	}
	l.queue = nil
}

func (l *Loop) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("panic in run loop message: %v", r)
		}
	}()
	fn()
}
