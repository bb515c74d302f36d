package notify

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type failingNotifier struct{}

func (failingNotifier) Register(Callback) (Registration, error) {
	return nil, errors.New("boom")
}

// manual is fired explicitly by calling Fire.
type manual struct {
	mu  sync.RWMutex
	cbs map[*manualRegistration]Callback
}

func newManual() *manual {
	return &manual{cbs: make(map[*manualRegistration]Callback)}
}

func (m *manual) Register(cb Callback) (Registration, error) {
	if cb == nil {
		return nil, errors.New("callback cannot be nil")
	}
	r := &manualRegistration{m: m}
	m.mu.Lock()
	m.cbs[r] = cb
	m.mu.Unlock()
	return r, nil
}

// Fire invokes every registered callback on the calling goroutine.
func (m *manual) Fire() {
	m.mu.RLock()
	cbs := make([]Callback, 0, len(m.cbs))
	for _, cb := range m.cbs {
		cbs = append(cbs, cb)
	}
	m.mu.RUnlock()

	for _, cb := range cbs {
		cb()
	}
}

type manualRegistration struct {
	m *manual
}

func (r *manualRegistration) Stop() {
	r.m.mu.Lock()
	delete(r.m.cbs, r)
	r.m.mu.Unlock()
}

func TestPollerInvalidSchedule(t *testing.T) {
	p := NewPoller("not a schedule")
	if _, err := p.Register(func() {}); err == nil {
		t.Fatalf("expected an error for an invalid schedule")
	}
}

func TestPollerFires(t *testing.T) {
	fired := make(chan struct{}, 4)
	p := NewPoller("@every 1s")
	reg, err := p.Register(func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	defer reg.Stop()

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatalf("poller did not fire in time")
	}
}

func TestMultiFailureStopsEarlierRegistrations(t *testing.T) {
	m := newManual()
	var calls int32

	_, err := Multi{m, failingNotifier{}}.Register(func() { atomic.AddInt32(&calls, 1) })
	if err == nil {
		t.Fatalf("expected an error when one notifier fails")
	}

	m.Fire()
	if got := atomic.LoadInt32(&calls); got != 0 {
		t.Fatalf("expected earlier registrations to be stopped, got %d calls", got)
	}
}

func TestMultiEmpty(t *testing.T) {
	if _, err := (Multi{}).Register(func() {}); err == nil {
		t.Fatalf("expected an error for an empty Multi")
	}
}

func TestMultiDeliversFromEveryNotifier(t *testing.T) {
	a, b := newManual(), newManual()
	var calls int32

	reg, err := Multi{a, b}.Register(func() { atomic.AddInt32(&calls, 1) })
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	a.Fire()
	b.Fire()
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("expected 2 calls, got %d", got)
	}

	reg.Stop()
	a.Fire()
	b.Fire()
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("expected no calls after Stop, got %d", got)
	}
}
