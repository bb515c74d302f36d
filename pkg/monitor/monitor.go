// Package monitor keeps the authoritative PowerState snapshot up to date
// and tells subscribers about every replacement.
package monitor

import (
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/battmoji/pkg/notify"
	"github.com/charlie0129/battmoji/pkg/powerinfo"
	"github.com/charlie0129/battmoji/pkg/probe"
	"github.com/charlie0129/battmoji/pkg/runloop"
)

// SubscriptionID identifies a subscriber.
type SubscriptionID uint64

// Listener receives every new snapshot on the run loop.
type Listener func(powerinfo.PowerState)

type subscription struct {
	id SubscriptionID
	fn Listener
}

// Monitor owns the PowerState snapshot. The snapshot and the subscriber
// list are only mutated on the run loop; reads from other goroutines get
// a copy.
type Monitor struct {
	probe    probe.Probe
	notifier notify.Notifier
	loop     *runloop.Loop

	mu    sync.RWMutex
	state powerinfo.PowerState
	// subs keeps subscription order; listeners are called in that order.
	subs   []subscription
	nextID SubscriptionID

	reg notify.Registration
}

// New returns a monitor holding the default state. Call Initialize to
// start receiving notifications.
func New(p probe.Probe, n notify.Notifier, loop *runloop.Loop) *Monitor {
	return &Monitor{
		probe:    p,
		notifier: n,
		loop:     loop,
		state:    powerinfo.DefaultState(),
	}
}

// Initialize registers for power source notifications and refreshes once.
// The loop must be running. A registration error is returned, but the
// monitor stays usable: it keeps its last known state and manual refreshes
// still work.
func (m *Monitor) Initialize() error {
	var regErr error
	if m.notifier != nil {
		reg, err := m.notifier.Register(m.Refresh)
		if err != nil {
			regErr = pkgerrors.Wrapf(err, "failed to register for power source notifications")
			logrus.WithError(err).Error("power source notifications unavailable, status will not update automatically")
		} else {
			m.reg = reg
		}
	}

	if err := m.RefreshSync(); err != nil {
		logrus.WithError(err).Error("initial refresh failed")
	}

	return regErr
}

// Refresh requests a re-probe. It is safe to call from any goroutine and
// returns immediately; the work happens on the loop in arrival order.
func (m *Monitor) Refresh() {
	if err := m.loop.Post(m.refresh); err != nil {
		logrus.WithError(err).Debug("dropping refresh request")
	}
}

// RefreshSync is like Refresh but waits until the refresh was processed.
// It must not be called from the loop.
func (m *Monitor) RefreshSync() error {
	return m.loop.Do(m.refresh)
}

// refresh runs on the loop.
func (m *Monitor) refresh() {
	sources, err := m.probe.Sources()
	if err != nil {
		logrus.WithError(err).Warn("failed to probe power sources, keeping last known state")
		return
	}
	if len(sources) == 0 {
		logrus.Debug("no power sources reported, keeping last known state")
		return
	}

	next := powerinfo.Derive(sources[0])

	m.mu.Lock()
	m.state = next
	subs := make([]subscription, len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"pluggedIn":  next.PluggedIn,
		"percentage": next.Percentage,
		"charging":   next.Charging,
		"health":     next.Health,
	}).Trace("power state refreshed")

	for _, s := range subs {
		s.fn(next)
	}
}

// CurrentState returns the latest snapshot.
func (m *Monitor) CurrentState() powerinfo.PowerState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Subscribe adds a listener called after every snapshot replacement.
func (m *Monitor) Subscribe(fn Listener) SubscriptionID {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	id := m.nextID
	m.subs = append(m.subs, subscription{id: id, fn: fn})
	return id
}

// Unsubscribe removes a listener. Unknown ids are ignored.
func (m *Monitor) Unsubscribe(id SubscriptionID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, s := range m.subs {
		if s.id == id {
			m.subs = append(m.subs[:i:i], m.subs[i+1:]...)
			return
		}
	}
}

// FormatStatus renders the menu bar indicator for the current state.
func (m *Monitor) FormatStatus(emoji string) string {
	return powerinfo.FormatStatus(m.CurrentState(), emoji)
}

// FormatDuration renders minutes as "{hours}h {minutes}m".
func (m *Monitor) FormatDuration(minutes int) string {
	return powerinfo.FormatDuration(minutes)
}

// Close cancels the notification registration.
func (m *Monitor) Close() {
	if m.reg != nil {
		m.reg.Stop()
		m.reg = nil
	}
}
