// Package notify provides sources of "power source changed" notifications.
//
// A notification carries no payload; it only tells the receiver to probe
// the hardware again. Callbacks may run on any goroutine.
package notify

import (
	"errors"
)

// Callback is invoked on every notification.
type Callback func()

// Registration is returned by Register and cancels the notification.
type Registration interface {
	Stop()
}

// Notifier delivers notifications to a registered callback.
type Notifier interface {
	Register(cb Callback) (Registration, error)
}

// Multi registers the callback with every notifier. If one of them fails,
// the registrations made so far are cancelled and the error is returned.
type Multi []Notifier

func (m Multi) Register(cb Callback) (Registration, error) {
	if len(m) == 0 {
		return nil, errors.New("no notifiers configured")
	}

	regs := make(multiRegistration, 0, len(m))
	for _, n := range m {
		r, err := n.Register(cb)
		if err != nil {
			regs.Stop()
			return nil, err
		}
		regs = append(regs, r)
	}
	return regs, nil
}

type multiRegistration []Registration

func (m multiRegistration) Stop() {
	for _, r := range m {
		r.Stop()
	}
}
