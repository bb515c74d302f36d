//go:build !windows

package notify

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/sirupsen/logrus"
)

// Signal notifies on SIGUSR1, so `kill -USR1 <pid>` forces a re-probe.
type Signal struct {
	sig os.Signal
}

func NewSignal() *Signal {
	return &Signal{sig: syscall.SIGUSR1}
}

func (s *Signal) Register(cb Callback) (Registration, error) {
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, s.sig)

	r := &signalRegistration{sigc: sigc, stop: make(chan struct{})}
	go func() {
		for {
			select {
			case <-sigc:
				logrus.WithField("signal", s.sig.String()).Debug("received refresh signal")
				cb()
			case <-r.stop:
				return
			}
		}
	}()

	return r, nil
}

type signalRegistration struct {
	sigc chan os.Signal
	stop chan struct{}
	once sync.Once
}

func (r *signalRegistration) Stop() {
	r.once.Do(func() {
		signal.Stop(r.sigc)
		close(r.stop)
	})
}
