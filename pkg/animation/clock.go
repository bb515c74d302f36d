package animation

import (
	"sync"
	"time"
)

// Clock tells the time and drives periodic ticks.
type Clock interface {
	Now() time.Time
	// Every calls fn every d until the returned stop function is called.
	// fn runs on a goroutine owned by the clock.
	Every(d time.Duration, fn func()) (stop func())
}

// RealClock is backed by the time package.
type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

func (RealClock) Every(d time.Duration, fn func()) func() {
	t := time.NewTicker(d)
	done := make(chan struct{})

	go func() {
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				fn()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}
