package services

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Countdown calls tick on every interval until stopped.
// Stop never waits for the goroutine, so tick may call Stop itself.
type Countdown struct {
	stop chan struct{}
	once sync.Once
}

func StartCountdown(clock clockwork.Clock, interval time.Duration, tick func()) *Countdown {
	cd := &Countdown{stop: make(chan struct{})}
	ticker := clock.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.Chan():
				select {
				case <-cd.stop:
					return
				default:
				}
				tick()
			case <-cd.stop:
				return
			}
		}
	}()
	return cd
}

func (cd *Countdown) Stop() {
	if cd == nil {
		return
	}
	cd.once.Do(func() { close(cd.stop) })
}
