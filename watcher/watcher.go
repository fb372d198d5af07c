package watcher

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/TeamStorm/storm/stream"
)

// Refresher runs one update cycle, producing one result envelope per
// tracked stream. Implementations should honour context cancellation.
type Refresher interface {
	Refresh(c context.Context) ([]stream.Result, error)
}

// Watcher periodically refreshes the tracked streams.
type Watcher interface {
	// Watch starts the watcher's loop. This has to be called prior to
	// receiving any values from Source.
	Watch(c context.Context) error

	// Source returns a channel of update-cycle results.
	// In order to receive values on this channel, Watch has to be called before.
	Source() <-chan []stream.Result
}

// Periodic returns a watcher that runs a refresh cycle with the given
// refresher every d.
func Periodic(r Refresher, d time.Duration) Watcher {
	return &periodicT{
		r: r,
		d: d,
		c: make(chan []stream.Result),
	}
}

type periodicT struct {
	r Refresher
	d time.Duration
	c chan []stream.Result
}

func (p *periodicT) Watch(c context.Context) error {
	ticker := time.NewTicker(p.d)
	for range ticker.C {
		select {
		default:
			p.check(c)
		case <-c.Done():
			ticker.Stop()
			close(p.c)

			return nil
		}
	}
	return nil
}

func (p *periodicT) Source() <-chan []stream.Result {
	return p.c
}

func (p *periodicT) check(c context.Context) {
	results, err := p.r.Refresh(c)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Printf("Failed to refresh streams: %s", err)
		}

		return
	}

	p.c <- results
}
