package testutil

import (
	"context"

	"github.com/TeamStorm/storm/stream"
	"github.com/TeamStorm/storm/watcher"
)

var _ watcher.Watcher = &Watcher{}

// Watcher is a fake watcher fed by hand from tests.
type Watcher struct {
	c chan []stream.Result
}

func NewWatcher() *Watcher {
	return &Watcher{
		c: make(chan []stream.Result),
	}
}

func (w *Watcher) Watch(c context.Context) error {
	return nil
}

func (w *Watcher) Source() <-chan []stream.Result {
	return w.c
}

func (w *Watcher) Send(results []stream.Result) {
	w.c <- results
}

func (w *Watcher) Close() error {
	close(w.c)

	return nil
}
