package testutil

import (
	"context"

	"github.com/TeamStorm/storm/stream"
)

var _ stream.Updater = &Updater{}

// Updater is a fake stream.Updater that records the batches it was
// given and answers every stream with a scripted intent.
type Updater struct {
	// Intent handed out for every stream. Defaults to MarkOffline.
	Intent stream.Intent

	// Err, when set, is returned instead of any results.
	Err error

	// Batches records the input of every Update call.
	Batches [][]*stream.Stream
}

func (u *Updater) Kind() stream.Kind {
	return stream.Many
}

func (u *Updater) Update(c context.Context, ss []*stream.Stream) ([]stream.Result, error) {
	u.Batches = append(u.Batches, ss)

	if u.Err != nil {
		return nil, u.Err
	}

	intent := u.Intent
	if intent == nil {
		intent = stream.MarkOffline{}
	}

	results := make([]stream.Result, 0, len(ss))
	for _, s := range ss {
		results = append(results, stream.Result{Stream: s, StatusCode: 200, Intent: intent})
	}

	return results, nil
}
