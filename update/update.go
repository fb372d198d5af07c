package update

import (
	"context"
	"log"

	"github.com/TeamStorm/storm/stream"
)

// Coordinator owns the tracked stream set and drives one update cycle
// across the registered provider updaters. It never commits results
// itself; applying each result's intent is the caller's separate step.
type Coordinator struct {
	streams  []*stream.Stream
	updaters map[stream.Provider]stream.Updater
}

func NewCoordinator(ss []*stream.Stream, updaters map[stream.Provider]stream.Updater) *Coordinator {
	return &Coordinator{
		streams:  ss,
		updaters: updaters,
	}
}

// Streams returns the tracked stream set.
func (co *Coordinator) Streams() []*stream.Stream {
	return co.streams
}

// Refresh runs one update cycle: streams are grouped by provider, each
// group goes to its updater in one Update call, and the resulting
// envelopes are concatenated. Providers without a registered updater
// (Unsupported among them) are skipped. A failing provider is logged
// and skipped so one misconfigured service does not starve the rest;
// cancellation aborts the whole cycle.
func (co *Coordinator) Refresh(c context.Context) ([]stream.Result, error) {
	results := make([]stream.Result, 0, len(co.streams))

	for provider, group := range co.grouped() {
		updater, registered := co.updaters[provider]
		if !registered {
			continue
		}

		rs, err := updater.Update(c, group)
		if err != nil {
			if c.Err() != nil {
				return nil, err
			}

			log.Printf("Failed to update %s streams: %s", provider, err)
			continue
		}

		results = append(results, rs...)
	}

	return results, nil
}

// grouped splits the stream set by provider, preserving the set's order
// within each group.
func (co *Coordinator) grouped() map[stream.Provider][]*stream.Stream {
	groups := make(map[stream.Provider][]*stream.Stream)

	for _, s := range co.streams {
		groups[s.Provider] = append(groups[s.Provider], s)
	}

	return groups
}
