package stream

import (
	"context"
	"net/url"
)

// Provider identifies the streaming service a stream belongs to.
type Provider int

const (
	Unsupported Provider = iota
	Twitch
	Chaturbate
	Mixer
	Mixlr
	Kick
)

func (p Provider) String() string {
	switch p {
	case Twitch:
		return "Twitch"
	case Chaturbate:
		return "Chaturbate"
	case Mixer:
		return "Mixer"
	case Mixlr:
		return "Mixlr"
	case Kick:
		return "Kick"
	default:
		return "Unsupported"
	}
}

// Status of a stream as decided by the most recent update cycle.
// Any status may follow any other; updaters classify from fresh
// service data, never from the prior value.
type Status int

const (
	// Unknown is the status of a stream that has never been updated.
	Unknown Status = iota
	Offline
	// Public means the stream is currently live.
	Public
	Rerun
	Banned
)

func (s Status) String() string {
	switch s {
	case Offline:
		return "offline"
	case Public:
		return "live"
	case Rerun:
		return "rerun"
	case Banned:
		return "banned"
	default:
		return "unknown"
	}
}

// Game is the category a stream is currently broadcasting under.
// A new value replaces the old one wholesale.
type Game struct {
	// ID is the service-scoped category identifier.
	ID int

	// Name is the human-readable category label.
	Name string
}

// Equal reports whether two games are the same category. Identity is
// the ID alone; the label may vary.
func (g Game) Equal(other Game) bool {
	return g.ID == other.ID
}

// Stream represents one tracked stream endpoint on a streaming service.
//
// URI, Provider and Name are fixed at classification time. The
// remaining fields are owned by the update cycle and change only when
// a Result's intent is committed.
type Stream struct {
	// URI is the canonical stream URL the stream was classified from.
	URI *url.URL

	// Provider is the service this stream belongs to.
	Provider Provider

	// Name is the service-side identifier (e.g. the Twitch login),
	// derived from the URL path.
	Name string

	// DisplayName is the service-supplied human label. It survives
	// failed or ambiguous updates rather than being blanked.
	DisplayName string

	// Status as of the last committed update.
	Status Status

	// ViewersCount is nil unless the stream is live.
	ViewersCount *int

	// Game is nil when the service reports no usable category.
	Game *Game
}

// Key is the identity used for deduplication across a classified batch.
func (s *Stream) Key() string {
	return s.URI.String()
}

// Intent is a pending mutation for a single stream. Updaters describe
// what should happen to a stream without touching it; the mutation runs
// only when the owner of the stream applies the intent.
type Intent interface {
	Apply(s *Stream)
}

// MarkOffline resets a stream to offline, clearing the viewer count and
// game. The display name is kept so a known name does not flicker away
// on a failed cycle.
type MarkOffline struct{}

func (MarkOffline) Apply(s *Stream) {
	s.Status = Offline
	s.ViewersCount = nil
	s.Game = nil
}

// MarkBanned marks a stream as banned, clearing the viewer count and
// game and keeping the display name.
type MarkBanned struct{}

func (MarkBanned) Apply(s *Stream) {
	s.Status = Banned
	s.ViewersCount = nil
	s.Game = nil
}

// SetDetails replaces every mutable field from fresh service data.
type SetDetails struct {
	DisplayName  string
	Status       Status
	ViewersCount *int
	Game         *Game
}

func (d SetDetails) Apply(s *Stream) {
	s.DisplayName = d.DisplayName
	s.Status = d.Status
	s.ViewersCount = d.ViewersCount
	s.Game = d.Game
}

// Result binds one stream to the outcome of an update cycle: the HTTP
// status code the service answered with, an optional diagnostic message
// for logging, and the intent to commit. A Result never mutates its
// stream by itself.
type Result struct {
	Stream     *Stream
	StatusCode int
	Message    string
	Intent     Intent
}

// Commit applies the result's intent to its stream.
func (r Result) Commit() {
	if r.Intent != nil {
		r.Intent.Apply(r.Stream)
	}
}

// Kind tells how many streams an updater resolves per service call.
type Kind int

const (
	// One means the updater issues one service call per stream.
	One Kind = iota

	// Many means a single service call resolves an arbitrary-size batch.
	Many
)

// Updater knows how to refresh the status of streams on one service.
type Updater interface {
	Kind() Kind

	// Update produces exactly one Result per input stream, in input
	// order. Ordinary network and data failures become degraded
	// results; an error is returned only for configuration faults,
	// cancellation, or a service breaking its response contract.
	Update(c context.Context, ss []*Stream) ([]Result, error)
}
