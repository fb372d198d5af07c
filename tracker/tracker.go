package tracker

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/TeamStorm/storm/clock"
	"github.com/TeamStorm/storm/db"
	"github.com/TeamStorm/storm/messenger"
	"github.com/TeamStorm/storm/stream"
	"github.com/TeamStorm/storm/watcher"
)

// reannounceGap is how long a stream has to stay un-announced before
// going live produces another report.
const reannounceGap = time.Hour

// Tracker consumes update cycles from a watcher, commits every result
// envelope to its stream, and announces streams that transition to live.
type Tracker struct {
	w       watcher.Watcher
	m       messenger.Messenger
	streams []*stream.Stream
}

func NewTracker(w watcher.Watcher, m messenger.Messenger, ss []*stream.Stream) *Tracker {
	return &Tracker{
		w:       w,
		m:       m,
		streams: ss,
	}
}

// Track starts the watcher and processes cycles until its source closes.
func (t *Tracker) Track(c context.Context) {
	go t.w.Watch(c)

	for results := range t.w.Source() {
		t.commit(c, results)
	}
}

// Live returns the streams that are currently broadcasting.
func (t *Tracker) Live() []*stream.Stream {
	live := make([]*stream.Stream, 0)

	for _, s := range t.streams {
		if s.Status == stream.Public || s.Status == stream.Rerun {
			live = append(live, s)
		}
	}

	return live
}

// commit applies every envelope, even failure-path ones: the intent
// already encodes the correct degraded state. Diagnostic messages are
// logged, never used to block the commit.
func (t *Tracker) commit(c context.Context, results []stream.Result) {
	wentLive := make([]*stream.Stream, 0)

	for _, result := range results {
		wasLive := result.Stream.Status == stream.Public

		result.Commit()

		if result.Message != "" {
			log.Printf("%s: %s (status code %d)", result.Stream.URI, result.Message, result.StatusCode)
		}

		if !wasLive && result.Stream.Status == stream.Public {
			wentLive = append(wentLive, result.Stream)
		}
	}

	if len(wentLive) == 0 {
		return
	}

	// Rooms are only needed for announcing; a failure here must not
	// prevent the envelopes above from taking effect.
	rooms, err := db.RoomsAll(c)
	if err != nil {
		log.Printf("Failed to retrieve rooms: %s", err)
		return
	}

	for _, s := range wentLive {
		t.announce(c, rooms, s)
	}
}

func (t *Tracker) announce(c context.Context, rooms []db.Room, s *stream.Stream) {
	reported, err := t.recentlyReported(c, s)
	if err != nil {
		log.Printf("Failed to retrieve last report: %s", err)
		return
	}

	if reported {
		return
	}

	report := db.Report{
		URI:        s.Key(),
		ReportedAt: clock.NowUTC(),
	}
	if err := db.ReportStore(c, report); err != nil {
		log.Printf("Failed to store the report: %s", err)
	}

	for _, room := range rooms {
		if err := t.m.MessageStream(c, room.ID, s); err != nil {
			log.Printf("Failed to report the stream: %s", err)

			break
		}
	}
}

// recentlyReported answers whether the stream was announced within the
// re-announce gap, so short drops do not spam the rooms.
func (t *Tracker) recentlyReported(c context.Context, s *stream.Stream) (bool, error) {
	report, err := db.ReportLatestFor(c, s.Key())
	if err == sql.ErrNoRows {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return clock.Since(report.ReportedAt) < reannounceGap, nil
}
