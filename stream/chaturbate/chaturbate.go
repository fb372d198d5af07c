package chaturbate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/TeamStorm/storm/stream"
)

const defaultRoomFormat = "https://chaturbate.com/api/chatvideocontext/%s/"

// Updater resolves Chaturbate streams one room at a time.
type Updater struct {
	client     *http.Client
	roomFormat string
}

func NewUpdater(client *http.Client) *Updater {
	return &Updater{
		client:     client,
		roomFormat: defaultRoomFormat,
	}
}

var _ stream.Updater = &Updater{}

func (u *Updater) Kind() stream.Kind {
	return stream.One
}

func (u *Updater) Update(c context.Context, ss []*stream.Stream) ([]stream.Result, error) {
	results := make([]stream.Result, 0, len(ss))

	for _, s := range ss {
		result, err := u.updateOne(c, s)
		if err != nil {
			return nil, err
		}

		results = append(results, result)
	}

	return results, nil
}

func (u *Updater) updateOne(c context.Context, s *stream.Stream) (stream.Result, error) {
	req, err := http.NewRequestWithContext(c, http.MethodGet, fmt.Sprintf(u.roomFormat, s.Name), nil)
	if err != nil {
		return stream.Result{}, err
	}

	resp, err := u.client.Do(req)
	if err != nil {
		if c.Err() != nil {
			return stream.Result{}, fmt.Errorf("chaturbate: update abandoned: %w", c.Err())
		}

		return stream.Result{Stream: s, Message: err.Error(), Intent: stream.MarkOffline{}}, nil
	}
	defer resp.Body.Close()

	// A room that no longer exists is indistinguishable from a banned
	// account, same collapse as the Twitch updater.
	if resp.StatusCode == http.StatusNotFound {
		return stream.Result{Stream: s, StatusCode: resp.StatusCode, Intent: stream.MarkBanned{}}, nil
	}

	if resp.StatusCode != http.StatusOK {
		return stream.Result{
			Stream:     s,
			StatusCode: resp.StatusCode,
			Message:    "status code was not OK",
			Intent:     stream.MarkOffline{},
		}, nil
	}

	var room roomT
	if err := json.NewDecoder(resp.Body).Decode(&room); err != nil {
		return stream.Result{
			Stream:     s,
			StatusCode: resp.StatusCode,
			Message:    "JSON parsing failed",
			Intent:     stream.MarkOffline{},
		}, nil
	}

	details := stream.SetDetails{
		DisplayName: s.Name,
		Status:      stream.Offline,
	}

	if room.Broadcaster != "" {
		details.DisplayName = room.Broadcaster
	}

	if room.RoomStatus == "public" {
		details.Status = stream.Public
		details.ViewersCount = room.NumViewers
	}

	return stream.Result{Stream: s, StatusCode: resp.StatusCode, Intent: details}, nil
}

type roomT struct {
	// RoomStatus is e.g. "public", "private", "away" or "offline".
	RoomStatus string `json:"room_status"`

	Broadcaster string `json:"broadcaster_username"`

	NumViewers *int `json:"num_viewers"`
}
