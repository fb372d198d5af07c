package mixer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/TeamStorm/storm/stream"
)

const defaultChannelFormat = "https://mixer.com/api/v1/channels/%s"

// Updater resolves Mixer streams against the channel API.
//
// The service was discontinued in 2020; URLs that still point at it
// keep classifying, and every cycle degrades to the same offline-reset
// result a transport fault produces.
type Updater struct {
	client        *http.Client
	channelFormat string
}

func NewUpdater(client *http.Client) *Updater {
	return &Updater{
		client:        client,
		channelFormat: defaultChannelFormat,
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
	req, err := http.NewRequestWithContext(c, http.MethodGet, fmt.Sprintf(u.channelFormat, s.Name), nil)
	if err != nil {
		return stream.Result{}, err
	}

	resp, err := u.client.Do(req)
	if err != nil {
		if c.Err() != nil {
			return stream.Result{}, fmt.Errorf("mixer: update abandoned: %w", c.Err())
		}

		return stream.Result{Stream: s, Message: err.Error(), Intent: stream.MarkOffline{}}, nil
	}
	defer resp.Body.Close()

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

	var channel channelT
	if err := json.NewDecoder(resp.Body).Decode(&channel); err != nil {
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

	if channel.Token != "" {
		details.DisplayName = channel.Token
	}

	if channel.Online {
		details.Status = stream.Public
		details.ViewersCount = channel.ViewersCurrent
	}

	return stream.Result{Stream: s, StatusCode: resp.StatusCode, Intent: details}, nil
}

type channelT struct {
	// Token is the channel name.
	Token string `json:"token"`

	Online bool `json:"online"`

	ViewersCurrent *int `json:"viewersCurrent"`
}
