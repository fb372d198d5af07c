package mixlr

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/TeamStorm/storm/stream"
)

const defaultUserFormat = "https://api.mixlr.com/users/%s"

// Updater resolves Mixlr streams one user at a time.
type Updater struct {
	client     *http.Client
	userFormat string
}

func NewUpdater(client *http.Client) *Updater {
	return &Updater{
		client:     client,
		userFormat: defaultUserFormat,
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
	req, err := http.NewRequestWithContext(c, http.MethodGet, fmt.Sprintf(u.userFormat, s.Name), nil)
	if err != nil {
		return stream.Result{}, err
	}

	resp, err := u.client.Do(req)
	if err != nil {
		if c.Err() != nil {
			return stream.Result{}, fmt.Errorf("mixlr: update abandoned: %w", c.Err())
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

	var user userT
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
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

	if user.Username != "" {
		details.DisplayName = user.Username
	}

	if user.IsLive {
		details.Status = stream.Public
	}

	return stream.Result{Stream: s, StatusCode: resp.StatusCode, Intent: details}, nil
}

type userT struct {
	Username string `json:"username"`
	IsLive   bool   `json:"is_live"`
}
