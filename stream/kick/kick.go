package kick

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/TeamStorm/storm/stream"
)

const (
	defaultTokenURL = "https://id.kick.com/oauth/token"
	defaultAPIURL   = "https://api.kick.com/public/v1/channels"
)

// ErrNoCredentials is returned when an update is attempted without
// OAuth client credentials configured.
var ErrNoCredentials = errors.New("kick: client credentials are not configured")

// Options configures the Kick updater. Kick's public API authenticates
// with OAuth2 client credentials.
type Options struct {
	ClientID     string
	ClientSecret string

	// TokenURL and APIURL default to Kick's public endpoints when empty.
	TokenURL string
	APIURL   string
}

// Updater resolves the status of many Kick streams with a single
// channels query. The HTTP client it holds refreshes its bearer token
// on its own.
type Updater struct {
	client *http.Client
	apiURL string
}

// NewUpdater builds a Kick updater. The context bounds background token
// refreshes for the life of the updater.
func NewUpdater(c context.Context, opts Options) (*Updater, error) {
	if opts.ClientID == "" || opts.ClientSecret == "" {
		return nil, ErrNoCredentials
	}

	tokenURL := opts.TokenURL
	if tokenURL == "" {
		tokenURL = defaultTokenURL
	}

	apiURL := opts.APIURL
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	credentials := &clientcredentials.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		TokenURL:     tokenURL,
	}

	return &Updater{
		client: credentials.Client(c),
		apiURL: apiURL,
	}, nil
}

var _ stream.Updater = &Updater{}

func (u *Updater) Kind() stream.Kind {
	return stream.Many
}

// Update refreshes every given stream with one channels query, one slug
// parameter per stream. Correlation is by slug, case-insensitively.
func (u *Updater) Update(c context.Context, ss []*stream.Stream) ([]stream.Result, error) {
	statusCode, body, err := u.requestChannels(c, ss)
	if err != nil {
		if c.Err() != nil {
			return nil, fmt.Errorf("kick: update abandoned: %w", c.Err())
		}

		return blanketResults(ss, 0, err.Error()), nil
	}

	if statusCode != http.StatusOK {
		return blanketResults(ss, statusCode, "status code was not OK"), nil
	}

	var container channelContainerT
	if err := json.Unmarshal(body, &container); err != nil {
		return blanketResults(ss, statusCode, "JSON parsing failed"), nil
	}

	results := make([]stream.Result, 0, len(ss))
	for _, s := range ss {
		results = append(results, classify(s, statusCode, container.Data))
	}

	return results, nil
}

func classify(s *stream.Stream, statusCode int, channels []channelT) stream.Result {
	channel := matchChannel(channels, s.Name)

	if channel == nil {
		// Like Twitch, the API does not say whether a missing channel
		// was deleted or banned.
		return stream.Result{
			Stream:     s,
			StatusCode: statusCode,
			Intent:     stream.MarkBanned{},
		}
	}

	details := stream.SetDetails{
		DisplayName: s.Name,
		Status:      stream.Offline,
	}

	if channel.Slug != "" {
		details.DisplayName = channel.Slug
	}

	if channel.Stream != nil && channel.Stream.IsLive {
		details.Status = stream.Public
		details.ViewersCount = channel.Stream.ViewerCount
	}

	if channel.Category != nil && channel.Category.Name != "" {
		details.Game = &stream.Game{
			ID:   channel.Category.ID,
			Name: channel.Category.Name,
		}
	}

	return stream.Result{Stream: s, StatusCode: statusCode, Intent: details}
}

func matchChannel(channels []channelT, name string) *channelT {
	var match *channelT
	matches := 0

	for i := range channels {
		if strings.EqualFold(channels[i].Slug, name) {
			match = &channels[i]
			matches++
		}
	}

	if matches != 1 {
		return nil
	}

	return match
}

func blanketResults(ss []*stream.Stream, statusCode int, message string) []stream.Result {
	results := make([]stream.Result, 0, len(ss))

	for _, s := range ss {
		results = append(results, stream.Result{
			Stream:     s,
			StatusCode: statusCode,
			Message:    message,
			Intent:     stream.MarkOffline{},
		})
	}

	return results
}

func (u *Updater) requestChannels(c context.Context, ss []*stream.Stream) (int, []byte, error) {
	query := url.Values{}
	for _, s := range ss {
		query.Add("slug", s.Name)
	}

	req, err := http.NewRequestWithContext(c, http.MethodGet, u.apiURL+"?"+query.Encode(), nil)
	if err != nil {
		return 0, nil, err
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}

	return resp.StatusCode, body, nil
}

type channelContainerT struct {
	Data []channelT `json:"data"`
}

type channelT struct {
	Slug     string     `json:"slug"`
	Stream   *liveT     `json:"stream"`
	Category *categoryT `json:"category"`
}

type liveT struct {
	IsLive      bool `json:"is_live"`
	ViewerCount *int `json:"viewer_count"`
}

type categoryT struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
