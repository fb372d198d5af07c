package twitch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/TeamStorm/storm/stream"
)

// ErrNoEndpoint is returned when an update is attempted without a
// configured GraphQL endpoint. This is a configuration fault, not a
// network failure, so it aborts the call instead of degrading it.
var ErrNoEndpoint = errors.New("twitch: GraphQL API URI is not configured")

// Options is a snapshot of the Twitch configuration taken once per
// Update call.
type Options struct {
	// GraphQLAPI is the endpoint the batched query is posted to.
	GraphQLAPI string

	// Headers are Twitch-specific request headers.
	Headers map[string]string

	// CommonHeaders are applied to every provider. They are written
	// after Headers, so on a key conflict the common value wins.
	CommonHeaders map[string]string

	// UnwantedGameIDs forces any stream playing one of these categories
	// to appear offline regardless of what the API reported.
	UnwantedGameIDs []int

	// UnwantedTopicIDs is read from configuration but gates nothing.
	UnwantedTopicIDs []int

	// EmbeddedPlayerFormat is a format string with one %s slot for the
	// stream name.
	EmbeddedPlayerFormat string
}

func (o Options) unwantedGame(id int) bool {
	for _, unwanted := range o.UnwantedGameIDs {
		if unwanted == id {
			return true
		}
	}

	return false
}

// Updater resolves the status of many Twitch streams with a single
// GraphQL call.
type Updater struct {
	client  *http.Client
	options func() Options
}

// NewUpdater creates a Twitch updater on top of a caller-owned HTTP
// client; the transport negotiates HTTP/2 with the endpoint when it
// can. The options function is called once per Update to snapshot the
// current configuration; an in-flight call never observes a
// configuration change.
func NewUpdater(client *http.Client, options func() Options) *Updater {
	return &Updater{
		client:  client,
		options: options,
	}
}

var _ stream.Updater = &Updater{}

func (u *Updater) Kind() stream.Kind {
	return stream.Many
}

// EmbeddedPlayerURI formats the playback URL for a stream. Pure string
// formatting, no network call.
func (u *Updater) EmbeddedPlayerURI(s *stream.Stream) (*url.URL, error) {
	return url.Parse(fmt.Sprintf(u.options().EmbeddedPlayerFormat, s.Name))
}

// Update refreshes every given stream with one HTTP round trip.
//
// Transport and payload failures degrade to one offline-reset result
// per stream; per-login ambiguity classifies as banned. An error is
// returned only for a missing endpoint, a cancelled context, or a
// response whose top-level shape is not an array.
func (u *Updater) Update(c context.Context, ss []*stream.Stream) ([]stream.Result, error) {
	opts := u.options()

	if opts.GraphQLAPI == "" {
		return nil, ErrNoEndpoint
	}

	statusCode, body, err := u.requestGraphQLData(c, opts, ss)
	if err != nil {
		if c.Err() != nil {
			return nil, fmt.Errorf("twitch: update abandoned: %w", c.Err())
		}

		return blanketResults(ss, 0, err.Error()), nil
	}

	if statusCode != http.StatusOK {
		return blanketResults(ss, statusCode, "status code was not OK"), nil
	}

	if !json.Valid(body) {
		return blanketResults(ss, statusCode, "JSON parsing failed"), nil
	}

	// Valid JSON that is not an array (an object, null, a bare value)
	// means the API broke its shape contract; mapping results onto it
	// would be unfounded.
	if !bytes.HasPrefix(bytes.TrimSpace(body), []byte("[")) {
		return nil, errors.New("twitch: data format has changed: top-level JSON is not an array")
	}

	var elements []responseT
	if err := json.Unmarshal(body, &elements); err != nil {
		return nil, fmt.Errorf("twitch: data format has changed: %w", err)
	}

	results := make([]stream.Result, 0, len(ss))
	for _, s := range ss {
		results = append(results, classify(s, statusCode, elements, opts))
	}

	return results, nil
}

func classify(s *stream.Stream, statusCode int, elements []responseT, opts Options) stream.Result {
	user := matchUser(elements, s.Name)

	if user == nil {
		// The GraphQL API does not distinguish does-not-exist from
		// banned from account-closed, so every no-match case collapses
		// to banned. The display name stays so a known name persists
		// while the programme is open.
		return stream.Result{
			Stream:     s,
			StatusCode: statusCode,
			Intent:     stream.MarkBanned{},
		}
	}

	details := stream.SetDetails{
		DisplayName:  displayName(user, s.Name),
		Status:       statusOf(user),
		ViewersCount: viewersCount(user),
		Game:         gameOf(user),
	}

	if details.Game != nil && opts.unwantedGame(details.Game.ID) {
		return stream.Result{
			Stream:     s,
			StatusCode: statusCode,
			Intent:     stream.MarkOffline{},
		}
	}

	return stream.Result{
		Stream:     s,
		StatusCode: statusCode,
		Intent:     details,
	}
}

// matchUser finds the response element whose login matches name
// case-insensitively. Anything other than exactly one match is
// ambiguous and treated as no match.
func matchUser(elements []responseT, name string) *userT {
	var match *userT
	matches := 0

	for i := range elements {
		data := elements[i].Data
		if data == nil || data.User == nil {
			continue
		}

		if strings.EqualFold(data.User.Login, name) {
			match = data.User
			matches++
		}
	}

	if matches != 1 {
		return nil
	}

	return match
}

func displayName(user *userT, fallback string) string {
	if user.DisplayName != nil && *user.DisplayName != "" {
		return *user.DisplayName
	}

	return fallback
}

func statusOf(user *userT) stream.Status {
	if user.Stream == nil || user.Stream.Type == nil {
		return stream.Offline
	}

	switch *user.Stream.Type {
	case "live":
		return stream.Public
	case "rerun":
		return stream.Rerun
	default:
		return stream.Offline
	}
}

func viewersCount(user *userT) *int {
	if user.Stream == nil {
		return nil
	}

	return user.Stream.ViewersCount
}

// gameOf extracts the current category. Both a parseable integer id and
// a display name are required; otherwise the game is absent, never
// partially populated.
func gameOf(user *userT) *stream.Game {
	if user.Stream == nil || user.Stream.Game == nil {
		return nil
	}

	game := user.Stream.Game
	if game.ID == nil || game.DisplayName == nil {
		return nil
	}

	id, err := strconv.Atoi(*game.ID)
	if err != nil {
		return nil
	}

	return &stream.Game{ID: id, Name: *game.DisplayName}
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

func (u *Updater) requestGraphQLData(c context.Context, opts Options, ss []*stream.Stream) (int, []byte, error) {
	req, err := http.NewRequestWithContext(
		c,
		http.MethodPost,
		opts.GraphQLAPI,
		strings.NewReader(buildRequestBody(ss)))
	if err != nil {
		return 0, nil, err
	}

	// Provider headers first, common headers second; last writer wins
	// on conflicting keys.
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}
	for key, value := range opts.CommonHeaders {
		req.Header.Set(key, value)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

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

const (
	queryBeginning = `{ "query": "query Query($login: String) { user (login: $login) { login displayName description primaryColorHex roles { isAffiliate isPartner } profileImageURL(width: 70) offlineImageURL freeformTags { id name } stream { createdAt viewersCount isEncrypted previewImageURL(width: 1280, height: 720) type isMature language game { id name displayName } } } }", "variables":{"login":"`
	queryEnding    = `"} }`
)

// buildRequestBody batches one sub-query per stream into a single JSON
// array literal, so N logical queries travel as one request.
func buildRequestBody(ss []*stream.Stream) string {
	queries := make([]string, 0, len(ss))

	for _, s := range ss {
		queries = append(queries, queryBeginning+s.Name+queryEnding)
	}

	return "[" + strings.Join(queries, ", ") + "]"
}

// responseT is one element of the GraphQL response array. Every level
// below the element is optional: absence of the user payload is a
// valid, expected shape.
type responseT struct {
	Data *dataT `json:"data"`
}

type dataT struct {
	User *userT `json:"user"`
}

type userT struct {
	// Login of the queried channel, used for correlation.
	Login string `json:"login"`

	// DisplayName of the channel owner.
	DisplayName *string `json:"displayName"`

	// Stream metadata, absent when the channel is not broadcasting.
	Stream *streamT `json:"stream"`
}

type streamT struct {
	// Type is "live" or "rerun".
	Type *string `json:"type"`

	ViewersCount *int `json:"viewersCount"`

	Game *gameT `json:"game"`
}

type gameT struct {
	ID          *string `json:"id"`
	DisplayName *string `json:"displayName"`
}
