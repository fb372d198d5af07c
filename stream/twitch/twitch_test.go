package twitch_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/TeamStorm/storm/stream"
	"github.com/TeamStorm/storm/stream/twitch"
)

func newStream(t *testing.T, name string) *stream.Stream {
	t.Helper()

	s, ok := stream.TryClassify("https://twitch.tv/" + name)
	if !ok {
		t.Fatalf("Failed to classify stream %q", name)
	}

	return s
}

func newUpdater(endpoint string, unwantedGames ...int) *twitch.Updater {
	options := func() twitch.Options {
		return twitch.Options{
			GraphQLAPI:           endpoint,
			Headers:              map[string]string{"Client-ID": "test-id"},
			CommonHeaders:        map[string]string{"User-Agent": "storm-test"},
			UnwantedGameIDs:      unwantedGames,
			EmbeddedPlayerFormat: "https://player.twitch.tv/?channel=%s",
		}
	}

	return twitch.NewUpdater(http.DefaultClient, options)
}

func serve(t *testing.T, statusCode int, body string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(statusCode)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return server
}

func commitAll(results []stream.Result) {
	for _, r := range results {
		r.Commit()
	}
}

func TestNoEndpointIsAConfigurationFault(t *testing.T) {
	u := newUpdater("")

	_, err := u.Update(context.Background(), []*stream.Stream{newStream(t, "one")})
	if !errors.Is(err, twitch.ErrNoEndpoint) {
		t.Errorf("Expected ErrNoEndpoint, got %v", err)
	}
}

func TestStatusCodeNotOKBlanksEveryStream(t *testing.T) {
	server := serve(t, http.StatusInternalServerError, "oops")
	u := newUpdater(server.URL)

	one := newStream(t, "one")
	one.DisplayName = "One"
	one.Status = stream.Public
	two := newStream(t, "two")

	results, err := u.Update(context.Background(), []*stream.Stream{one, two})
	if err != nil {
		t.Fatalf("Unexpected error: %s", err)
	}

	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}

	for i, r := range results {
		if r.StatusCode != http.StatusInternalServerError {
			t.Errorf("Result %d carries status code %d", i, r.StatusCode)
		}

		if r.Message != "status code was not OK" {
			t.Errorf("Result %d carries message %q", i, r.Message)
		}
	}

	commitAll(results)

	if one.Status != stream.Offline || one.ViewersCount != nil || one.Game != nil {
		t.Error("Expected offline reset")
	}

	if one.DisplayName != "One" {
		t.Errorf("Display name was blanked to %q", one.DisplayName)
	}
}

func TestInvalidJSONBlanksEveryStreamKeepingOKCode(t *testing.T) {
	server := serve(t, http.StatusOK, "<html>not json</html>")
	u := newUpdater(server.URL)

	s := newStream(t, "one")

	results, err := u.Update(context.Background(), []*stream.Stream{s})
	if err != nil {
		t.Fatalf("Unexpected error: %s", err)
	}

	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}

	if results[0].StatusCode != http.StatusOK {
		t.Errorf("Expected the OK status code to be kept, got %d", results[0].StatusCode)
	}

	if results[0].Message != "JSON parsing failed" {
		t.Errorf("Unexpected message %q", results[0].Message)
	}

	commitAll(results)

	if s.Status != stream.Offline {
		t.Errorf("Expected offline, got %s", s.Status)
	}
}

func TestNonArrayResponseAbortsTheCall(t *testing.T) {
	// All of these are valid JSON, so they pass the parsing check, but
	// none carries the array shape the response contract promises.
	bodies := []string{
		`{"data":{"user":null}}`,
		`null`,
		`"unexpected"`,
		`42`,
	}

	for _, body := range bodies {
		server := serve(t, http.StatusOK, body)
		u := newUpdater(server.URL)

		results, err := u.Update(context.Background(), []*stream.Stream{newStream(t, "one")})
		if err == nil {
			t.Errorf("Expected an error for body %s", body)
		}

		if results != nil {
			t.Errorf("Expected no results for body %s", body)
		}
	}
}

func TestMissingUserClassifiesAsBanned(t *testing.T) {
	server := serve(t, http.StatusOK, `[{"data":{"user":null}}]`)
	u := newUpdater(server.URL)

	s := newStream(t, "one")
	s.DisplayName = "One"

	results, err := u.Update(context.Background(), []*stream.Stream{s})
	if err != nil {
		t.Fatalf("Unexpected error: %s", err)
	}

	commitAll(results)

	if s.Status != stream.Banned {
		t.Errorf("Expected banned, got %s", s.Status)
	}

	if s.ViewersCount != nil || s.Game != nil {
		t.Error("Expected viewers count and game to be cleared")
	}

	if s.DisplayName != "One" {
		t.Errorf("Display name was blanked to %q", s.DisplayName)
	}
}

func TestLiveStreamIsClassified(t *testing.T) {
	body := `[{"data":{"user":{
		"login":"One",
		"displayName":"OneDisplay",
		"stream":{"type":"live","viewersCount":1234,"game":{"id":"42","displayName":"Just Chatting"}}
	}}}]`
	server := serve(t, http.StatusOK, body)
	u := newUpdater(server.URL)

	// Correlation is case-insensitive on the login.
	s := newStream(t, "oNe")

	results, err := u.Update(context.Background(), []*stream.Stream{s})
	if err != nil {
		t.Fatalf("Unexpected error: %s", err)
	}

	commitAll(results)

	if s.Status != stream.Public {
		t.Errorf("Expected live, got %s", s.Status)
	}

	if s.DisplayName != "OneDisplay" {
		t.Errorf("Expected display name update, got %q", s.DisplayName)
	}

	if s.ViewersCount == nil || *s.ViewersCount != 1234 {
		t.Error("Expected viewers count 1234")
	}

	if s.Game == nil || s.Game.ID != 42 || s.Game.Name != "Just Chatting" {
		t.Errorf("Expected game {42 Just Chatting}, got %v", s.Game)
	}
}

func TestRerunStreamIsClassified(t *testing.T) {
	body := `[{"data":{"user":{
		"login":"one",
		"stream":{"type":"rerun","game":{"id":"42","displayName":"Just Chatting"}}
	}}}]`
	server := serve(t, http.StatusOK, body)
	u := newUpdater(server.URL)

	s := newStream(t, "one")

	results, err := u.Update(context.Background(), []*stream.Stream{s})
	if err != nil {
		t.Fatalf("Unexpected error: %s", err)
	}

	commitAll(results)

	if s.Status != stream.Rerun {
		t.Errorf("Expected rerun, got %s", s.Status)
	}

	if s.Game == nil || !s.Game.Equal(stream.Game{ID: 42}) {
		t.Errorf("Expected game 42, got %v", s.Game)
	}
}

func TestUnwantedGameOverridesLivePayload(t *testing.T) {
	body := `[{"data":{"user":{
		"login":"one",
		"displayName":"OneDisplay",
		"stream":{"type":"live","viewersCount":1234,"game":{"id":"666","displayName":"Unwanted"}}
	}}}]`
	server := serve(t, http.StatusOK, body)
	u := newUpdater(server.URL, 666)

	s := newStream(t, "one")
	s.DisplayName = "One"

	results, err := u.Update(context.Background(), []*stream.Stream{s})
	if err != nil {
		t.Fatalf("Unexpected error: %s", err)
	}

	commitAll(results)

	if s.Status != stream.Offline {
		t.Errorf("Expected the policy override to force offline, got %s", s.Status)
	}

	if s.ViewersCount != nil || s.Game != nil {
		t.Error("Expected viewers count and game to be cleared")
	}

	if s.DisplayName != "One" {
		t.Errorf("Display name was touched: %q", s.DisplayName)
	}
}

func TestPartialGameIsAbsent(t *testing.T) {
	body := `[{"data":{"user":{
		"login":"one",
		"stream":{"type":"live","game":{"id":"not-a-number","displayName":"Broken"}}
	}}}]`
	server := serve(t, http.StatusOK, body)
	u := newUpdater(server.URL)

	s := newStream(t, "one")

	results, err := u.Update(context.Background(), []*stream.Stream{s})
	if err != nil {
		t.Fatalf("Unexpected error: %s", err)
	}

	commitAll(results)

	if s.Status != stream.Public {
		t.Errorf("Expected live, got %s", s.Status)
	}

	if s.Game != nil {
		t.Errorf("Expected no game for an unparseable id, got %v", s.Game)
	}
}

func TestResultsMatchInputOrderRegardlessOfResponseOrder(t *testing.T) {
	body := `[
		{"data":{"user":{"login":"two","stream":{"type":"live"}}}},
		{"data":{"user":{"login":"one"}}}
	]`
	server := serve(t, http.StatusOK, body)
	u := newUpdater(server.URL)

	one := newStream(t, "one")
	two := newStream(t, "two")
	input := []*stream.Stream{one, two}

	results, err := u.Update(context.Background(), input)
	if err != nil {
		t.Fatalf("Unexpected error: %s", err)
	}

	if len(results) != len(input) {
		t.Fatalf("Expected %d results, got %d", len(input), len(results))
	}

	for i := range input {
		if results[i].Stream != input[i] {
			t.Errorf("Result %d is for the wrong stream", i)
		}
	}

	commitAll(results)

	if one.Status != stream.Offline {
		t.Errorf("Expected one to be offline, got %s", one.Status)
	}

	if two.Status != stream.Public {
		t.Errorf("Expected two to be live, got %s", two.Status)
	}
}

func TestAmbiguousMatchClassifiesAsBanned(t *testing.T) {
	body := `[
		{"data":{"user":{"login":"one","stream":{"type":"live"}}}},
		{"data":{"user":{"login":"ONE","stream":{"type":"live"}}}}
	]`
	server := serve(t, http.StatusOK, body)
	u := newUpdater(server.URL)

	s := newStream(t, "one")

	results, err := u.Update(context.Background(), []*stream.Stream{s})
	if err != nil {
		t.Fatalf("Unexpected error: %s", err)
	}

	commitAll(results)

	if s.Status != stream.Banned {
		t.Errorf("Expected ambiguity to classify as banned, got %s", s.Status)
	}
}

func TestCancelledCallReturnsNoResults(t *testing.T) {
	server := serve(t, http.StatusOK, `[]`)
	u := newUpdater(server.URL)

	c, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := u.Update(c, []*stream.Stream{newStream(t, "one")})
	if err == nil {
		t.Fatal("Expected an error for a cancelled call")
	}

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected the context error to be surfaced, got %v", err)
	}

	if results != nil {
		t.Error("Expected no results for a cancelled call")
	}
}

func TestRequestBodyBatchesOneQueryPerStream(t *testing.T) {
	type query struct {
		Query     string `json:"query"`
		Variables struct {
			Login string `json:"login"`
		} `json:"variables"`
	}

	var received []query

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("Request body is not a JSON array of queries: %s", err)
		}

		if ct := r.Header.Get("Content-Type"); ct != "application/json; charset=utf-8" {
			t.Errorf("Unexpected content type %q", ct)
		}

		if r.Header.Get("Client-ID") != "test-id" {
			t.Error("Provider header missing")
		}

		if r.Header.Get("User-Agent") != "storm-test" {
			t.Error("Common header missing")
		}

		w.Write([]byte(`[]`))
	}))
	t.Cleanup(server.Close)

	u := newUpdater(server.URL)

	input := []*stream.Stream{newStream(t, "one"), newStream(t, "two"), newStream(t, "three")}

	if _, err := u.Update(context.Background(), input); err != nil {
		t.Fatalf("Unexpected error: %s", err)
	}

	if len(received) != len(input) {
		t.Fatalf("Expected %d sub-queries, got %d", len(input), len(received))
	}

	for i := range input {
		if received[i].Variables.Login != input[i].Name {
			t.Errorf("Sub-query %d queries %q, expected %q", i, received[i].Variables.Login, input[i].Name)
		}

		if received[i].Query == "" {
			t.Errorf("Sub-query %d has no query text", i)
		}
	}
}

func TestEmbeddedPlayerURI(t *testing.T) {
	u := newUpdater("https://example.invalid")

	uri, err := u.EmbeddedPlayerURI(newStream(t, "one"))
	if err != nil {
		t.Fatalf("Unexpected error: %s", err)
	}

	if uri.String() != "https://player.twitch.tv/?channel=one" {
		t.Errorf("Unexpected player URI %q", uri)
	}
}
