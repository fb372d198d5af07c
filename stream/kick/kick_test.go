package kick_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/TeamStorm/storm/stream"
	"github.com/TeamStorm/storm/stream/kick"
)

func newStream(t *testing.T, name string) *stream.Stream {
	t.Helper()

	s, ok := stream.TryClassify("https://kick.com/" + name)
	if !ok {
		t.Fatalf("Failed to classify stream %q", name)
	}

	return s
}

// newServer serves the token endpoint and the channels endpoint from
// one test server.
func newServer(t *testing.T, channelsBody string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"test-token","token_type":"bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/public/v1/channels", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Errorf("Missing bearer token, got %q", r.Header.Get("Authorization"))
		}

		w.Write([]byte(channelsBody))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return server
}

func newUpdater(t *testing.T, server *httptest.Server) *kick.Updater {
	t.Helper()

	u, err := kick.NewUpdater(context.Background(), kick.Options{
		ClientID:     "id",
		ClientSecret: "secret",
		TokenURL:     server.URL + "/oauth/token",
		APIURL:       server.URL + "/public/v1/channels",
	})
	if err != nil {
		t.Fatalf("Failed to build updater: %s", err)
	}

	return u
}

func TestMissingCredentialsIsAConfigurationFault(t *testing.T) {
	_, err := kick.NewUpdater(context.Background(), kick.Options{})
	if !errors.Is(err, kick.ErrNoCredentials) {
		t.Errorf("Expected ErrNoCredentials, got %v", err)
	}
}

func TestLiveChannelIsClassified(t *testing.T) {
	body := `{"data":[{
		"slug":"one",
		"stream":{"is_live":true,"viewer_count":321},
		"category":{"id":5,"name":"Just Chatting"}
	}]}`
	server := newServer(t, body)
	u := newUpdater(t, server)

	s := newStream(t, "One")

	results, err := u.Update(context.Background(), []*stream.Stream{s})
	if err != nil {
		t.Fatalf("Unexpected error: %s", err)
	}

	results[0].Commit()

	if s.Status != stream.Public {
		t.Errorf("Expected live, got %s", s.Status)
	}

	if s.ViewersCount == nil || *s.ViewersCount != 321 {
		t.Error("Expected viewers count 321")
	}

	if s.Game == nil || s.Game.ID != 5 {
		t.Errorf("Expected category 5, got %v", s.Game)
	}
}

func TestMissingChannelIsBanned(t *testing.T) {
	server := newServer(t, `{"data":[]}`)
	u := newUpdater(t, server)

	s := newStream(t, "one")
	s.DisplayName = "One"

	results, err := u.Update(context.Background(), []*stream.Stream{s})
	if err != nil {
		t.Fatalf("Unexpected error: %s", err)
	}

	results[0].Commit()

	if s.Status != stream.Banned {
		t.Errorf("Expected banned, got %s", s.Status)
	}

	if s.DisplayName != "One" {
		t.Errorf("Display name was blanked to %q", s.DisplayName)
	}
}

func TestOneBatchedCallForManyStreams(t *testing.T) {
	calls := 0

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"test-token","token_type":"bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/public/v1/channels", func(w http.ResponseWriter, r *http.Request) {
		calls++

		if got := r.URL.Query()["slug"]; len(got) != 2 {
			t.Errorf("Expected 2 slug parameters, got %v", got)
		}

		w.Write([]byte(`{"data":[{"slug":"one"},{"slug":"two","stream":{"is_live":true}}]}`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	u := newUpdater(t, server)

	one := newStream(t, "one")
	two := newStream(t, "two")

	results, err := u.Update(context.Background(), []*stream.Stream{one, two})
	if err != nil {
		t.Fatalf("Unexpected error: %s", err)
	}

	if calls != 1 {
		t.Errorf("Expected a single channels call, got %d", calls)
	}

	if len(results) != 2 || results[0].Stream != one || results[1].Stream != two {
		t.Fatal("Results lost input order")
	}

	for _, r := range results {
		r.Commit()
	}

	if one.Status != stream.Offline || two.Status != stream.Public {
		t.Errorf("Unexpected statuses: %s, %s", one.Status, two.Status)
	}
}
