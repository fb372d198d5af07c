package stream_test

import (
	"testing"

	"github.com/TeamStorm/storm/stream"
)

func liveStream(t *testing.T) *stream.Stream {
	t.Helper()

	s, ok := stream.TryClassify("https://twitch.tv/somechannel")
	if !ok {
		t.Fatal("Failed to classify fixture stream")
	}

	viewers := 100
	s.DisplayName = "SomeChannel"
	s.Status = stream.Public
	s.ViewersCount = &viewers
	s.Game = &stream.Game{ID: 7, Name: "Tetris"}

	return s
}

func TestMarkOfflineKeepsDisplayName(t *testing.T) {
	s := liveStream(t)

	stream.Result{Stream: s, Intent: stream.MarkOffline{}}.Commit()

	if s.Status != stream.Offline {
		t.Errorf("Expected offline, got %s", s.Status)
	}

	if s.ViewersCount != nil || s.Game != nil {
		t.Error("Expected viewers count and game to be cleared")
	}

	if s.DisplayName != "SomeChannel" {
		t.Errorf("Display name was blanked to %q", s.DisplayName)
	}
}

func TestMarkBannedKeepsDisplayName(t *testing.T) {
	s := liveStream(t)

	stream.Result{Stream: s, Intent: stream.MarkBanned{}}.Commit()

	if s.Status != stream.Banned {
		t.Errorf("Expected banned, got %s", s.Status)
	}

	if s.ViewersCount != nil || s.Game != nil {
		t.Error("Expected viewers count and game to be cleared")
	}

	if s.DisplayName != "SomeChannel" {
		t.Errorf("Display name was blanked to %q", s.DisplayName)
	}
}

func TestSetDetailsReplacesMutableFields(t *testing.T) {
	s := liveStream(t)

	viewers := 42
	intent := stream.SetDetails{
		DisplayName:  "Renamed",
		Status:       stream.Rerun,
		ViewersCount: &viewers,
		Game:         &stream.Game{ID: 9, Name: "Chess"},
	}

	stream.Result{Stream: s, Intent: intent}.Commit()

	if s.Status != stream.Rerun {
		t.Errorf("Expected rerun, got %s", s.Status)
	}

	if s.DisplayName != "Renamed" {
		t.Errorf("Expected display name update, got %q", s.DisplayName)
	}

	if s.ViewersCount == nil || *s.ViewersCount != 42 {
		t.Error("Expected viewers count 42")
	}

	if s.Game == nil || s.Game.ID != 9 {
		t.Error("Expected game to be replaced")
	}
}

func TestResultDoesNotMutateUntilCommit(t *testing.T) {
	s := liveStream(t)

	result := stream.Result{Stream: s, Intent: stream.MarkBanned{}}

	if s.Status != stream.Public {
		t.Fatal("Building a result mutated the stream")
	}

	result.Commit()

	if s.Status != stream.Banned {
		t.Error("Commit did not apply the intent")
	}
}

func TestGameEqualityIsByID(t *testing.T) {
	a := stream.Game{ID: 1, Name: "One"}
	b := stream.Game{ID: 1, Name: "A different label"}
	c := stream.Game{ID: 2, Name: "One"}

	if !a.Equal(b) {
		t.Error("Games with equal ids must be equal")
	}

	if a.Equal(c) {
		t.Error("Games with different ids must not be equal")
	}
}
