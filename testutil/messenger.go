package testutil

import (
	"context"

	"github.com/TeamStorm/storm/messenger"
	"github.com/TeamStorm/storm/stream"
)

type MessengerStore struct {
	Streams  []*stream.Stream
	Messages []string
}

var _ messenger.Messenger = &Messenger{}

// Messenger is a fake messenger that records everything sent to it.
type Messenger struct {
	rooms   map[string]MessengerStore
	awaiter chan struct{}
}

func NewMessenger() *Messenger {
	return &Messenger{
		rooms:   make(map[string]MessengerStore),
		awaiter: make(chan struct{}, 1000),
	}
}

func (m *Messenger) MessageStream(c context.Context, roomID string, s *stream.Stream) error {
	store := m.rooms[roomID]
	store.Streams = append(store.Streams, s)

	m.rooms[roomID] = store
	m.awaiter <- struct{}{}

	return nil
}

func (m *Messenger) MessageStreamList(c context.Context, roomID string, ss []*stream.Stream) error {
	m.awaiter <- struct{}{}
	return nil
}

func (m *Messenger) MessageText(c context.Context, roomID string, content string) error {
	store := m.rooms[roomID]
	store.Messages = append(store.Messages, content)

	m.rooms[roomID] = store
	m.awaiter <- struct{}{}

	return nil
}

// Room returns everything recorded for a given room so far.
func (m *Messenger) Room(roomID string) MessengerStore {
	return m.rooms[roomID]
}

// AwaitReport blocks until any message arrives.
func (m *Messenger) AwaitReport() {
	<-m.awaiter
}
