package testutil

import (
	"context"

	"github.com/TeamStorm/storm/db"
)

// Context returns a context carrying a fresh in-memory DB with the
// schema set up.
func Context() context.Context {
	db.MustInit(":memory:")

	c := db.NewContext(context.Background())
	db.Setup(c)

	return c
}

// AddRoom registers a room that will receive reports.
func AddRoom(c context.Context, roomID string) {
	db.FromContext(c).MustExec(`INSERT INTO [rooms] ([room_id]) VALUES (?)`, roomID)
}
