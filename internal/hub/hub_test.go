package hub

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ludo-live/ludo-backend/internal/room"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewHub(ctx, room.Config{
		RollDelay:     10 * time.Millisecond,
		AutoPassDelay: 10 * time.Millisecond,
	}, zap.NewNop())
}

func create(t *testing.T, h *Hub) Created {
	t.Helper()
	reply := make(chan Created, 1)
	h.Inbox() <- CreateRoom{HostID: "p1", HostName: "Alice", Reply: reply}
	select {
	case c := <-reply:
		return c
	case <-time.After(time.Second):
		t.Fatalf("create timed out")
		return Created{} // unreachable
	}
}

func get(t *testing.T, h *Hub, code string) *room.Room {
	t.Helper()
	reply := make(chan *room.Room, 1)
	h.Inbox() <- GetRoom{Code: code, Reply: reply}
	select {
	case r := <-reply:
		return r
	case <-time.After(time.Second):
		t.Fatalf("get timed out")
		return nil // unreachable
	}
}

func TestHub_CreateAllocatesWireCompatibleCode(t *testing.T) {
	h := newTestHub(t)

	c := create(t, h)
	require.NotNil(t, c.Room)
	assert.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{6}$`), c.Code)

	assert.Same(t, c.Room, get(t, h, c.Code))
}

func TestHub_GetUnknownCodeIsNil(t *testing.T) {
	h := newTestHub(t)
	assert.Nil(t, get(t, h, "NOPE01"))
}

func TestHub_RemoveRoom(t *testing.T) {
	h := newTestHub(t)
	c := create(t, h)

	h.Inbox() <- RemoveRoom{Code: c.Code}
	assert.Nil(t, get(t, h, c.Code))
}

func TestHub_CodesAreUnique(t *testing.T) {
	h := newTestHub(t)
	seen := map[string]bool{}
	for i := 0; i < 16; i++ {
		c := create(t, h)
		require.False(t, seen[c.Code], "duplicate code %s", c.Code)
		seen[c.Code] = true
	}
}
