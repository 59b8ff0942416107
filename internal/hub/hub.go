package hub

import (
	"context"
	"crypto/rand"
	"math/big"

	"go.uber.org/zap"

	"github.com/ludo-live/ludo-backend/internal/room"
)

type HubMsg interface{ isHubMsg() }

// CreateRoom allocates a fresh game id, builds the room with the host
// seated, and replies with both.
type CreateRoom struct {
	HostID   string
	HostName string
	Reply    chan Created
}

type Created struct {
	Code string
	Room *room.Room
}

// GetRoom replies with the room for a code, or nil.
type GetRoom struct {
	Code  string
	Reply chan *room.Room
}

// RemoveRoom drops a room from the registry. Rooms send this about
// themselves once their last connection detaches.
type RemoveRoom struct {
	Code string
}

type ShutdownHub struct{}

func (CreateRoom) isHubMsg()  {}
func (GetRoom) isHubMsg()     {}
func (RemoveRoom) isHubMsg()  {}
func (ShutdownHub) isHubMsg() {}

// Hub is the process-wide room registry. Like the rooms it manages, it is a
// single goroutine draining a typed inbox.
type Hub struct {
	inbox  chan HubMsg
	rooms  map[string]*room.Room
	cfg    room.Config
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(parent context.Context, cfg room.Config, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:  make(chan HubMsg, 64),
		rooms:  make(map[string]*room.Room),
		cfg:    cfg,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateRoom:
				code := h.freshCode()
				r := room.NewRoom(h.ctx, code, msg.HostID, msg.HostName, h.cfg, h.log, func(id string) {
					h.inbox <- RemoveRoom{Code: id}
				})
				h.rooms[code] = r
				h.log.Info("room created", zap.String("gameId", code))
				msg.Reply <- Created{Code: code, Room: r}

			case GetRoom:
				msg.Reply <- h.rooms[msg.Code] // may be nil

			case RemoveRoom:
				delete(h.rooms, msg.Code)
				h.log.Info("room removed", zap.String("gameId", msg.Code))

			case ShutdownHub:
				for _, r := range h.rooms {
					r.Inbox() <- room.Shutdown{}
				}
				clear(h.rooms)
				h.cancel()
			}
		}
	}
}

// freshCode draws 6-char uppercase base36 ids until one is unused. Runs on
// the hub goroutine, so the existence check cannot race a create.
func (h *Hub) freshCode() string {
	for {
		code, err := generateCode()
		if err != nil {
			h.log.Error("code generation failed, retrying", zap.Error(err))
			continue
		}
		if _, taken := h.rooms[code]; !taken {
			return code
		}
		h.log.Info("collision on code, regenerating")
	}
}

func generateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := 0; i < 6; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}
