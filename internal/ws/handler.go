package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/ludo-live/ludo-backend/internal/engine"
	"github.com/ludo-live/ludo-backend/internal/hub"
	"github.com/ludo-live/ludo-backend/internal/room"
	"github.com/ludo-live/ludo-backend/internal/types"
)

// Handler upgrades the connection and runs the dispatcher: decode envelope,
// route by type, forward to the registry or the room's serialized inbox.
func Handler(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		c := &client{
			hub:      h,
			conn:     conn,
			out:      make(chan types.ServerMessage, 8),
			clientID: randID(8),
			log:      log,
		}

		// Writer goroutine: drains the outbox until the room closes it or
		// the connection dies.
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go c.writeLoop(writeCtx)

		c.readLoop(r.Context())
	}
}

type client struct {
	hub      *hub.Hub
	conn     *websocket.Conn
	out      chan types.ServerMessage
	clientID string
	log      *zap.Logger

	// current binding, mutated only by the reader loop
	room     *room.Room
	gameID   string
	playerID string
}

func (c *client) writeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.out:
			if !ok {
				return
			}
			payload, err := json.Marshal(msg)
			if err != nil {
				c.log.Error("marshal outbound frame", zap.Error(err))
				continue
			}
			wctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			_ = c.conn.Write(wctx, websocket.MessageText, payload)
			cancel()
		}
	}
}

func (c *client) readLoop(ctx context.Context) {
	defer func() {
		if c.room != nil {
			c.room.Inbox() <- room.Detach{ClientID: c.clientID}
		}
	}()

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			return
		}

		var cm types.ClientMessage
		if err := json.Unmarshal(data, &cm); err != nil {
			c.log.Info("malformed frame dropped", zap.Error(err))
			continue
		}
		c.dispatch(cm)
	}
}

func (c *client) dispatch(cm types.ClientMessage) {
	switch cm.Type {
	case "createGame":
		var p types.CreateGamePayload
		if json.Unmarshal(cm.Payload, &p) != nil {
			return
		}
		c.createGame(p)

	case "joinGame":
		var p types.JoinGamePayload
		if json.Unmarshal(cm.Payload, &p) != nil {
			return
		}
		c.joinGame(p)

	case "startGame":
		var p types.StartGamePayload
		if json.Unmarshal(cm.Payload, &p) != nil {
			return
		}
		c.forward(p.GameID, room.Command{Type: room.CmdStartGame, PlayerID: p.PlayerID})

	case "rollDice":
		var p types.RollDicePayload
		if json.Unmarshal(cm.Payload, &p) != nil {
			return
		}
		c.forward(p.GameID, room.Command{Type: room.CmdRollDice, PlayerID: p.PlayerID})

	case "movePiece":
		var p types.MovePiecePayload
		if json.Unmarshal(cm.Payload, &p) != nil {
			return
		}
		c.forward(p.GameID, room.Command{Type: room.CmdMovePiece, PlayerID: p.PlayerID, PieceID: p.PieceID})

	case "chatMessage":
		var p types.ChatMessagePayload
		if json.Unmarshal(cm.Payload, &p) != nil {
			return
		}
		c.forward(p.GameID, room.Command{Type: room.CmdChat, PlayerID: p.PlayerID, Text: p.Text})

	case "leaveGame":
		var p types.LeaveGamePayload
		if json.Unmarshal(cm.Payload, &p) != nil {
			return
		}
		c.forward(p.GameID, room.Command{Type: room.CmdLeave, PlayerID: p.PlayerID})
		if c.gameID == p.GameID {
			c.room, c.gameID, c.playerID = nil, "", ""
		}

	case "resetGame", "forceSync":
		var p types.StartGamePayload
		if json.Unmarshal(cm.Payload, &p) != nil {
			return
		}
		c.forward(p.GameID, room.Command{Type: room.CmdReset, PlayerID: p.PlayerID})

	default:
		// unknown types are dropped silently
	}
}

func (c *client) createGame(p types.CreateGamePayload) {
	if c.room != nil {
		c.room.Inbox() <- room.Detach{ClientID: c.clientID}
		c.room, c.gameID, c.playerID = nil, "", ""
	}
	reply := make(chan hub.Created, 1)
	c.hub.Inbox() <- hub.CreateRoom{HostID: p.PlayerID, HostName: p.PlayerName, Reply: reply}
	created := <-reply

	c.room, c.gameID, c.playerID = created.Room, created.Code, p.PlayerID
	created.Room.Inbox() <- room.Attach{ClientID: c.clientID, PlayerID: p.PlayerID, Outbox: c.out}
}

func (c *client) joinGame(p types.JoinGamePayload) {
	rm := c.lookup(p.GameID)
	if rm == nil {
		c.sendError(fmt.Sprintf("Game %s not found.", p.GameID))
		return
	}
	reply := make(chan error, 1)
	rm.Inbox() <- room.Join{
		ClientID:   c.clientID,
		PlayerID:   p.PlayerID,
		PlayerName: p.PlayerName,
		Outbox:     c.out,
		Reply:      reply,
	}
	if err := <-reply; err != nil {
		if err == engine.ErrGameFull {
			c.sendError("This game is full.")
		}
		return
	}
	c.room, c.gameID, c.playerID = rm, p.GameID, p.PlayerID
}

// forward routes a command to its room, preferring the connection's own
// binding over a registry lookup.
func (c *client) forward(gameID string, cmd room.Command) {
	rm := c.lookup(gameID)
	if rm == nil {
		c.sendError(fmt.Sprintf("Game %s not found.", gameID))
		return
	}
	rm.Inbox() <- room.FromClient{ClientID: c.clientID, Cmd: cmd}
}

func (c *client) lookup(gameID string) *room.Room {
	if c.room != nil && c.gameID == gameID {
		return c.room
	}
	reply := make(chan *room.Room, 1)
	c.hub.Inbox() <- hub.GetRoom{Code: gameID, Reply: reply}
	return <-reply
}

// sendError writes a caller-directed error frame on the connection itself,
// bypassing the room-owned outbox.
func (c *client) sendError(msg string) {
	payload, err := json.Marshal(types.ErrorMessage(msg))
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = c.conn.Write(ctx, websocket.MessageText, payload)
}

func randID(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}
