package room

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/ludo-live/ludo-backend/internal/engine"
	"github.com/ludo-live/ludo-backend/internal/types"
)

// Msg is the room's inbox message set. One goroutine drains the inbox, so
// everything the room owns is serialized through it.
type Msg interface{ isRoomMsg() }

// Attach registers a connection's outbox without seating anyone new; the
// current snapshot goes to that outbox only. Used for the creator right
// after the room is built.
type Attach struct {
	ClientID string
	PlayerID string
	Outbox   chan types.ServerMessage
}

func (Attach) isRoomMsg() {}

// Join seats (or rebinds) a player and registers the connection's outbox.
// Reply receives engine.ErrGameFull when the table is full, nil otherwise.
type Join struct {
	ClientID   string
	PlayerID   string
	PlayerName string
	Outbox     chan types.ServerMessage
	Reply      chan error
}

func (Join) isRoomMsg() {}

// Detach is the connection-close path: drop the outbox and, if a player was
// bound, mark them removed. Idempotent.
type Detach struct{ ClientID string }

func (Detach) isRoomMsg() {}

// FromClient carries a decoded game command.
type FromClient struct {
	ClientID string
	Cmd      Command
}

func (FromClient) isRoomMsg() {}

// GetView reflects internal state without data races; test hook.
type GetView struct{ Reply chan View }

func (GetView) isRoomMsg() {}

type Shutdown struct{}

func (Shutdown) isRoomMsg() {}

// rollDie draws the dice; tests stub it.
var rollDie = func() int { return rand.Intn(6) + 1 }

type timerKind int

const (
	timerRoll timerKind = iota
	timerAutoPass
	timerWatchdog
)

// timerFired re-enters the serialized path from a scheduled transition. The
// epoch was captured at enqueue; a mismatch means the turn it was armed for
// has already ended and the event is dropped.
type timerFired struct {
	epoch int
	kind  timerKind
}

func (timerFired) isRoomMsg() {}

type CommandType string

const (
	CmdStartGame CommandType = "startGame"
	CmdRollDice  CommandType = "rollDice"
	CmdMovePiece CommandType = "movePiece"
	CmdChat      CommandType = "chatMessage"
	CmdLeave     CommandType = "leaveGame"
	CmdReset     CommandType = "resetGame"
)

type Command struct {
	Type     CommandType
	PlayerID string
	PieceID  int
	Text     string
}

type View struct {
	Epoch      int
	NumClients int
	Game       engine.Snapshot
}

// Config holds the room's timed-transition delays. Tests shorten them.
type Config struct {
	RollDelay     time.Duration // dice animation window
	AutoPassDelay time.Duration // pause after a no-move roll
	TurnTimeout   time.Duration // per-turn watchdog; 0 disables
}

func DefaultConfig() Config {
	return Config{
		RollDelay:     1000 * time.Millisecond,
		AutoPassDelay: 1500 * time.Millisecond,
		TurnTimeout:   engine.TurnSeconds * time.Second,
	}
}

// Room is the authoritative session actor: it owns the Game record, the
// per-connection outboxes, and every timed transition.
type Room struct {
	id       string
	inbox    chan Msg
	game     *engine.Game
	clients  map[string]chan types.ServerMessage
	bindings map[string]string // clientID -> playerID
	epoch    int
	cfg      Config
	log      *zap.Logger
	onEmpty  func(id string)
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewRoom builds the session with its host seated and starts the actor
// goroutine. onEmpty is called once when the last connection detaches.
func NewRoom(parent context.Context, id, hostID, hostName string, cfg Config, log *zap.Logger, onEmpty func(id string)) *Room {
	ctx, cancel := context.WithCancel(parent)
	r := &Room{
		id:       id,
		inbox:    make(chan Msg, 64),
		game:     engine.NewGame(id, hostID, hostName),
		clients:  make(map[string]chan types.ServerMessage),
		bindings: make(map[string]string),
		cfg:      cfg,
		log:      log.With(zap.String("gameId", id)),
		onEmpty:  onEmpty,
		ctx:      ctx,
		cancel:   cancel,
	}
	go r.loop()
	return r
}

func (r *Room) Inbox() chan<- Msg { return r.inbox }

func (r *Room) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Attach:
				r.clients[msg.ClientID] = msg.Outbox
				r.bindings[msg.ClientID] = msg.PlayerID
				r.sendTo(msg.ClientID, r.stateUpdate())

			case Join:
				_, rejoined, err := r.game.AddPlayer(msg.PlayerID, msg.PlayerName)
				if err != nil {
					msg.Reply <- err
					break
				}
				r.clients[msg.ClientID] = msg.Outbox
				r.bindings[msg.ClientID] = msg.PlayerID
				msg.Reply <- nil
				if rejoined {
					r.log.Info("player rebound", zap.String("playerId", msg.PlayerID))
				}
				r.broadcast()

			case Detach:
				r.detach(msg.ClientID)

			case FromClient:
				r.handleCommand(msg.ClientID, msg.Cmd)

			case GetView:
				msg.Reply <- View{
					Epoch:      r.epoch,
					NumClients: len(r.clients),
					Game:       r.game.Snapshot(),
				}

			case timerFired:
				r.handleTimer(msg)

			case Shutdown:
				r.shutdown()
				return
			}
		}
	}
}

func (r *Room) handleCommand(clientID string, cmd Command) {
	switch cmd.Type {
	case CmdStartGame:
		if err := r.game.Start(cmd.PlayerID); err != nil {
			if err == engine.ErrNotHost {
				r.sendTo(clientID, types.ErrorMessage("Only the host can start."))
			}
			return
		}
		r.beginTurnSegment()
		r.broadcast()

	case CmdRollDice:
		if err := r.game.BeginRoll(cmd.PlayerID); err != nil {
			if err == engine.ErrWrongTurn {
				r.sendTo(clientID, types.ErrorMessage("It's not your turn!"))
			}
			// racing or duplicate rolls are dropped silently
			return
		}
		r.broadcast()
		r.schedule(timerRoll, r.cfg.RollDelay)

	case CmdMovePiece:
		res, err := r.game.ApplyMove(cmd.PlayerID, cmd.PieceID)
		if err != nil {
			return
		}
		if res.Won {
			r.epoch++ // game over: retire every pending timer
			r.broadcast()
			return
		}
		r.beginTurnSegment()
		r.broadcast()

	case CmdChat:
		if _, err := r.game.AddChat(cmd.PlayerID, cmd.Text, time.Now().UnixMilli()); err != nil {
			return
		}
		r.broadcast()

	case CmdLeave:
		r.removePlayer(cmd.PlayerID)
		// unbind the leaving connection but keep it open
		for cid, pid := range r.bindings {
			if cid == clientID && pid == cmd.PlayerID {
				delete(r.bindings, cid)
				delete(r.clients, cid)
			}
		}
		r.checkEmpty()

	case CmdReset:
		if cmd.PlayerID != r.game.HostID {
			return
		}
		// best-effort unstick: skip the current turn
		if r.game.AdvanceTurn() {
			r.beginTurnSegment()
		}
		r.broadcast()
	}
}

func (r *Room) handleTimer(t timerFired) {
	if t.epoch != r.epoch {
		r.log.Debug("stale timer dropped", zap.Int("epoch", t.epoch))
		return
	}
	switch t.kind {
	case timerRoll:
		if !r.game.IsRolling {
			return
		}
		r.game.ResolveRoll(rollDie())
		r.broadcast()
		if len(r.game.MovablePieces) == 0 {
			r.schedule(timerAutoPass, r.cfg.AutoPassDelay)
		}

	case timerAutoPass:
		if r.game.AdvanceTurn() {
			r.beginTurnSegment()
		}
		r.broadcast()

	case timerWatchdog:
		if r.game.Status != engine.StatusPlaying {
			return
		}
		if cur := r.game.CurrentPlayer(); cur != nil {
			cur.InactiveTurns++
		}
		if r.game.AdvanceTurn() {
			r.beginTurnSegment()
		}
		r.broadcast()
	}
}

// removePlayer marks the seat removed and, when it was that player's turn,
// hands play onward under a fresh epoch so pending timers die.
func (r *Room) removePlayer(playerID string) {
	wasCurrent, ok := r.game.RemovePlayer(playerID)
	if !ok {
		return
	}
	if wasCurrent && r.game.AdvanceTurn() {
		r.beginTurnSegment()
	}
	r.broadcast()
}

func (r *Room) detach(clientID string) {
	pid, bound := r.bindings[clientID]
	delete(r.bindings, clientID)
	delete(r.clients, clientID)
	if bound {
		if p := r.game.PlayerByID(pid); p != nil && !p.IsRemoved {
			r.removePlayer(pid)
		}
	}
	r.checkEmpty()
}

func (r *Room) checkEmpty() {
	if len(r.clients) > 0 {
		return
	}
	r.log.Info("last connection gone, closing room")
	if r.onEmpty != nil {
		r.onEmpty(r.id)
	}
	r.cancel()
}

// beginTurnSegment opens a new timing window: every previously scheduled
// timer becomes stale, and the watchdog is re-armed if play continues.
func (r *Room) beginTurnSegment() {
	r.epoch++
	if r.game.Status == engine.StatusPlaying && r.cfg.TurnTimeout > 0 {
		r.schedule(timerWatchdog, r.cfg.TurnTimeout)
	}
}

func (r *Room) schedule(kind timerKind, d time.Duration) {
	e := r.epoch
	time.AfterFunc(d, func() {
		select {
		case r.inbox <- timerFired{epoch: e, kind: kind}:
		case <-r.ctx.Done():
		}
	})
}

// stateUpdate serializes the snapshot once; the same frame fans out to every
// outbox.
func (r *Room) stateUpdate() types.ServerMessage {
	raw, err := json.Marshal(r.game.Snapshot())
	if err != nil {
		r.log.Error("snapshot marshal failed", zap.Error(err))
		return types.ErrorMessage("internal error")
	}
	return types.StateUpdate(raw)
}

func (r *Room) broadcast() {
	msg := r.stateUpdate()
	for id, ch := range r.clients {
		select {
		case ch <- msg:
		default:
			// client is slow or gone; drop it, its close path cleans up
			r.log.Warn("dropping slow client", zap.String("clientId", id))
			close(ch)
			delete(r.clients, id)
			delete(r.bindings, id)
		}
	}
}

func (r *Room) sendTo(clientID string, msg types.ServerMessage) {
	ch, ok := r.clients[clientID]
	if !ok {
		return
	}
	select {
	case ch <- msg:
	default:
		r.log.Warn("dropping slow client", zap.String("clientId", clientID))
		close(ch)
		delete(r.clients, clientID)
		delete(r.bindings, clientID)
	}
}

func (r *Room) shutdown() {
	for id, ch := range r.clients {
		close(ch)
		delete(r.clients, id)
	}
	r.cancel()
}
