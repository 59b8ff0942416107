package engine

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var ErrGameFull = errors.New("game full")
var ErrWrongTurn = errors.New("not your turn")
var ErrNotHost = errors.New("only the host can do that")
var ErrNotSetup = errors.New("game already started")
var ErrNotPlaying = errors.New("game is not in play")
var ErrRollPending = errors.New("roll already in progress")
var ErrNotMovable = errors.New("piece is not movable")
var ErrNotSeated = errors.New("player not seated")

type Status string

const (
	StatusSetup    Status = "setup"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// TurnSeconds is the advisory per-turn clock published in every snapshot.
const TurnSeconds = 30

type Player struct {
	ID            string  `json:"playerId"`
	Name          string  `json:"name"`
	Color         Color   `json:"color"`
	SeatIndex     int     `json:"seatIndex"`
	Pieces        []Piece `json:"pieces"`
	HasFinished   bool    `json:"hasFinished"`
	InactiveTurns int     `json:"inactiveTurns"`
	IsRemoved     bool    `json:"isRemoved"`
	IsHost        bool    `json:"isHost"`
}

type ChatMessage struct {
	ID        string `json:"id"`
	PlayerID  string `json:"playerId"`
	Name      string `json:"name"`
	Color     Color  `json:"color"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// Game is the canonical per-room session record. It is mutated only on the
// room's serialized handling path; it performs no I/O of its own.
type Game struct {
	ID                 string
	HostID             string
	Players            []*Player
	PlayerOrder        []Color
	CurrentPlayerIndex int
	DiceValue          int // 0 means no dice showing
	Status             Status
	Winner             string // playerId, set once Status is finished
	Message            string
	MovablePieces      []int
	IsRolling          bool
	IsAnimating        bool
	TurnTimeLeft       int
	Chat               []ChatMessage
}

func NewGame(id, hostID, hostName string) *Game {
	g := &Game{
		ID:     id,
		HostID: hostID,
		Status: StatusSetup,
	}
	p, _, _ := g.AddPlayer(hostID, hostName)
	p.IsHost = true
	g.Message = fmt.Sprintf("%s created the game.", hostName)
	return g
}

// AddPlayer seats a new player in the next color of the canonical order.
// An already-seated playerId is a reconnect: the existing player is returned
// with rejoined=true and the roster is left untouched.
func (g *Game) AddPlayer(id, name string) (*Player, bool, error) {
	if p := g.PlayerByID(id); p != nil {
		return p, true, nil
	}
	if len(g.Players) >= len(colorOrder) {
		return nil, false, ErrGameFull
	}

	seat := len(g.Players)
	color := colorOrder[seat]
	p := &Player{
		ID:        id,
		Name:      name,
		Color:     color,
		SeatIndex: seat,
		Pieces:    make([]Piece, 4),
	}
	for i := range p.Pieces {
		p.Pieces[i] = Piece{ID: seat*4 + i, Color: color, State: PieceHome, Position: -1}
	}
	g.Players = append(g.Players, p)
	g.PlayerOrder = append(g.PlayerOrder, color)
	g.Message = fmt.Sprintf("%s joined the game.", name)
	return p, false, nil
}

func (g *Game) PlayerByID(id string) *Player {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (g *Game) CurrentPlayer() *Player {
	if len(g.Players) == 0 {
		return nil
	}
	return g.Players[g.CurrentPlayerIndex]
}

// Start moves the session from setup to play. Host only; seat 0 acts first.
func (g *Game) Start(playerID string) error {
	if playerID != g.HostID {
		return ErrNotHost
	}
	if g.Status != StatusSetup {
		return ErrNotSetup
	}
	g.Status = StatusPlaying
	g.CurrentPlayerIndex = 0
	g.TurnTimeLeft = TurnSeconds
	g.Message = fmt.Sprintf("%s's turn.", g.Players[0].Name)
	return nil
}

// BeginRoll enters the rolling window for the current player. A roll that is
// already in flight, or a dice that is already showing, yields ErrRollPending
// which callers drop silently.
func (g *Game) BeginRoll(playerID string) error {
	if g.Status != StatusPlaying {
		return ErrNotPlaying
	}
	cur := g.CurrentPlayer()
	if cur == nil || cur.ID != playerID {
		return ErrWrongTurn
	}
	if g.IsRolling || g.DiceValue != 0 {
		return ErrRollPending
	}
	g.IsRolling = true
	g.IsAnimating = false
	cur.InactiveTurns = 0
	g.Message = fmt.Sprintf("%s is rolling the dice...", cur.Name)
	return nil
}

// ResolveRoll lands the dice and computes what the current player may move.
func (g *Game) ResolveRoll(dice int) {
	cur := g.CurrentPlayer()
	g.DiceValue = dice
	g.IsRolling = false
	g.MovablePieces = g.movablePieces(cur, dice)
	if len(g.MovablePieces) == 0 {
		g.Message = fmt.Sprintf("%s rolled a %d. No moves available.", cur.Name, dice)
	} else {
		g.Message = fmt.Sprintf("%s rolled a %d. Move a piece.", cur.Name, dice)
	}
}

// movablePieces applies the movability predicate: finished pieces never move,
// an unchanged Advance result is illegal, and a loop destination already
// holding two of the player's own active pieces is blockaded.
func (g *Game) movablePieces(pl *Player, dice int) []int {
	var ids []int
	for _, p := range pl.Pieces {
		if p.State == PieceFinished {
			continue
		}
		np := Advance(p, dice)
		if np == p {
			continue
		}
		if np.Position < FinishStart && g.ownActiveAt(pl, np.Position) >= 2 {
			continue
		}
		ids = append(ids, p.ID)
	}
	return ids
}

func (g *Game) ownActiveAt(pl *Player, sq int) int {
	n := 0
	for _, p := range pl.Pieces {
		if p.State == PieceActive && p.Position == sq {
			n++
		}
	}
	return n
}

type MoveResult struct {
	Captured bool
	Bonus    bool
	Won      bool
}

// ApplyMove plays pieceID with the showing dice for the current player,
// resolving capture, win and bonus. On a non-bonus move the turn advances.
func (g *Game) ApplyMove(playerID string, pieceID int) (MoveResult, error) {
	var res MoveResult
	if g.Status != StatusPlaying {
		return res, ErrNotPlaying
	}
	cur := g.CurrentPlayer()
	if cur == nil || cur.ID != playerID {
		return res, ErrWrongTurn
	}
	movable := false
	for _, id := range g.MovablePieces {
		if id == pieceID {
			movable = true
			break
		}
	}
	if !movable {
		return res, ErrNotMovable
	}

	dice := g.DiceValue
	var piece *Piece
	for i := range cur.Pieces {
		if cur.Pieces[i].ID == pieceID {
			piece = &cur.Pieces[i]
			break
		}
	}
	*piece = Advance(*piece, dice)

	if piece.State == PieceActive && piece.Position < FinishStart && !IsSafeSquare(piece.Position) {
		res.Captured = g.captureAt(cur, piece.Position)
	}

	cur.InactiveTurns = 0
	g.IsAnimating = true

	if cur.allFinished() {
		cur.HasFinished = true
		g.Status = StatusFinished
		g.Winner = cur.ID
		g.DiceValue = 0
		g.MovablePieces = nil
		g.Message = fmt.Sprintf("%s wins!", cur.Name)
		res.Won = true
		return res, nil
	}

	res.Bonus = dice == 6 || res.Captured
	if res.Bonus {
		g.DiceValue = 0
		g.MovablePieces = nil
		if res.Captured {
			g.Message = fmt.Sprintf("%s captured a piece! Roll again.", cur.Name)
		} else {
			g.Message = fmt.Sprintf("%s rolled a 6! Roll again.", cur.Name)
		}
		return res, nil
	}

	g.AdvanceTurn()
	return res, nil
}

// captureAt sends every opposing piece on sq back home.
func (g *Game) captureAt(mover *Player, sq int) bool {
	captured := false
	for _, p := range g.Players {
		if p == mover {
			continue
		}
		for i := range p.Pieces {
			if p.Pieces[i].State == PieceActive && p.Pieces[i].Position == sq {
				p.Pieces[i].State = PieceHome
				p.Pieces[i].Position = -1
				captured = true
			}
		}
	}
	return captured
}

func (p *Player) allFinished() bool {
	for _, pc := range p.Pieces {
		if pc.State != PieceFinished {
			return false
		}
	}
	return true
}

// AdvanceTurn hands play to the next seat that is still present, wrapping
// around the table. With every player removed it is a no-op.
func (g *Game) AdvanceTurn() bool {
	if g.Status != StatusPlaying || len(g.Players) == 0 {
		return false
	}
	n := len(g.Players)
	for i := 1; i <= n; i++ {
		idx := (g.CurrentPlayerIndex + i) % n
		if g.Players[idx].IsRemoved {
			continue
		}
		g.CurrentPlayerIndex = idx
		g.DiceValue = 0
		g.IsRolling = false
		g.IsAnimating = false
		g.MovablePieces = nil
		g.TurnTimeLeft = TurnSeconds
		g.Message = fmt.Sprintf("%s's turn.", g.Players[idx].Name)
		return true
	}
	return false
}

// RemovePlayer marks a seat as gone. Seats are never spliced so piece ids
// and colors stay stable. Reports whether it was that player's turn.
func (g *Game) RemovePlayer(playerID string) (wasCurrent bool, ok bool) {
	p := g.PlayerByID(playerID)
	if p == nil {
		return false, false
	}
	cur := g.CurrentPlayer()
	p.IsRemoved = true
	g.Message = fmt.Sprintf("%s left the game.", p.Name)
	return cur != nil && cur.ID == playerID, true
}

// AddChat appends a chat entry stamped by the caller (the room owns time).
func (g *Game) AddChat(playerID, text string, ts int64) (ChatMessage, error) {
	p := g.PlayerByID(playerID)
	if p == nil {
		return ChatMessage{}, ErrNotSeated
	}
	msg := ChatMessage{
		ID:        uuid.NewString(),
		PlayerID:  p.ID,
		Name:      p.Name,
		Color:     p.Color,
		Text:      text,
		Timestamp: ts,
	}
	g.Chat = append(g.Chat, msg)
	return msg, nil
}
