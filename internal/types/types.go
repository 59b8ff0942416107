package types

import "encoding/json"

// ClientMessage is the inbound envelope. Payload stays raw until the
// dispatcher knows the type.
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Payloads for the recognized client message types.

type CreateGamePayload struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

type JoinGamePayload struct {
	GameID     string `json:"gameId"`
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

type StartGamePayload struct {
	GameID   string `json:"gameId"`
	PlayerID string `json:"playerId"`
}

type RollDicePayload struct {
	GameID   string `json:"gameId"`
	PlayerID string `json:"playerId"`
}

type MovePiecePayload struct {
	GameID   string `json:"gameId"`
	PlayerID string `json:"playerId"`
	PieceID  int    `json:"pieceId"`
}

type ChatMessagePayload struct {
	GameID   string `json:"gameId"`
	PlayerID string `json:"playerId"`
	Text     string `json:"text"`
}

type LeaveGamePayload struct {
	GameID   string `json:"gameId"`
	PlayerID string `json:"playerId"`
}

// ServerMessage is the outbound envelope: "gameStateUpdate" carries a full
// session snapshot, "error" carries ErrorPayload.
type ServerMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// ErrorMessage builds a single-caller error frame.
func ErrorMessage(msg string) ServerMessage {
	raw, _ := json.Marshal(ErrorPayload{Message: msg})
	return ServerMessage{Type: "error", Payload: raw}
}

// StateUpdate wraps an already-serialized snapshot.
func StateUpdate(snapshot json.RawMessage) ServerMessage {
	return ServerMessage{Type: "gameStateUpdate", Payload: snapshot}
}
