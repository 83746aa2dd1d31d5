// Package wire defines the JSON frames exchanged between the relay and its
// two clients. Every frame is a single UTF-8 JSON text message with a
// mandatory "type" field; all other fields are type-specific. Proof blobs
// travel as raw JSON and are never inspected by the relay.
package wire

import "encoding/json"

// Client to server.
const (
	TypeCreateRoom     = "create_room"
	TypeJoinRoom       = "join_room"
	TypeRejoinRoom     = "rejoin_room"
	TypeFleetCommitted = "fleet_committed"
	TypeFireShot       = "fire_shot"
	TypeShotResponse   = "shot_response"
	TypeGameOver       = "game_over"
)

// Server to client.
const (
	TypeRoomCreated          = "room_created"
	TypeRoomJoined           = "room_joined"
	TypeRoomRejoined         = "room_rejoined"
	TypeOpponentJoined       = "opponent_joined"
	TypeOpponentRejoined     = "opponent_rejoined"
	TypeOpponentCommitted    = "opponent_committed"
	TypeBattleStart          = "battle_start"
	TypeIncomingShot         = "incoming_shot"
	TypeShotResult           = "shot_result"
	TypeOpponentWins         = "opponent_wins"
	TypeOpponentDisconnected = "opponent_disconnected"
	TypeError                = "error"
)

// ClientFrame is the superset of fields an inbound client frame may carry.
// The relay unmarshals into this once and dispatches on Type.
type ClientFrame struct {
	Type    string          `json:"type"`
	Code    string          `json:"code,omitempty"`
	Address string          `json:"address,omitempty"`
	Token   string          `json:"token,omitempty"`
	X       int             `json:"x"`
	Y       int             `json:"y"`
	IsHit   bool            `json:"isHit"`
	Proof   json.RawMessage `json:"proof,omitempty"`
}

// ServerFrame is the superset counterpart for frames a client receives.
type ServerFrame struct {
	Type              string          `json:"type"`
	Code              string          `json:"code,omitempty"`
	PlayerIndex       int             `json:"playerIndex"`
	Token             string          `json:"token,omitempty"`
	Opponent          string          `json:"opponent,omitempty"`
	Phase             string          `json:"phase,omitempty"`
	OpponentPresent   bool            `json:"opponentPresent,omitempty"`
	YouCommitted      bool            `json:"youCommitted,omitempty"`
	OpponentCommitted bool            `json:"opponentCommitted,omitempty"`
	YourTurn          bool            `json:"yourTurn"`
	X                 int             `json:"x"`
	Y                 int             `json:"y"`
	IsHit             bool            `json:"isHit"`
	Proof             json.RawMessage `json:"proof,omitempty"`
	Message           string          `json:"message,omitempty"`
}

// Outbound client messages.

type CreateRoom struct {
	Type    string `json:"type"`
	Address string `json:"address,omitempty"`
}

type JoinRoom struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Address string `json:"address,omitempty"`
}

type RejoinRoom struct {
	Type  string `json:"type"`
	Code  string `json:"code"`
	Token string `json:"token"`
}

type FleetCommitted struct {
	Type string `json:"type"`
}

type FireShot struct {
	Type string `json:"type"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

type ShotResponse struct {
	Type  string          `json:"type"`
	X     int             `json:"x"`
	Y     int             `json:"y"`
	IsHit bool            `json:"isHit"`
	Proof json.RawMessage `json:"proof,omitempty"`
}

type GameOver struct {
	Type string `json:"type"`
}

// Outbound server messages.

type RoomCreated struct {
	Type        string `json:"type"`
	Code        string `json:"code"`
	PlayerIndex int    `json:"playerIndex"`
	Token       string `json:"token,omitempty"`
}

type RoomJoined struct {
	Type        string `json:"type"`
	Code        string `json:"code"`
	PlayerIndex int    `json:"playerIndex"`
	Token       string `json:"token,omitempty"`
	Opponent    string `json:"opponent,omitempty"`
}

type RoomRejoined struct {
	Type              string `json:"type"`
	Code              string `json:"code"`
	PlayerIndex       int    `json:"playerIndex"`
	Phase             string `json:"phase"`
	OpponentPresent   bool   `json:"opponentPresent"`
	YouCommitted      bool   `json:"youCommitted"`
	OpponentCommitted bool   `json:"opponentCommitted"`
}

type OpponentJoined struct {
	Type     string `json:"type"`
	Opponent string `json:"opponent,omitempty"`
}

type OpponentRejoined struct {
	Type string `json:"type"`
}

type OpponentCommitted struct {
	Type string `json:"type"`
}

type BattleStart struct {
	Type     string `json:"type"`
	YourTurn bool   `json:"yourTurn"`
}

type IncomingShot struct {
	Type string `json:"type"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

type ShotResult struct {
	Type  string          `json:"type"`
	X     int             `json:"x"`
	Y     int             `json:"y"`
	IsHit bool            `json:"isHit"`
	Proof json.RawMessage `json:"proof,omitempty"`
}

type OpponentWins struct {
	Type string `json:"type"`
}

type OpponentDisconnected struct {
	Type string `json:"type"`
}

type Error struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Encode marshals a frame. All wire types marshal without error, so the
// error is dropped here rather than threaded through every send site.
func Encode(v any) []byte {
	data, _ := json.Marshal(v)
	return data
}
