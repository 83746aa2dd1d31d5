package relay

import "time"

type RoomPhase int

const (
	PhaseWaiting RoomPhase = iota
	PhasePlacing
	PhaseBattle
)

func (p RoomPhase) String() string {
	switch p {
	case PhaseWaiting:
		return "waiting"
	case PhasePlacing:
		return "placing"
	case PhaseBattle:
		return "battle"
	}
	return "unknown"
}

type Player struct {
	id        string
	address   string
	committed bool
	sess      *session
	room      *Room
}

// attached reports whether the player's seat has a live connection.
func (p *Player) attached() bool {
	return p != nil && p.sess != nil && p.sess.open
}

// graceHandle is the scheduled deletion of an empty room. The generation
// stamp makes a stale timer firing a no-op: join clears the handle, and
// the registry ignores any firing whose gen no longer matches.
type graceHandle struct {
	gen   int
	timer *time.Timer
}

// Room binds at most two seats under a code. Seat order matters: index 0
// is the creator and always moves first. A vacated seat keeps its Player
// record (minus the session) so a rejoin can reclaim it.
type Room struct {
	code            string
	phase           RoomPhase
	players         [2]*Player
	pendingDeletion *graceHandle
}

func (r *Room) peerOf(p *Player) *Player {
	for _, other := range r.players {
		if other != nil && other != p {
			return other
		}
	}
	return nil
}

// freeSeat returns the lowest index a joiner may take, or -1 when both
// seats hold live connections.
func (r *Room) freeSeat() int {
	for i, seat := range r.players {
		if seat == nil || !seat.attached() {
			return i
		}
	}
	return -1
}

func (r *Room) attachedCount() int {
	n := 0
	for _, seat := range r.players {
		if seat.attached() {
			n++
		}
	}
	return n
}

func (r *Room) bothCommitted() bool {
	return r.players[0] != nil && r.players[0].committed &&
		r.players[1] != nil && r.players[1].committed
}

// seatByPlayerID finds the seat a departed player once held.
func (r *Room) seatByPlayerID(playerID string) int {
	for i, seat := range r.players {
		if seat != nil && seat.id == playerID {
			return i
		}
	}
	return -1
}
