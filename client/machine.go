package client

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/harshbpathak/zk-battleship/wire"
)

var (
	ErrBadPhase     = errors.New("action not allowed in current phase")
	ErrAlreadyFired = errors.New("coordinate already fired at")
)

// Machine is the deterministic peer phase machine. Local actions and
// received relay frames go in; phase changes and outbound frames come
// out. It holds no transport and spawns no goroutines, so a conformance
// harness can drive two of them against one relay and check that their
// turn phases stay complementary.
type Machine struct {
	phase   Phase
	board   *Board
	prover  Prover
	ledger  Ledger
	onPhase func(Phase)

	address     string
	roomCode    string
	token       string
	playerIndex int

	opponentCommitted bool
	hitsScored        int
	fired             [GridSize][GridSize]bool
	wonByMe           bool
}

func NewMachine(prover Prover, ledger Ledger) *Machine {
	return &Machine{
		phase:  PhaseConnecting,
		board:  NewBoard(),
		prover: prover,
		ledger: ledger,
	}
}

// SetPhaseListener registers a hook fired on every phase change, for UI
// layers that render the phase. May be left unset.
func (m *Machine) SetPhaseListener(f func(Phase)) {
	m.onPhase = f
}

func (m *Machine) setPhase(p Phase) {
	m.phase = p
	if m.onPhase != nil {
		m.onPhase(p)
	}
}

func (m *Machine) Phase() Phase     { return m.phase }
func (m *Machine) Board() *Board    { return m.board }
func (m *Machine) RoomCode() string { return m.roomCode }
func (m *Machine) Token() string    { return m.token }
func (m *Machine) PlayerIndex() int { return m.playerIndex }
func (m *Machine) HitsScored() int  { return m.hitsScored }

// Won is meaningful once the machine reaches game_over.
func (m *Machine) Won() bool { return m.wonByMe }

// Connected records the acquired wallet identity and moves past the
// connecting phase.
func (m *Machine) Connected(address string) error {
	if m.phase != PhaseConnecting {
		return ErrBadPhase
	}
	m.address = address
	m.setPhase(PhaseWaitingOpponent)
	return nil
}

func (m *Machine) CreateRoom() (wire.CreateRoom, error) {
	if m.phase != PhaseWaitingOpponent || m.roomCode != "" {
		return wire.CreateRoom{}, ErrBadPhase
	}
	return wire.CreateRoom{Type: wire.TypeCreateRoom, Address: m.address}, nil
}

func (m *Machine) JoinRoom(code string) (wire.JoinRoom, error) {
	if m.phase != PhaseWaitingOpponent || m.roomCode != "" {
		return wire.JoinRoom{}, ErrBadPhase
	}
	return wire.JoinRoom{Type: wire.TypeJoinRoom, Code: code, Address: m.address}, nil
}

// RejoinRoom reclaims the seat after a dropped connection, using the
// token issued with room_created/room_joined.
func (m *Machine) RejoinRoom() (wire.RejoinRoom, error) {
	if m.token == "" {
		return wire.RejoinRoom{}, ErrBadPhase
	}
	return wire.RejoinRoom{Type: wire.TypeRejoinRoom, Code: m.roomCode, Token: m.token}, nil
}

func (m *Machine) PlaceShip(x, y, length int, horizontal bool) error {
	if m.phase != PhasePlacing {
		return ErrBadPhase
	}
	return m.board.PlaceShip(x, y, length, horizontal)
}

// CommitFleet produces the fleet commitment and the fleet_committed
// frame. The machine sits in committing while the prover runs, then
// waits for the opponent's commit.
func (m *Machine) CommitFleet() (wire.FleetCommitted, error) {
	if m.phase != PhasePlacing {
		return wire.FleetCommitted{}, ErrBadPhase
	}
	if !m.board.Complete() {
		return wire.FleetCommitted{}, ErrFleetIncomplete
	}
	m.setPhase(PhaseCommitting)

	salt := make([]byte, 16)
	rand.Read(salt)
	commitment, err := m.prover.Commit(m.board.Cells(), salt)
	if err != nil {
		m.setPhase(PhasePlacing)
		return wire.FleetCommitted{}, fmt.Errorf("fleet commitment: %w", err)
	}
	m.ledger.CommitFleet(commitment)

	m.setPhase(PhaseWaitingCommits)
	return wire.FleetCommitted{Type: wire.TypeFleetCommitted}, nil
}

// Fire takes the shot at (x, y) and moves into waiting_proof until the
// opponent's shot_result arrives.
func (m *Machine) Fire(x, y int) (wire.FireShot, error) {
	if m.phase != PhaseYourTurn {
		return wire.FireShot{}, ErrBadPhase
	}
	if x < 0 || x >= GridSize || y < 0 || y >= GridSize {
		return wire.FireShot{}, ErrOutOfBounds
	}
	if m.fired[x][y] {
		return wire.FireShot{}, ErrAlreadyFired
	}
	m.fired[x][y] = true
	m.ledger.FireShot(x, y)
	m.setPhase(PhaseWaitingProof)
	return wire.FireShot{Type: wire.TypeFireShot, X: x, Y: y}, nil
}

// OnMessage advances the machine on a received relay frame and returns
// any frames that must be sent back. Frames that make no sense in the
// current phase are dropped, mirroring the relay's own tolerance.
func (m *Machine) OnMessage(frame wire.ServerFrame) ([]any, error) {
	switch frame.Type {
	case wire.TypeRoomCreated:
		m.roomCode = frame.Code
		m.token = frame.Token
		m.playerIndex = frame.PlayerIndex
		return nil, nil

	case wire.TypeRoomJoined:
		m.roomCode = frame.Code
		m.token = frame.Token
		m.playerIndex = frame.PlayerIndex
		if m.phase == PhaseWaitingOpponent {
			m.setPhase(PhasePlacing)
		}
		return nil, nil

	case wire.TypeOpponentJoined:
		if m.phase == PhaseWaitingOpponent {
			m.setPhase(PhasePlacing)
		}
		return nil, nil

	case wire.TypeRoomRejoined:
		m.playerIndex = frame.PlayerIndex
		m.opponentCommitted = frame.OpponentCommitted
		m.restorePhase(frame)
		return nil, nil

	case wire.TypeOpponentRejoined:
		return nil, nil

	case wire.TypeOpponentCommitted:
		m.opponentCommitted = true
		return nil, nil

	case wire.TypeBattleStart:
		if m.phase != PhaseWaitingCommits {
			return nil, nil
		}
		if frame.YourTurn {
			m.setPhase(PhaseYourTurn)
		} else {
			m.setPhase(PhaseOpponentTurn)
		}
		return nil, nil

	case wire.TypeIncomingShot:
		return m.onIncomingShot(frame)

	case wire.TypeShotResult:
		return m.onShotResult(frame)

	case wire.TypeOpponentWins:
		if m.phase.battle() {
			m.wonByMe = false
			m.setPhase(PhaseGameOver)
		}
		return nil, nil

	case wire.TypeOpponentDisconnected:
		// Automatic win for the surviving player.
		if m.phase.battle() {
			m.wonByMe = true
			m.setPhase(PhaseGameOver)
		}
		return nil, nil

	case wire.TypeError:
		return nil, fmt.Errorf("relay error: %s", frame.Message)
	}

	return nil, nil
}

func (m *Machine) onIncomingShot(frame wire.ServerFrame) ([]any, error) {
	if m.phase != PhaseOpponentTurn {
		return nil, nil
	}

	isHit, err := m.board.ReceiveShot(frame.X, frame.Y)
	if err != nil {
		return nil, err
	}
	proof, err := m.prover.ProveShot(frame.X, frame.Y, isHit)
	if err != nil {
		return nil, fmt.Errorf("shot proof: %w", err)
	}
	m.ledger.SubmitResponse(frame.X, frame.Y, isHit, proof)

	var proofJSON json.RawMessage
	if proof != nil {
		proofJSON, _ = json.Marshal(proof)
	}
	response := wire.ShotResponse{
		Type:  wire.TypeShotResponse,
		X:     frame.X,
		Y:     frame.Y,
		IsHit: isHit,
		Proof: proofJSON,
	}

	if m.board.HitsTaken() >= TotalShipCells {
		m.wonByMe = false
		m.setPhase(PhaseGameOver)
		return []any{response}, nil
	}
	m.setPhase(PhaseYourTurn)
	return []any{response}, nil
}

func (m *Machine) onShotResult(frame wire.ServerFrame) ([]any, error) {
	if m.phase != PhaseWaitingProof {
		return nil, nil
	}

	if frame.IsHit {
		m.hitsScored++
	}
	if m.hitsScored >= TotalShipCells {
		m.wonByMe = true
		m.setPhase(PhaseGameOver)
		m.ledger.ClaimVictory()
		return []any{wire.GameOver{Type: wire.TypeGameOver}}, nil
	}
	m.setPhase(PhaseOpponentTurn)
	return nil, nil
}

// restorePhase maps the coarse server snapshot back onto a client phase
// after a rejoin. Mid-battle the turn owner is unknowable from the
// snapshot, so the machine waits for the opponent to move; the board
// itself survived locally and needs no replay.
func (m *Machine) restorePhase(frame wire.ServerFrame) {
	switch frame.Phase {
	case "waiting":
		m.setPhase(PhaseWaitingOpponent)
	case "placing":
		if frame.YouCommitted {
			m.setPhase(PhaseWaitingCommits)
		} else {
			m.setPhase(PhasePlacing)
		}
	case "battle":
		m.setPhase(PhaseOpponentTurn)
	}
}
