package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harshbpathak/zk-battleship/wire"
)

func newPlacedMachine(t *testing.T) *Machine {
	t.Helper()
	m := NewMachine(StubProver{}, NoopLedger{})
	require.NoError(t, m.Connected("alice"))
	return m
}

// battleReadyMachine walks a machine through create/commit into battle.
func battleReadyMachine(t *testing.T, yourTurn bool) *Machine {
	t.Helper()
	m := newPlacedMachine(t)

	_, err := m.CreateRoom()
	require.NoError(t, err)
	_, err = m.OnMessage(wire.ServerFrame{Type: wire.TypeRoomCreated, Code: "K7H2PX", Token: "tok"})
	require.NoError(t, err)
	_, err = m.OnMessage(wire.ServerFrame{Type: wire.TypeOpponentJoined, Opponent: "bob"})
	require.NoError(t, err)
	require.Equal(t, PhasePlacing, m.Phase())

	placeStandardFleet(t, m.Board())
	_, err = m.CommitFleet()
	require.NoError(t, err)
	require.Equal(t, PhaseWaitingCommits, m.Phase())

	_, err = m.OnMessage(wire.ServerFrame{Type: wire.TypeBattleStart, YourTurn: yourTurn})
	require.NoError(t, err)
	return m
}

func TestMachineHappyPathTransitions(t *testing.T) {
	m := NewMachine(StubProver{}, NoopLedger{})
	assert.Equal(t, PhaseConnecting, m.Phase())

	require.NoError(t, m.Connected("alice"))
	assert.Equal(t, PhaseWaitingOpponent, m.Phase())

	_, err := m.CreateRoom()
	require.NoError(t, err)

	_, err = m.OnMessage(wire.ServerFrame{Type: wire.TypeRoomCreated, Code: "K7H2PX", Token: "tok"})
	require.NoError(t, err)
	assert.Equal(t, "K7H2PX", m.RoomCode())
	assert.Equal(t, 0, m.PlayerIndex())
	assert.Equal(t, PhaseWaitingOpponent, m.Phase())

	_, err = m.OnMessage(wire.ServerFrame{Type: wire.TypeOpponentJoined, Opponent: "bob"})
	require.NoError(t, err)
	assert.Equal(t, PhasePlacing, m.Phase())

	placeStandardFleet(t, m.Board())
	_, err = m.CommitFleet()
	require.NoError(t, err)
	assert.Equal(t, PhaseWaitingCommits, m.Phase())

	_, err = m.OnMessage(wire.ServerFrame{Type: wire.TypeBattleStart, YourTurn: true})
	require.NoError(t, err)
	assert.Equal(t, PhaseYourTurn, m.Phase())

	frame, err := m.Fire(3, 4)
	require.NoError(t, err)
	assert.Equal(t, wire.TypeFireShot, frame.Type)
	assert.Equal(t, 3, frame.X)
	assert.Equal(t, 4, frame.Y)
	assert.Equal(t, PhaseWaitingProof, m.Phase())

	_, err = m.OnMessage(wire.ServerFrame{Type: wire.TypeShotResult, X: 3, Y: 4, IsHit: false})
	require.NoError(t, err)
	assert.Equal(t, PhaseOpponentTurn, m.Phase())
}

func TestMachineJoinerPath(t *testing.T) {
	m := newPlacedMachine(t)

	_, err := m.JoinRoom("K7H2PX")
	require.NoError(t, err)

	_, err = m.OnMessage(wire.ServerFrame{Type: wire.TypeRoomJoined, Code: "K7H2PX", PlayerIndex: 1, Token: "tok", Opponent: "alice"})
	require.NoError(t, err)
	assert.Equal(t, PhasePlacing, m.Phase())
	assert.Equal(t, 1, m.PlayerIndex())
}

func TestMachineActionGuards(t *testing.T) {
	t.Run("Create Before Connecting", func(t *testing.T) {
		m := NewMachine(StubProver{}, NoopLedger{})
		_, err := m.CreateRoom()
		assert.ErrorIs(t, err, ErrBadPhase)
	})

	t.Run("Commit With Incomplete Fleet", func(t *testing.T) {
		m := newPlacedMachine(t)
		_, err := m.JoinRoom("K7H2PX")
		require.NoError(t, err)
		_, err = m.OnMessage(wire.ServerFrame{Type: wire.TypeRoomJoined, Code: "K7H2PX", PlayerIndex: 1})
		require.NoError(t, err)

		require.NoError(t, m.PlaceShip(0, 0, 5, true))
		_, err = m.CommitFleet()
		assert.ErrorIs(t, err, ErrFleetIncomplete)
		assert.Equal(t, PhasePlacing, m.Phase())
	})

	t.Run("Fire Out Of Turn", func(t *testing.T) {
		m := battleReadyMachine(t, false)
		_, err := m.Fire(0, 0)
		assert.ErrorIs(t, err, ErrBadPhase)
	})

	t.Run("Fire Same Cell Twice", func(t *testing.T) {
		m := battleReadyMachine(t, true)
		_, err := m.Fire(5, 5)
		require.NoError(t, err)
		_, err = m.OnMessage(wire.ServerFrame{Type: wire.TypeShotResult, X: 5, Y: 5, IsHit: false})
		require.NoError(t, err)
		_, err = m.OnMessage(wire.ServerFrame{Type: wire.TypeIncomingShot, X: 9, Y: 9})
		require.NoError(t, err)
		require.Equal(t, PhaseYourTurn, m.Phase())

		_, err = m.Fire(5, 5)
		assert.ErrorIs(t, err, ErrAlreadyFired)
	})

	t.Run("Fire Out Of Bounds", func(t *testing.T) {
		m := battleReadyMachine(t, true)
		_, err := m.Fire(10, 0)
		assert.ErrorIs(t, err, ErrOutOfBounds)
	})
}

func TestMachineAnswersIncomingShot(t *testing.T) {
	m := battleReadyMachine(t, false)

	replies, err := m.OnMessage(wire.ServerFrame{Type: wire.TypeIncomingShot, X: 0, Y: 0})
	require.NoError(t, err)
	require.Len(t, replies, 1)

	response, ok := replies[0].(wire.ShotResponse)
	require.True(t, ok)
	assert.Equal(t, 0, response.X)
	assert.Equal(t, 0, response.Y)
	assert.True(t, response.IsHit)
	assert.Equal(t, PhaseYourTurn, m.Phase())
}

func TestMachineWinsAtSeventeenHits(t *testing.T) {
	m := battleReadyMachine(t, true)

	for k := 0; k < TotalShipCells; k++ {
		x, y := k%GridSize, k/GridSize
		_, err := m.Fire(x, y)
		require.NoError(t, err)

		replies, err := m.OnMessage(wire.ServerFrame{Type: wire.TypeShotResult, X: x, Y: y, IsHit: true})
		require.NoError(t, err)

		if k < TotalShipCells-1 {
			require.Empty(t, replies)
			require.Equal(t, PhaseOpponentTurn, m.Phase())

			// opponent misses, turn comes back
			_, err = m.OnMessage(wire.ServerFrame{Type: wire.TypeIncomingShot, X: 9, Y: 9})
			require.NoError(t, err)
			require.Equal(t, PhaseYourTurn, m.Phase())
			continue
		}

		// seventeenth hit wins and announces the result
		require.Len(t, replies, 1)
		gameOver, ok := replies[0].(wire.GameOver)
		require.True(t, ok)
		assert.Equal(t, wire.TypeGameOver, gameOver.Type)
	}

	assert.Equal(t, PhaseGameOver, m.Phase())
	assert.True(t, m.Won())
	assert.Equal(t, TotalShipCells, m.HitsScored())
}

func TestMachineLosesWhenFleetSunk(t *testing.T) {
	m := battleReadyMachine(t, false)

	cells := shipCells()
	for k, cell := range cells {
		replies, err := m.OnMessage(wire.ServerFrame{Type: wire.TypeIncomingShot, X: cell[0], Y: cell[1]})
		require.NoError(t, err)
		require.Len(t, replies, 1)

		if k < len(cells)-1 {
			require.Equal(t, PhaseYourTurn, m.Phase())

			// fire back and miss to hand the turn over again
			x, y := k%GridSize, 9-k/GridSize
			_, err = m.Fire(x, y)
			require.NoError(t, err)
			_, err = m.OnMessage(wire.ServerFrame{Type: wire.TypeShotResult, X: x, Y: y, IsHit: false})
			require.NoError(t, err)
			require.Equal(t, PhaseOpponentTurn, m.Phase())
		}
	}

	assert.Equal(t, PhaseGameOver, m.Phase())
	assert.False(t, m.Won())
	assert.Equal(t, TotalShipCells, m.Board().HitsTaken())
}

func TestMachineEndsOnOpponentEvents(t *testing.T) {
	t.Run("Opponent Wins", func(t *testing.T) {
		m := battleReadyMachine(t, true)
		_, err := m.OnMessage(wire.ServerFrame{Type: wire.TypeOpponentWins})
		require.NoError(t, err)
		assert.Equal(t, PhaseGameOver, m.Phase())
		assert.False(t, m.Won())
	})

	t.Run("Opponent Disconnected", func(t *testing.T) {
		m := battleReadyMachine(t, false)
		_, err := m.OnMessage(wire.ServerFrame{Type: wire.TypeOpponentDisconnected})
		require.NoError(t, err)
		assert.Equal(t, PhaseGameOver, m.Phase())
		assert.True(t, m.Won())
	})

	t.Run("Ignored Outside Battle", func(t *testing.T) {
		m := newPlacedMachine(t)
		_, err := m.OnMessage(wire.ServerFrame{Type: wire.TypeOpponentWins})
		require.NoError(t, err)
		assert.Equal(t, PhaseWaitingOpponent, m.Phase())
	})
}

func TestMachineRejoinSnapshot(t *testing.T) {
	m := battleReadyMachine(t, true)

	frame, err := m.RejoinRoom()
	require.NoError(t, err)
	assert.Equal(t, "K7H2PX", frame.Code)
	assert.Equal(t, "tok", frame.Token)

	_, err = m.OnMessage(wire.ServerFrame{
		Type:              wire.TypeRoomRejoined,
		Code:              "K7H2PX",
		PlayerIndex:       0,
		Phase:             "battle",
		OpponentPresent:   true,
		YouCommitted:      true,
		OpponentCommitted: true,
	})
	require.NoError(t, err)
	assert.Equal(t, PhaseOpponentTurn, m.Phase())
}

func TestMachineSurfacesRelayErrors(t *testing.T) {
	m := newPlacedMachine(t)

	_, err := m.OnMessage(wire.ServerFrame{Type: wire.TypeError, Message: "room full"})
	assert.ErrorContains(t, err, "room full")
	assert.Equal(t, PhaseWaitingOpponent, m.Phase())
}

func TestMachinePhaseListener(t *testing.T) {
	m := NewMachine(StubProver{}, NoopLedger{})
	var seen []Phase
	m.SetPhaseListener(func(p Phase) { seen = append(seen, p) })

	require.NoError(t, m.Connected("alice"))
	_, err := m.JoinRoom("K7H2PX")
	require.NoError(t, err)
	_, err = m.OnMessage(wire.ServerFrame{Type: wire.TypeRoomJoined, Code: "K7H2PX", PlayerIndex: 1})
	require.NoError(t, err)
	placeStandardFleet(t, m.Board())
	_, err = m.CommitFleet()
	require.NoError(t, err)

	assert.Equal(t, []Phase{
		PhaseWaitingOpponent,
		PhasePlacing,
		PhaseCommitting,
		PhaseWaitingCommits,
	}, seen)
}
