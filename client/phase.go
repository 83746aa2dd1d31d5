package client

// Phase is the local peer phase. Both peers run the same machine and are
// never synchronized by the relay; only message ordering keeps the two
// sides complementary.
type Phase int

const (
	PhaseConnecting Phase = iota
	PhaseWaitingOpponent
	PhasePlacing
	PhaseCommitting
	PhaseWaitingCommits
	PhaseYourTurn
	PhaseOpponentTurn
	PhaseWaitingProof
	PhaseGameOver
)

func (p Phase) String() string {
	switch p {
	case PhaseConnecting:
		return "connecting"
	case PhaseWaitingOpponent:
		return "waiting_opponent"
	case PhasePlacing:
		return "placing"
	case PhaseCommitting:
		return "committing"
	case PhaseWaitingCommits:
		return "waiting_commits"
	case PhaseYourTurn:
		return "your_turn"
	case PhaseOpponentTurn:
		return "opponent_turn"
	case PhaseWaitingProof:
		return "waiting_proof"
	case PhaseGameOver:
		return "game_over"
	}
	return "unknown"
}

// battle reports whether the phase is part of an ongoing battle, where
// opponent_wins and opponent_disconnected end the game.
func (p Phase) battle() bool {
	switch p {
	case PhaseYourTurn, PhaseOpponentTurn, PhaseWaitingProof:
		return true
	}
	return false
}
