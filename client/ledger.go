package client

// Ledger mirrors game events onto the settlement contract. Calls are
// fire-and-forget by design: the relay protocol works whether or not they
// land, and the ledger path settles the result independently.
type Ledger interface {
	CommitFleet(commitment []byte)
	FireShot(x, y int)
	SubmitResponse(x, y int, isHit bool, proof []byte)
	ClaimVictory()
}

// NoopLedger plays without settlement.
type NoopLedger struct{}

func (NoopLedger) CommitFleet(commitment []byte)                     {}
func (NoopLedger) FireShot(x, y int)                                 {}
func (NoopLedger) SubmitResponse(x, y int, isHit bool, proof []byte) {}
func (NoopLedger) ClaimVictory()                                     {}
