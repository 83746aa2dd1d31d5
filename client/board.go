package client

import (
	"errors"
	"slices"
)

const (
	GridSize = 10

	// TotalShipCells is fixed by the standard fleet (5+4+3+3+2). The win
	// condition counts against this constant, never against whatever a
	// placement happens to total.
	TotalShipCells = 17
)

// FleetLengths is the standard fleet every player places.
var FleetLengths = []int{5, 4, 3, 3, 2}

var (
	ErrOutOfBounds     = errors.New("coordinates out of bounds")
	ErrShipOverlap     = errors.New("ship overlaps another ship")
	ErrShipUnavailable = errors.New("no such ship left to place")
	ErrFleetIncomplete = errors.New("fleet not fully placed")
)

type ShotRecord struct {
	X     int
	Y     int
	IsHit bool
}

// Board is the private fleet grid. It never leaves the client; the relay
// only ever sees hit/miss answers derived from it.
type Board struct {
	cells     [GridSize][GridSize]bool
	shotMask  [GridSize][GridSize]bool
	remaining []int
	hitsTaken int
	history   []ShotRecord
}

func NewBoard() *Board {
	return &Board{remaining: slices.Clone(FleetLengths)}
}

// PlaceShip puts a ship of the given length with its bow at (x, y),
// extending right when horizontal and down otherwise.
func (b *Board) PlaceShip(x, y, length int, horizontal bool) error {
	if !slices.Contains(b.remaining, length) {
		return ErrShipUnavailable
	}

	dx, dy := 0, 1
	if horizontal {
		dx, dy = 1, 0
	}
	if x < 0 || y < 0 || x+dx*(length-1) >= GridSize || y+dy*(length-1) >= GridSize {
		return ErrOutOfBounds
	}
	for i := 0; i < length; i++ {
		if b.cells[x+dx*i][y+dy*i] {
			return ErrShipOverlap
		}
	}

	for i := 0; i < length; i++ {
		b.cells[x+dx*i][y+dy*i] = true
	}
	idx := slices.Index(b.remaining, length)
	b.remaining = slices.Delete(b.remaining, idx, idx+1)
	return nil
}

func (b *Board) Complete() bool {
	return len(b.remaining) == 0
}

// ReceiveShot answers an opponent shot against the local grid. A repeat
// shot at the same cell returns the recorded answer without counting the
// hit twice.
func (b *Board) ReceiveShot(x, y int) (bool, error) {
	if x < 0 || x >= GridSize || y < 0 || y >= GridSize {
		return false, ErrOutOfBounds
	}
	isHit := b.cells[x][y]
	if b.shotMask[x][y] {
		return isHit, nil
	}
	b.shotMask[x][y] = true
	if isHit {
		b.hitsTaken++
	}
	b.history = append(b.history, ShotRecord{X: x, Y: y, IsHit: isHit})
	return isHit, nil
}

func (b *Board) HitsTaken() int {
	return b.hitsTaken
}

func (b *Board) History() []ShotRecord {
	return slices.Clone(b.history)
}

// Cells exposes the grid to the prover binding.
func (b *Board) Cells() [GridSize][GridSize]bool {
	return b.cells
}
