package client

import "crypto/sha256"

// Prover binds to the external zero-knowledge proving engine. Commit
// produces the public fleet commitment; ProveShot produces the opaque
// blob attached to a shot_response. Neither artifact is interpreted
// anywhere in this repository.
type Prover interface {
	Commit(cells [GridSize][GridSize]bool, salt []byte) ([]byte, error)
	ProveShot(x, y int, isHit bool) ([]byte, error)
}

// StubProver stands in for the real engine, which runs browser-local.
// The commitment is a plain salted hash and the proof is empty; anything
// consuming these for actual verification lives outside this process.
type StubProver struct{}

func (StubProver) Commit(cells [GridSize][GridSize]bool, salt []byte) ([]byte, error) {
	h := sha256.New()
	for x := range cells {
		for y := range cells[x] {
			if cells[x][y] {
				h.Write([]byte{1})
			} else {
				h.Write([]byte{0})
			}
		}
	}
	h.Write(salt)
	return h.Sum(nil), nil
}

func (StubProver) ProveShot(x, y int, isHit bool) ([]byte, error) {
	return nil, nil
}
