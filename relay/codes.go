package relay

import "math/rand"

// Room codes are short enough to read out loud and type on a phone.
// The alphabet drops I, O, 0 and 1 so no two symbols look alike.
const (
	codeAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"
	codeLength   = 6
)

// newRoomCode returns a code that taken() rejects for every live room.
// Collisions are close to impossible at realistic room counts, but the
// retry loop keeps uniqueness a guarantee instead of an assumption.
func newRoomCode(taken func(string) bool) string {
	buf := make([]byte, codeLength)
	for {
		for i := range buf {
			buf[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
		}
		code := string(buf)
		if !taken(code) {
			return code
		}
	}
}
