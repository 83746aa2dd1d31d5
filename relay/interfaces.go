package relay

import "time"

// NetworkSession is the transport a session runs on. The registry never
// touches gorilla directly so tests can swap in a scripted connection.
type NetworkSession interface {
	Close(reason string)
	Write(data []byte) error
	Read() ([]byte, error)
	Ping() error
}

// TokenManager issues and checks the rejoin credential handed out with
// room_created / room_joined.
type TokenManager interface {
	Generate(playerID, roomCode string) string
	Verify(token string) (playerID, roomCode string, err error)
}

// PeriodicTickerChannelCreator lets tests feed the registry's sweep and
// ping ticks by hand.
type PeriodicTickerChannelCreator interface {
	Create(duration time.Duration) <-chan time.Time
}
