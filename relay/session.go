package relay

import (
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// session is the server-side half of one client connection. The read and
// write pumps run on their own goroutines; everything else (open, player,
// released) is owned by the registry actor and must only be touched there.
type session struct {
	id       string
	conn     NetworkSession
	outbox   chan []byte
	pingChan chan struct{}
	limiter  *rate.Limiter
	open     bool
	released bool
}

func newSession(conn NetworkSession) *session {
	return &session{
		id:       uuid.NewString(),
		conn:     conn,
		outbox:   make(chan []byte, 64),
		pingChan: make(chan struct{}, 1),
		limiter:  rate.NewLimiter(20, 40),
		open:     true,
	}
}

// readPump forwards inbound frames to the registry inbox until the
// transport fails, then reports the close. Frames over the rate limit are
// dropped on the floor.
func (s *session) readPump(inbox chan<- event) {
	for {
		data, err := s.conn.Read()
		if err != nil {
			break
		}
		if !s.limiter.Allow() {
			continue
		}
		inbox <- event{kind: eventFrame, sess: s, data: data}
	}
	inbox <- event{kind: eventClose, sess: s}
}

func (s *session) writePump() {
	for {
		select {
		case data, ok := <-s.outbox:
			if !ok {
				return
			}
			if err := s.conn.Write(data); err != nil {
				return
			}
		case _, ok := <-s.pingChan:
			if !ok {
				return
			}
			if err := s.conn.Ping(); err != nil {
				return
			}
		}
	}
}

// send queues a frame without blocking. Delivery is fire-and-forget: a
// closed session or a full outbox simply loses the frame.
func (s *session) send(data []byte) {
	if !s.open {
		return
	}
	select {
	case s.outbox <- data:
	default:
	}
}

func (s *session) ping() {
	if !s.open {
		return
	}
	select {
	case s.pingChan <- struct{}{}:
	default:
	}
}

// release shuts both pumps down and closes the transport. Safe to call
// twice; only the registry actor does either.
func (s *session) release(reason string) {
	if s.released {
		return
	}
	s.released = true
	s.open = false
	close(s.outbox)
	close(s.pingChan)
	s.conn.Close(reason)
}
