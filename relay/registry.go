package relay

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/harshbpathak/zk-battleship/wire"
)

const defaultAddress = "guest"

type eventKind int

const (
	eventOpen eventKind = iota
	eventFrame
	eventClose
	eventGraceExpired
)

type event struct {
	kind eventKind
	sess *session
	data []byte
	code string
	gen  int
}

// Registry owns every room and session. All mutation happens on the actor
// goroutine running Run; connection pumps and timers only post events into
// the inbox, so there is no locking anywhere in the relay.
type Registry struct {
	rooms    map[string]*Room
	players  map[*session]*Player
	sessions map[*session]struct{}
	inbox    chan event

	tokens        TokenManager
	tickerCreator PeriodicTickerChannelCreator

	gracePeriod   time.Duration
	sweepInterval time.Duration
	pingInterval  time.Duration
	graceGen      int
}

func NewRegistry(tokens TokenManager, tickerCreator PeriodicTickerChannelCreator) *Registry {
	return &Registry{
		rooms:         make(map[string]*Room),
		players:       make(map[*session]*Player),
		sessions:      make(map[*session]struct{}),
		inbox:         make(chan event, 256),
		tokens:        tokens,
		tickerCreator: tickerCreator,
		gracePeriod:   2 * time.Minute,
		sweepInterval: 5 * time.Minute,
		pingInterval:  30 * time.Second,
	}
}

// Attach takes ownership of a freshly upgraded connection. Called from
// the HTTP handler goroutine; hands everything to the actor via the inbox.
func (r *Registry) Attach(conn NetworkSession) {
	sess := newSession(conn)
	go sess.writePump()
	go sess.readPump(r.inbox)
	r.inbox <- event{kind: eventOpen, sess: sess}
}

// Run is the registry actor. It never returns.
func (r *Registry) Run(started chan struct{}) {
	sweepTicker := r.tickerCreator.Create(r.sweepInterval)
	pingTicker := r.tickerCreator.Create(r.pingInterval)

	close(started)

	for {
		select {
		case ev := <-r.inbox:
			switch ev.kind {
			case eventOpen:
				r.sessions[ev.sess] = struct{}{}
			case eventFrame:
				r.handleFrame(ev.sess, ev.data)
			case eventClose:
				r.handleClose(ev.sess)
			case eventGraceExpired:
				r.handleGraceExpired(ev.code, ev.gen)
			}
		case <-sweepTicker:
			r.sweep()
		case <-pingTicker:
			for sess := range r.sessions {
				sess.ping()
			}
		}
	}
}

func (r *Registry) sendError(sess *session, message string) {
	sess.send(wire.Encode(wire.Error{Type: wire.TypeError, Message: message}))
}

func (r *Registry) handleFrame(sess *session, data []byte) {
	var frame wire.ClientFrame
	if err := json.Unmarshal(data, &frame); err != nil || frame.Type == "" {
		r.sendError(sess, "malformed message")
		return
	}

	switch frame.Type {
	case wire.TypeCreateRoom:
		r.handleCreateRoom(sess, frame)
	case wire.TypeJoinRoom:
		r.handleJoinRoom(sess, frame)
	case wire.TypeRejoinRoom:
		r.handleRejoinRoom(sess, frame)
	case wire.TypeFleetCommitted:
		r.handleFleetCommitted(sess)
	case wire.TypeFireShot:
		r.handleFireShot(sess, frame)
	case wire.TypeShotResponse:
		r.handleShotResponse(sess, frame)
	case wire.TypeGameOver:
		r.handleGameOver(sess)
	default:
		r.sendError(sess, "unknown message type: "+frame.Type)
	}
}

func (r *Registry) handleCreateRoom(sess *session, frame wire.ClientFrame) {
	if r.players[sess] != nil {
		r.sendError(sess, ErrInRoom.Error())
		return
	}

	code := newRoomCode(func(c string) bool {
		_, exists := r.rooms[c]
		return exists
	})

	player := &Player{
		id:      uuid.NewString(),
		address: addressOrDefault(frame.Address),
		sess:    sess,
	}
	room := &Room{code: code, phase: PhaseWaiting}
	room.players[0] = player
	player.room = room

	r.rooms[code] = room
	r.players[sess] = player

	sess.send(wire.Encode(wire.RoomCreated{
		Type:        wire.TypeRoomCreated,
		Code:        code,
		PlayerIndex: 0,
		Token:       r.tokens.Generate(player.id, code),
	}))
	log.Info().Str("code", code).Str("address", player.address).Msg("room created")
}

func (r *Registry) handleJoinRoom(sess *session, frame wire.ClientFrame) {
	if r.players[sess] != nil {
		r.sendError(sess, ErrInRoom.Error())
		return
	}

	room, exists := r.rooms[frame.Code]
	if !exists {
		r.sendError(sess, ErrRoomNotFound.Error())
		return
	}
	seat := room.freeSeat()
	if seat < 0 {
		r.sendError(sess, ErrRoomFull.Error())
		return
	}

	r.cancelPendingDeletion(room)

	player := &Player{
		id:      uuid.NewString(),
		address: addressOrDefault(frame.Address),
		sess:    sess,
		room:    room,
	}
	room.players[seat] = player
	r.players[sess] = player

	if room.phase == PhaseWaiting && room.players[0] != nil && room.players[1] != nil {
		room.phase = PhasePlacing
	}

	var opponent string
	if peer := room.peerOf(player); peer != nil {
		opponent = peer.address
		if peer.attached() {
			peer.sess.send(wire.Encode(wire.OpponentJoined{
				Type:     wire.TypeOpponentJoined,
				Opponent: player.address,
			}))
		}
	}

	sess.send(wire.Encode(wire.RoomJoined{
		Type:        wire.TypeRoomJoined,
		Code:        room.code,
		PlayerIndex: seat,
		Token:       r.tokens.Generate(player.id, room.code),
		Opponent:    opponent,
	}))
	log.Info().Str("code", room.code).Str("address", player.address).Msg("player joined")
}

// handleRejoinRoom reclaims a vacated seat using the token issued on the
// original create/join. Unlike join_room it preserves the seat index and
// the committed flag, and the caller gets a coarse state snapshot.
func (r *Registry) handleRejoinRoom(sess *session, frame wire.ClientFrame) {
	if r.players[sess] != nil {
		r.sendError(sess, ErrInRoom.Error())
		return
	}

	playerID, roomCode, err := r.tokens.Verify(frame.Token)
	if err != nil || (frame.Code != "" && frame.Code != roomCode) {
		r.sendError(sess, ErrInvalidToken.Error())
		return
	}

	room, exists := r.rooms[roomCode]
	if !exists {
		r.sendError(sess, ErrRoomNotFound.Error())
		return
	}
	seat := room.seatByPlayerID(playerID)
	if seat < 0 {
		r.sendError(sess, ErrInvalidToken.Error())
		return
	}
	player := room.players[seat]
	if player.attached() {
		r.sendError(sess, ErrRoomFull.Error())
		return
	}

	r.cancelPendingDeletion(room)
	player.sess = sess
	r.players[sess] = player

	peer := room.peerOf(player)
	sess.send(wire.Encode(wire.RoomRejoined{
		Type:              wire.TypeRoomRejoined,
		Code:              room.code,
		PlayerIndex:       seat,
		Phase:             room.phase.String(),
		OpponentPresent:   peer.attached(),
		YouCommitted:      player.committed,
		OpponentCommitted: peer != nil && peer.committed,
	}))
	if peer.attached() {
		peer.sess.send(wire.Encode(wire.OpponentRejoined{Type: wire.TypeOpponentRejoined}))
	}
	log.Info().Str("code", room.code).Int("seat", seat).Msg("player rejoined")
}

func (r *Registry) handleFleetCommitted(sess *session) {
	player := r.players[sess]
	if player == nil {
		r.sendError(sess, ErrNotInRoom.Error())
		return
	}
	if player.committed {
		// Duplicate commit; must not re-trigger battle_start.
		return
	}
	player.committed = true

	room := player.room
	peer := room.peerOf(player)
	if peer.attached() {
		peer.sess.send(wire.Encode(wire.OpponentCommitted{Type: wire.TypeOpponentCommitted}))
	}

	if room.phase != PhaseBattle && room.bothCommitted() {
		room.phase = PhaseBattle
		for i, seat := range room.players {
			if seat.attached() {
				seat.sess.send(wire.Encode(wire.BattleStart{
					Type:     wire.TypeBattleStart,
					YourTurn: i == 0,
				}))
			}
		}
		log.Info().Str("code", room.code).Msg("battle started")
	}
}

func (r *Registry) handleFireShot(sess *session, frame wire.ClientFrame) {
	player := r.players[sess]
	if player == nil {
		r.sendError(sess, ErrNotInRoom.Error())
		return
	}
	peer := player.room.peerOf(player)
	if !peer.attached() {
		return
	}
	peer.sess.send(wire.Encode(wire.IncomingShot{
		Type: wire.TypeIncomingShot,
		X:    frame.X,
		Y:    frame.Y,
	}))
}

func (r *Registry) handleShotResponse(sess *session, frame wire.ClientFrame) {
	player := r.players[sess]
	if player == nil {
		r.sendError(sess, ErrNotInRoom.Error())
		return
	}
	peer := player.room.peerOf(player)
	if !peer.attached() {
		return
	}
	peer.sess.send(wire.Encode(wire.ShotResult{
		Type:  wire.TypeShotResult,
		X:     frame.X,
		Y:     frame.Y,
		IsHit: frame.IsHit,
		Proof: frame.Proof,
	}))
}

func (r *Registry) handleGameOver(sess *session) {
	player := r.players[sess]
	if player == nil {
		r.sendError(sess, ErrNotInRoom.Error())
		return
	}
	room := player.room
	peer := room.peerOf(player)
	if peer.attached() {
		peer.sess.send(wire.Encode(wire.OpponentWins{Type: wire.TypeOpponentWins}))
	}
	r.deleteRoom(room)
	log.Info().Str("code", room.code).Msg("game over, room deleted")
}

func (r *Registry) handleClose(sess *session) {
	delete(r.sessions, sess)
	player := r.players[sess]
	delete(r.players, sess)
	sess.release("")

	if player == nil {
		return
	}
	room := player.room
	player.sess = nil

	if room.phase == PhaseBattle {
		if peer := room.peerOf(player); peer.attached() {
			peer.sess.send(wire.Encode(wire.OpponentDisconnected{Type: wire.TypeOpponentDisconnected}))
		}
	}

	if room.attachedCount() == 0 {
		r.scheduleRoomDeletion(room)
	}
}

// scheduleRoomDeletion arms the grace timer for an empty room. The timer
// posts back into the actor inbox; cancellation is a plain field clear on
// the actor, so join-vs-expiry can never race.
func (r *Registry) scheduleRoomDeletion(room *Room) {
	r.cancelPendingDeletion(room)
	r.graceGen++
	gen := r.graceGen
	code := room.code
	room.pendingDeletion = &graceHandle{
		gen: gen,
		timer: time.AfterFunc(r.gracePeriod, func() {
			r.inbox <- event{kind: eventGraceExpired, code: code, gen: gen}
		}),
	}
	log.Debug().Str("code", code).Dur("grace", r.gracePeriod).Msg("room empty, deletion scheduled")
}

func (r *Registry) cancelPendingDeletion(room *Room) {
	if room.pendingDeletion != nil {
		room.pendingDeletion.timer.Stop()
		room.pendingDeletion = nil
	}
}

func (r *Registry) handleGraceExpired(code string, gen int) {
	room, exists := r.rooms[code]
	if !exists {
		return
	}
	if room.pendingDeletion == nil || room.pendingDeletion.gen != gen {
		// A join cancelled this timer after it was already in flight.
		return
	}
	if room.attachedCount() > 0 {
		return
	}
	r.deleteRoom(room)
	log.Info().Str("code", code).Msg("empty room deleted after grace period")
}

// sweep is the backstop for leaked timers and missed close events: any
// room with no open transport left is torn down.
func (r *Registry) sweep() {
	for code, room := range r.rooms {
		if room.attachedCount() > 0 {
			continue
		}
		r.deleteRoom(room)
		log.Info().Str("code", code).Msg("dead room swept")
	}
}

func (r *Registry) deleteRoom(room *Room) {
	r.cancelPendingDeletion(room)
	for _, seat := range room.players {
		if seat == nil {
			continue
		}
		if seat.sess != nil {
			delete(r.players, seat.sess)
		}
		seat.room = nil
		seat.sess = nil
	}
	delete(r.rooms, room.code)
}

func addressOrDefault(address string) string {
	if address == "" {
		return defaultAddress
	}
	return address
}
