package relay

import "errors"

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomFull     = errors.New("room full")
	ErrNotInRoom    = errors.New("not in a room")
	ErrInRoom       = errors.New("already in a room")
	ErrInvalidToken = errors.New("invalid rejoin token")
)
