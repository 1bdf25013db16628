package core

import "errors"

var (
	// ErrNameTaken rejects an admission whose display name collides
	// case-insensitively with a different member of the room.
	ErrNameTaken = errors.New("display name taken")

	// ErrUnknownConn marks a point-to-point send to a connection the
	// room does not hold. Callers treat it as a benign race, not a fault.
	ErrUnknownConn = errors.New("unknown connection")
)
