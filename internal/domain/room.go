package domain

// RoomKey is the client-chosen identifier of a collaborative session.
// The server never mints room keys.
type RoomKey string
