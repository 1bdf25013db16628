package domain

import "time"

// ChatMessage is immutable once broadcast and never persisted.
// Sender fields are stamped server-side; the client copy is not trusted.
type ChatMessage struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	Sender     string    `json:"sender"`
	SenderConn string    `json:"sender_conn"`
	Timestamp  time.Time `json:"ts"`
}
