// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"

	"github.com/google/uuid"
)

const MaxNameLen = 36

var (
	ErrNameTooLong = errors.New("display name too long")
	ErrNameEmpty   = errors.New("display name empty")
)

type MemberID string

// Member is one logical participant of a room. Connection bookkeeping
// lives in core; identity is its own generated token, never a socket id.
type Member struct {
	ID          MemberID `json:"id"`
	Name        string   `json:"name"`
	SignalingID string   `json:"signaling_id,omitempty"`
}

// NewMember mints a fresh identity and avoids ad-hoc struct literals
// in adapters.
func NewMember(name string) (*Member, error) {
	if len(name) == 0 {
		return nil, ErrNameEmpty
	}
	if len(name) > MaxNameLen {
		return nil, ErrNameTooLong
	}
	return &Member{ID: MemberID(uuid.NewString()), Name: name}, nil
}
