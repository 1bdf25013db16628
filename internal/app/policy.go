package app

import "github.com/dkeye/Collab/internal/core"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	MarkSlow
	KickConn
	DropFrame
)

type Policy interface {
	OnBackPressure(room core.RoomService, cid core.ConnID) BackpressureAction
}

type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(room core.RoomService, cid core.ConnID) BackpressureAction {
	return KickConn
}
