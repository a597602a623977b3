package model

// PlayerID uniquely identifies a participant across the system
type PlayerID string

// Side is the half of the table a player defends
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// Opponent returns the other side of the table
func (s Side) Opponent() Side {
	if s == SideLeft {
		return SideRight
	}
	return SideLeft
}
