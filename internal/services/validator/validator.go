package validator

import (
	"fmt"
	"math"

	"github.com/mcoot/paddle-arena/internal/model"
)

// Participants resolves which side a player defends in a live game.
// It returns model.ErrUnknownGame or model.ErrUnknownPlayer when the lookup fails.
type Participants interface {
	SideOf(gameID model.GameID, playerID model.PlayerID) (model.Side, error)
}

// Validator turns raw paddle inputs into validated moves. It never mutates state.
type Validator struct {
	maxDelta     float64
	participants Participants
}

// New creates a Validator bounded by the settings' max frame delta
func New(settings model.GameSettings, participants Participants) *Validator {
	return &Validator{
		maxDelta:     settings.MaxFrameDelta.Seconds(),
		participants: participants,
	}
}

// Validate checks direction, then delta time, then participation. The first failure wins.
func (v *Validator) Validate(input model.PaddleMoveInput) (model.ValidatedMove, error) {
	if !input.Direction.IsValid() {
		return model.ValidatedMove{}, &model.RejectionError{
			Reason: model.RejectionInvalidDirection,
			Detail: fmt.Sprintf("%q is not up or down", input.Direction),
		}
	}

	if err := ValidateDeltaTime(input.DeltaTime, v.maxDelta); err != nil {
		return model.ValidatedMove{}, err
	}

	side, err := v.participants.SideOf(input.GameID, input.PlayerID)
	if err != nil {
		return model.ValidatedMove{}, err
	}

	return model.ValidatedMove{
		GameID:    input.GameID,
		PlayerID:  input.PlayerID,
		Side:      side,
		Direction: input.Direction,
		DeltaTime: input.DeltaTime,
	}, nil
}

// ValidateDeltaTime checks that dt is a finite number of seconds in [0, maxDelta]
func ValidateDeltaTime(dt, maxDelta float64) error {
	switch {
	case math.IsNaN(dt) || math.IsInf(dt, 0):
		return &model.RejectionError{Reason: model.RejectionInvalidDeltaTime, Detail: "not a finite number"}
	case dt < 0:
		return &model.RejectionError{Reason: model.RejectionInvalidDeltaTime, Detail: "negative"}
	case dt > maxDelta:
		return &model.RejectionError{
			Reason: model.RejectionInvalidDeltaTime,
			Detail: fmt.Sprintf("%.3fs exceeds %.3fs", dt, maxDelta),
		}
	}
	return nil
}
