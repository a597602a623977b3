package model

import (
	"fmt"
	"math"
	"time"
)

// GameSettings holds the tunable numbers of a match.
// Table coordinates: Y runs from TableMin to TableMax, X from 0 to TableWidth.
type GameSettings struct {
	ReadyTimeout     time.Duration // Window for both players to confirm readiness
	MaxFrameDelta    time.Duration // Largest accepted per-command deltaTime
	TickInterval     time.Duration // Simulation step
	TableMin         float64
	TableMax         float64
	TableWidth       float64
	PaddleSpeed      float64 // Units per second
	PaddleHalfHeight float64 // Distance from paddle centre that still returns the ball
	BallSpeed        float64 // Units per second
	WinScore         int
}

// DefaultGameSettings returns the default match configuration
func DefaultGameSettings() GameSettings {
	return GameSettings{
		ReadyTimeout:     30 * time.Second,
		MaxFrameDelta:    250 * time.Millisecond,
		TickInterval:     16 * time.Millisecond,
		TableMin:         0,
		TableMax:         100,
		TableWidth:       200,
		PaddleSpeed:      120,
		PaddleHalfHeight: 10,
		BallSpeed:        90,
		WinScore:         5,
	}
}

// Validate checks that the settings describe a playable table
func (s GameSettings) Validate() error {
	for _, v := range []float64{s.TableMin, s.TableMax, s.TableWidth, s.PaddleSpeed, s.PaddleHalfHeight, s.BallSpeed} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: table and speed values must be finite", ErrInvalidSettings)
		}
	}

	switch {
	case s.ReadyTimeout <= 0:
		return fmt.Errorf("%w: ready timeout must be positive", ErrInvalidSettings)
	case s.MaxFrameDelta < 0:
		return fmt.Errorf("%w: max frame delta must not be negative", ErrInvalidSettings)
	case s.TickInterval <= 0:
		return fmt.Errorf("%w: tick interval must be positive", ErrInvalidSettings)
	case s.TableMin >= s.TableMax:
		return fmt.Errorf("%w: table min must be below table max", ErrInvalidSettings)
	case s.TableWidth <= 0:
		return fmt.Errorf("%w: table width must be positive", ErrInvalidSettings)
	case s.PaddleSpeed <= 0:
		return fmt.Errorf("%w: paddle speed must be positive", ErrInvalidSettings)
	case s.PaddleHalfHeight < 0:
		return fmt.Errorf("%w: paddle half height must not be negative", ErrInvalidSettings)
	case s.BallSpeed < 0:
		return fmt.Errorf("%w: ball speed must not be negative", ErrInvalidSettings)
	case s.WinScore <= 0:
		return fmt.Errorf("%w: win score must be positive", ErrInvalidSettings)
	}
	return nil
}

// TableCentre returns the vertical midpoint of the table
func (s GameSettings) TableCentre() float64 {
	return s.TableMin + (s.TableMax-s.TableMin)/2
}
