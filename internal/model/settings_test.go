package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGameSettingsValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*GameSettings)
		valid  bool
	}{
		{name: "defaults", modify: func(*GameSettings) {}, valid: true},
		{name: "negative table", modify: func(s *GameSettings) { s.TableMin, s.TableMax = -20, 20 }, valid: true},
		{name: "nan table min", modify: func(s *GameSettings) { s.TableMin = math.NaN() }},
		{name: "nan table max", modify: func(s *GameSettings) { s.TableMax = math.NaN() }},
		{name: "infinite width", modify: func(s *GameSettings) { s.TableWidth = math.Inf(1) }},
		{name: "infinite paddle speed", modify: func(s *GameSettings) { s.PaddleSpeed = math.Inf(1) }},
		{name: "nan half height", modify: func(s *GameSettings) { s.PaddleHalfHeight = math.NaN() }},
		{name: "negative infinite ball speed", modify: func(s *GameSettings) { s.BallSpeed = math.Inf(-1) }},
		{name: "inverted table", modify: func(s *GameSettings) { s.TableMin, s.TableMax = 10, 5 }},
		{name: "zero win score", modify: func(s *GameSettings) { s.WinScore = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultGameSettings()
			tt.modify(&s)
			err := s.Validate()
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidSettings)
		})
	}
}
