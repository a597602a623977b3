package session

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mcoot/paddle-arena/internal/model"
)

func TestApplyPaddleMove(t *testing.T) {
	settings := model.DefaultGameSettings()

	tests := []struct {
		name         string
		position     float64
		direction    model.Direction
		dt           float64
		wantPosition float64
		wantVelocity float64
	}{
		{"up moves towards max", 50, model.DirectionUp, 0.1, 62, 120},
		{"down moves towards min", 50, model.DirectionDown, 0.1, 38, -120},
		{"zero delta holds position", 50, model.DirectionUp, 0, 50, 120},
		{"clamped at max", 95, model.DirectionUp, 0.25, 100, 120},
		{"clamped at min", 5, model.DirectionDown, 0.25, 0, -120},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			position, velocity := applyPaddleMove(tt.position, tt.direction, tt.dt, settings)
			assert.InDelta(t, tt.wantPosition, position, 1e-9)
			assert.Equal(t, tt.wantVelocity, velocity)
		})
	}
}

func TestServeBall(t *testing.T) {
	settings := model.DefaultGameSettings()

	left := serveBall(model.SideLeft, 0.5, settings)
	assert.Equal(t, 100.0, left.X)
	assert.Equal(t, 50.0, left.Y)
	assert.InDelta(t, -90, left.VX, 1e-9)
	assert.InDelta(t, 0, left.VY, 1e-9)

	right := serveBall(model.SideRight, 0, settings)
	assert.Greater(t, right.VX, 0.0)
	assert.Less(t, right.VY, 0.0)
	assert.InDelta(t, settings.BallSpeed, math.Hypot(right.VX, right.VY), 1e-9)
}

func TestStepBallBouncesOffWalls(t *testing.T) {
	settings := model.DefaultGameSettings()
	ball := model.Ball{X: 100, Y: 98, VX: 0, VY: 40}

	scorer := stepBall(&ball, model.Paddle{}, model.Paddle{}, 0.1, settings)

	assert.Equal(t, model.Side(""), scorer)
	assert.InDelta(t, 98, ball.Y, 1e-9)
	assert.Equal(t, -40.0, ball.VY)
}

func TestStepBallReturnedByCoveringPaddle(t *testing.T) {
	settings := model.DefaultGameSettings()
	ball := model.Ball{X: 2, Y: 55, VX: -40, VY: 0}
	left := model.Paddle{Side: model.SideLeft, Position: 50}

	scorer := stepBall(&ball, left, model.Paddle{}, 0.1, settings)

	assert.Equal(t, model.Side(""), scorer)
	assert.InDelta(t, 2, ball.X, 1e-9)
	assert.Equal(t, 40.0, ball.VX)
}

func TestStepBallScoresPastMissedPaddle(t *testing.T) {
	settings := model.DefaultGameSettings()

	ball := model.Ball{X: 2, Y: 80, VX: -40, VY: 0}
	left := model.Paddle{Side: model.SideLeft, Position: 50}
	assert.Equal(t, model.SideRight, stepBall(&ball, left, model.Paddle{}, 0.1, settings))

	ball = model.Ball{X: 198, Y: 10, VX: 40, VY: 0}
	right := model.Paddle{Side: model.SideRight, Position: 50}
	assert.Equal(t, model.SideLeft, stepBall(&ball, model.Paddle{}, right, 0.1, settings))
}
