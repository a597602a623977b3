package session

import (
	"math"

	"github.com/mcoot/paddle-arena/internal/model"
)

// maxServeAngle bounds the vertical component of a serve, in radians from horizontal
const maxServeAngle = math.Pi / 4

// applyPaddleMove moves a paddle and returns its new position and velocity
func applyPaddleMove(position float64, direction model.Direction, dt float64, settings model.GameSettings) (float64, float64) {
	velocity := velocityFor(direction, settings.PaddleSpeed)
	return clamp(position+velocity*dt, settings.TableMin, settings.TableMax), velocity
}

func velocityFor(direction model.Direction, speed float64) float64 {
	if direction == model.DirectionUp {
		return speed
	}
	return -speed
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// serveBall places the ball at the centre travelling towards the given side.
// spin in [0, 1) picks the angle within the serve cone.
func serveBall(towards model.Side, spin float64, settings model.GameSettings) model.Ball {
	angle := (spin*2 - 1) * maxServeAngle
	vx := settings.BallSpeed * math.Cos(angle)
	if towards == model.SideLeft {
		vx = -vx
	}
	return model.Ball{
		X:  settings.TableWidth / 2,
		Y:  settings.TableCentre(),
		VX: vx,
		VY: settings.BallSpeed * math.Sin(angle),
	}
}

// stepBall advances the ball by dt seconds. It returns the side that scored,
// or an empty side when play continues.
func stepBall(ball *model.Ball, left, right model.Paddle, dt float64, settings model.GameSettings) model.Side {
	ball.X += ball.VX * dt
	ball.Y += ball.VY * dt

	// Walls
	if ball.Y < settings.TableMin {
		ball.Y = settings.TableMin + (settings.TableMin - ball.Y)
		ball.VY = -ball.VY
	} else if ball.Y > settings.TableMax {
		ball.Y = settings.TableMax - (ball.Y - settings.TableMax)
		ball.VY = -ball.VY
	}
	ball.Y = clamp(ball.Y, settings.TableMin, settings.TableMax)

	// Goal lines
	switch {
	case ball.X <= 0:
		if !covers(left, ball.Y, settings) {
			return model.SideRight
		}
		ball.X = -ball.X
		ball.VX = math.Abs(ball.VX)
	case ball.X >= settings.TableWidth:
		if !covers(right, ball.Y, settings) {
			return model.SideLeft
		}
		ball.X = settings.TableWidth - (ball.X - settings.TableWidth)
		ball.VX = -math.Abs(ball.VX)
	}
	return ""
}

func covers(paddle model.Paddle, y float64, settings model.GameSettings) bool {
	return math.Abs(y-paddle.Position) <= settings.PaddleHalfHeight
}
