package physics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freeConfig() Config {
	return Config{
		Elasticity:    0.5,
		BounceEnabled: true,
	}
}

func TestEngine_Step_AdvancesPositionByVelocity(t *testing.T) {
	e := NewEngine(freeConfig())
	e.SetPosition(10, 20)
	e.SetVelocity(10, -5)

	e.Step(0.25)

	assert.Equal(t, Vector2D{X: 12.5, Y: 18.75}, e.Position)
	assert.Equal(t, Vector2D{X: 10, Y: -5}, e.Velocity)
}

func TestEngine_Step_NonPositiveDtIsNoop(t *testing.T) {
	cfg := freeConfig()
	cfg.GravityEnabled = true
	cfg.Gravity = 300
	e := NewEngine(cfg)
	e.SetVelocity(5, 5)

	for _, dt := range []float64{0, -0.1} {
		e.Step(dt)
	}

	assert.Equal(t, Vector2D{}, e.Position)
	assert.Equal(t, Vector2D{X: 5, Y: 5}, e.Velocity)
	assert.Zero(t, e.LastAccel)
}

func TestEngine_Step_Forces(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		wantA  Vector2D
	}{
		{"gravity_only", func(c *Config) { c.GravityEnabled = true; c.Gravity = 300 }, Vector2D{Y: 300}},
		{"accel_only", func(c *Config) { c.AccelEnabled = true; c.AccelX = 40; c.AccelY = -30 }, Vector2D{X: 40, Y: -30}},
		{"gravity_and_accel", func(c *Config) {
			c.GravityEnabled = true
			c.Gravity = 100
			c.AccelEnabled = true
			c.AccelX = 10
			c.AccelY = 20
		}, Vector2D{X: 10, Y: 120}},
		{"inverted", func(c *Config) {
			c.GravityEnabled = true
			c.Gravity = 100
			c.InvertForces = true
		}, Vector2D{Y: -100}},
		{"disabled_accel_ignored", func(c *Config) { c.AccelX = 999 }, Vector2D{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := freeConfig()
			tt.mutate(&cfg)
			e := NewEngine(cfg)

			e.Step(0.5)

			assert.Equal(t, tt.wantA, e.LastAcceleration)
			assert.InDelta(t, tt.wantA.Length(), e.LastAccel, 1e-12)
			assert.InDelta(t, tt.wantA.X*0.5, e.Velocity.X, 1e-12)
			assert.InDelta(t, tt.wantA.Y*0.5, e.Velocity.Y, 1e-12)
		})
	}
}

func TestEngine_Step_FrictionIsFrameRateIndependent(t *testing.T) {
	cfg := freeConfig()
	cfg.FrictionEnabled = true
	cfg.Friction = 0.5

	single := NewEngine(cfg)
	single.SetVelocity(400, -300)
	single.Step(0.3)

	split := NewEngine(cfg)
	split.SetVelocity(400, -300)
	split.Step(0.1)
	split.Step(0.2)

	assert.InDelta(t, single.Velocity.X, split.Velocity.X, 1e-9)
	assert.InDelta(t, single.Velocity.Y, split.Velocity.Y, 1e-9)
	assert.InDelta(t, 400*math.Pow(0.5, 0.3), single.Velocity.X, 1e-9)
}

func TestEngine_Step_FrictionClampedAtUse(t *testing.T) {
	tests := []struct {
		name     string
		friction float64
		wantVX   float64
	}{
		{"above_one_keeps_velocity", 1.5, 100},
		{"negative_stops", -0.5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := freeConfig()
			cfg.FrictionEnabled = true
			cfg.Friction = tt.friction
			e := NewEngine(cfg)
			e.SetVelocity(100, 0)

			e.Step(0.1)

			assert.InDelta(t, tt.wantVX, e.Velocity.X, 1e-12)
			assert.Equal(t, tt.friction, e.Config.Friction, "config must not be rewritten")
		})
	}
}

func TestEngine_ResolveBounds_ElasticityClampedAtUse(t *testing.T) {
	tests := []struct {
		name       string
		elasticity float64
		wantVY     float64
	}{
		{"negative_stops_at_floor", -0.5, 0},
		{"above_one_keeps_impact_speed", 1.5, -100},
		{"in_range", 0.5, -50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := freeConfig()
			cfg.Elasticity = tt.elasticity
			e := NewEngine(cfg)
			e.SetPosition(0, 95)
			e.SetVelocity(0, 100)

			e.ResolveBounds(NewRect(0, 0, 100, 100), 10, 10)

			assert.InDelta(t, tt.wantVY, e.Velocity.Y, 1e-12)
			assert.LessOrEqual(t, e.Velocity.Y, 0.0, "velocity must not point into the floor")
			assert.Equal(t, tt.elasticity, e.Config.Elasticity, "config must not be rewritten")
		})
	}
}

func TestEngine_Step_SpeedNeverExceedsMax(t *testing.T) {
	const maxSpeed = 500.0
	accels := []Vector2D{
		{X: 1e6, Y: 0},
		{X: -3e5, Y: 4e5},
		{X: 0, Y: -1e7},
		{X: 123, Y: 456},
	}

	for _, a := range accels {
		cfg := freeConfig()
		cfg.MaxSpeed = maxSpeed
		cfg.AccelEnabled = true
		cfg.AccelX = a.X
		cfg.AccelY = a.Y
		e := NewEngine(cfg)
		e.SetVelocity(-450, 300)

		for i := 0; i < 20; i++ {
			e.Step(0.05)
			require.LessOrEqual(t, e.Velocity.Length(), maxSpeed+1e-9, "accel %v step %d", a, i)
		}
	}
}

func TestEngine_Step_MaxSpeedPreservesDirection(t *testing.T) {
	cfg := freeConfig()
	cfg.MaxSpeed = 100
	e := NewEngine(cfg)
	e.SetVelocity(300, 400)

	e.Step(0.01)

	assert.InDelta(t, 60, e.Velocity.X, 1e-9)
	assert.InDelta(t, 80, e.Velocity.Y, 1e-9)
}

func TestEngine_ResolveBounds_BottomContact(t *testing.T) {
	bounds := NewRect(0, 0, 100, 500)

	t.Run("bounce_enabled", func(t *testing.T) {
		e := NewEngine(freeConfig())
		e.SetPosition(20, 460)
		e.SetVelocity(0, 200)

		e.ResolveBounds(bounds, 50, 50)

		assert.Equal(t, 450.0, e.Position.Y)
		assert.Equal(t, -100.0, e.Velocity.Y)
		assert.Equal(t, 1, e.BounceCount)
	})

	t.Run("bounce_disabled", func(t *testing.T) {
		cfg := freeConfig()
		cfg.BounceEnabled = false
		e := NewEngine(cfg)
		e.SetPosition(20, 460)
		e.SetVelocity(0, 200)

		e.ResolveBounds(bounds, 50, 50)

		assert.Equal(t, 450.0, e.Position.Y)
		assert.Equal(t, 0.0, e.Velocity.Y)
		assert.Equal(t, 1, e.BounceCount)
	})
}

func TestEngine_ResolveBounds_AllSides(t *testing.T) {
	bounds := NewRect(10, 20, 200, 100)
	tests := []struct {
		name    string
		pos     Vector2D
		vel     Vector2D
		wantPos Vector2D
		wantVel Vector2D
	}{
		{"top", Vector2D{X: 50, Y: 5}, Vector2D{Y: -80}, Vector2D{X: 50, Y: 20}, Vector2D{Y: 40}},
		{"left", Vector2D{X: 0, Y: 50}, Vector2D{X: -60}, Vector2D{X: 10, Y: 50}, Vector2D{X: 30}},
		{"right", Vector2D{X: 190, Y: 50}, Vector2D{X: 60}, Vector2D{X: 180, Y: 50}, Vector2D{X: -30}},
		{"corner", Vector2D{X: 200, Y: 100}, Vector2D{X: 10, Y: 20}, Vector2D{X: 180, Y: 90}, Vector2D{X: -5, Y: -10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(freeConfig())
			e.Position = tt.pos
			e.Velocity = tt.vel

			e.ResolveBounds(bounds, 30, 30)

			assert.Equal(t, tt.wantPos, e.Position)
			assert.Equal(t, tt.wantVel, e.Velocity)
		})
	}
}

func TestEngine_ResolveBounds_Idempotent(t *testing.T) {
	e := NewEngine(freeConfig())
	e.SetPosition(-40, 900)
	e.SetVelocity(-10, 300)
	bounds := NewRect(0, 0, 100, 500)

	e.ResolveBounds(bounds, 50, 50)
	pos, vel, bounces := e.Position, e.Velocity, e.BounceCount

	e.ResolveBounds(bounds, 50, 50)

	assert.Equal(t, pos, e.Position)
	assert.Equal(t, vel, e.Velocity)
	assert.Equal(t, bounces, e.BounceCount)
}

func TestEngine_ResolveRectCollisions_LeastPenetration(t *testing.T) {
	obstacle := NewRect(100, 0, 200, 200)

	t.Run("left_edge_only_moves_x", func(t *testing.T) {
		e := NewEngine(freeConfig())
		e.SetPosition(55, 75)
		e.SetVelocity(40, 12)

		e.ResolveRectCollisions([]Rect{obstacle}, 50, 50)

		assert.Equal(t, Vector2D{X: 50, Y: 75}, e.Position)
		assert.Equal(t, -20.0, e.Velocity.X)
		assert.Equal(t, 12.0, e.Velocity.Y)
		assert.Equal(t, 1, e.WindowCollisionCount)
		assert.Equal(t, 1, e.BounceCount)
	})

	t.Run("lands_on_top", func(t *testing.T) {
		e := NewEngine(freeConfig())
		e.SetPosition(150, -40)
		e.SetVelocity(7, 90)

		e.ResolveRectCollisions([]Rect{obstacle}, 50, 50)

		assert.Equal(t, Vector2D{X: 150, Y: -50}, e.Position)
		assert.Equal(t, Vector2D{X: 7, Y: -45}, e.Velocity)
	})

	t.Run("exact_tie_prefers_left", func(t *testing.T) {
		e := NewEngine(freeConfig())
		e.SetPosition(90, 190)
		corner := NewRect(100, 200, 100, 100)

		e.ResolveRectCollisions([]Rect{corner}, 50, 50)

		assert.Equal(t, Vector2D{X: 50, Y: 190}, e.Position)
	})

	t.Run("bounce_disabled_zeroes_normal", func(t *testing.T) {
		cfg := freeConfig()
		cfg.BounceEnabled = false
		e := NewEngine(cfg)
		e.SetPosition(280, 75)
		e.SetVelocity(-40, 12)

		e.ResolveRectCollisions([]Rect{obstacle}, 50, 50)

		assert.Equal(t, 300.0, e.Position.X)
		assert.Equal(t, Vector2D{X: 0, Y: 12}, e.Velocity)
	})

	t.Run("degenerate_and_disjoint_ignored", func(t *testing.T) {
		e := NewEngine(freeConfig())
		e.SetPosition(120, 50)
		e.SetVelocity(1, 1)

		e.ResolveRectCollisions([]Rect{
			NewRect(120, 50, 0, 100),
			NewRect(130, 60, 10, 0),
			NewRect(500, 500, 10, 10),
			NewRect(170, 50, 10, 10), // touching edge only
		}, 50, 50)

		assert.Equal(t, Vector2D{X: 120, Y: 50}, e.Position)
		assert.Zero(t, e.WindowCollisionCount)
	})
}

func TestEngine_ResetCounters_KeepsState(t *testing.T) {
	e := NewEngine(freeConfig())
	e.SetPosition(1, 2)
	e.SetVelocity(3, 4)
	e.BounceCount = 5
	e.WindowCollisionCount = 6

	e.ResetCounters()

	assert.Zero(t, e.BounceCount)
	assert.Zero(t, e.WindowCollisionCount)
	assert.Equal(t, Vector2D{X: 1, Y: 2}, e.Position)
	assert.Equal(t, Vector2D{X: 3, Y: 4}, e.Velocity)
}

func TestEngine_FallAndRebound(t *testing.T) {
	cfg := Config{
		Gravity:        300,
		GravityEnabled: true,
		BounceEnabled:  true,
		Elasticity:     0.5,
		MaxSpeed:       2000,
	}
	e := NewEngine(cfg)
	bounds := NewRect(0, 0, 100, 500)
	const spriteW, spriteH = 50.0, 50.0

	lastY := e.Position.Y
	for i := 0; i < 100; i++ {
		e.Step(0.1)
		impact := e.Velocity.Y
		e.ResolveBounds(bounds, spriteW, spriteH)

		if e.BounceCount > 0 {
			assert.Equal(t, 450.0, e.Position.Y)
			assert.InDelta(t, -impact*0.5, e.Velocity.Y, 1e-9)
			assert.Greater(t, impact, 0.0)
			assert.Equal(t, 1, e.BounceCount)
			return
		}
		require.Greater(t, e.Position.Y, lastY, "sprite should keep falling before impact")
		lastY = e.Position.Y
	}
	t.Fatal("sprite never reached the floor")
}
