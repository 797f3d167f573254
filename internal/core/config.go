package core

// RuntimeConfig is passed to snapshot sources when they are reset.
// Sources use it for deterministic simulation.
type RuntimeConfig struct {
	TickRate int   // Simulation ticks per second, also the IGT sub-second range
	Seed     int64 // RNG seed for deterministic simulation
}

// DefaultConfig returns a RuntimeConfig with sensible defaults.
func DefaultConfig() RuntimeConfig {
	return RuntimeConfig{
		TickRate: 30,
		Seed:     1,
	}
}

// Normalized fills zero fields with their defaults and bounds TickRate so
// that a sub-second frame counter fits in a byte.
func (c RuntimeConfig) Normalized() RuntimeConfig {
	if c.TickRate <= 0 {
		c.TickRate = DefaultConfig().TickRate
	}
	c.TickRate = Clamp(c.TickRate, 1, 255)
	return c
}
