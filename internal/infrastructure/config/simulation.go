package config

// SimulationConfig holds the engine configuration
type SimulationConfig struct {
	// Simulated seconds per tick
	DTSeconds float64 `mapstructure:"dt_s" validate:"gt=0"`

	// Wall-clock pace in ticks per second
	TickRate float64 `mapstructure:"tick_rate" validate:"gt=0"`

	// World RNG seed; the same seed and inputs replay identically
	Seed int64 `mapstructure:"seed"`

	// Initial map generation
	MapSeed  int64 `mapstructure:"map_seed"`
	MapNodes int   `mapstructure:"map_nodes" validate:"min=2"`
}
