package config

// SetDefaults sets default values for all configuration fields
func SetDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8765
	}
	if cfg.Server.QueueSize == 0 {
		cfg.Server.QueueSize = 1000
	}

	// Simulation defaults
	if cfg.Simulation.DTSeconds == 0 {
		cfg.Simulation.DTSeconds = 60
	}
	if cfg.Simulation.TickRate == 0 {
		cfg.Simulation.TickRate = 10
	}
	if cfg.Simulation.Seed == 0 {
		cfg.Simulation.Seed = 42
	}
	if cfg.Simulation.MapSeed == 0 {
		cfg.Simulation.MapSeed = cfg.Simulation.Seed
	}
	if cfg.Simulation.MapNodes == 0 {
		cfg.Simulation.MapNodes = 30
	}

	// Archive defaults
	if cfg.Archive.Path == "" {
		cfg.Archive.Path = "freightsim_events.db"
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}
