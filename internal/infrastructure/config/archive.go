package config

// ArchiveConfig holds the optional sqlite event archive configuration
type ArchiveConfig struct {
	// Enable appending every engine event to the archive database
	Enabled bool `mapstructure:"enabled"`

	// Path of the sqlite database file
	Path string `mapstructure:"path"`
}
