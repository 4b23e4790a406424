package config

import "fmt"

// ServerConfig holds the WebSocket/HTTP transport configuration
type ServerConfig struct {
	// Bind host for the transport listener
	Host string `mapstructure:"host" validate:"required"`

	// Bind port for the transport listener
	Port int `mapstructure:"port" validate:"required,gt=0,lte=65535"`

	// Maximum pending entries in each of the action and signal queues
	QueueSize int `mapstructure:"queue_size" validate:"min=1"`
}

// Addr returns the host:port listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
