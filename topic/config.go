package topic

import (
	"fmt"

	"github.com/tailored-agentic-units/broadcast/observability"
)

// Config holds topic initialization parameters.
type Config struct {
	Name     string `json:"name,omitempty" yaml:"name,omitempty" env:"BROADCAST_TOPIC_NAME"`
	Observer string `json:"observer,omitempty" yaml:"observer,omitempty" env:"BROADCAST_TOPIC_OBSERVER"` // observability registry name
}

// DefaultConfig returns a topic named "default" that discards telemetry.
func DefaultConfig() Config {
	return Config{
		Name:     "default",
		Observer: "noop",
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Name != "" {
		c.Name = source.Name
	}
	if source.Observer != "" {
		c.Observer = source.Observer
	}
}

// New creates a Topic from configuration. The telemetry sink is resolved
// through the observability registry; options override it.
func New(cfg *Config, opts ...Option) (*Topic, error) {
	obs, err := observability.GetObserver(cfg.Observer)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve topic observer: %w", err)
	}

	opts = append([]Option{WithObserver(obs)}, opts...)
	return NewTopic(cfg.Name, opts...), nil
}
