package broadcast

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/tailored-agentic-units/broadcast/rpc"
	"github.com/tailored-agentic-units/broadcast/topic"
)

const defaultMessage = "Hello Observers...."

// SubscriberConfig describes one subscriber and how the runtime wires it.
// Both relations are established by default; the Skip flags leave one out.
type SubscriberConfig struct {
	Name          string `json:"name" yaml:"name"`
	SkipRegister  bool   `json:"skip_register,omitempty" yaml:"skip_register,omitempty"`
	SkipSubscribe bool   `json:"skip_subscribe,omitempty" yaml:"skip_subscribe,omitempty"`
}

// Config holds initialization parameters for the topic, its subscribers and
// the transport.
type Config struct {
	Topic       topic.Config       `json:"topic" yaml:"topic"`
	Server      rpc.Config         `json:"server" yaml:"server"`
	Subscribers []SubscriberConfig `json:"subscribers,omitempty" yaml:"subscribers,omitempty"`
	Message     string             `json:"message,omitempty" yaml:"message,omitempty" env:"BROADCAST_MESSAGE"`
}

// DefaultConfig returns two fully wired subscribers, "first" and "second",
// and the default greeting.
func DefaultConfig() Config {
	return Config{
		Topic:  topic.DefaultConfig(),
		Server: rpc.DefaultConfig(),
		Subscribers: []SubscriberConfig{
			{Name: "first"},
			{Name: "second"},
		},
		Message: defaultMessage,
	}
}

// Merge applies non-zero values from source into c. A non-empty subscriber
// list replaces the current one.
func (c *Config) Merge(source *Config) {
	c.Topic.Merge(&source.Topic)
	c.Server.Merge(&source.Server)

	if len(source.Subscribers) > 0 {
		c.Subscribers = source.Subscribers
	}
	if source.Message != "" {
		c.Message = source.Message
	}
}

// Validate checks that subscriber names are present and unique.
func (c *Config) Validate() error {
	seen := make(map[string]struct{}, len(c.Subscribers))
	for i, sc := range c.Subscribers {
		if sc.Name == "" {
			return fmt.Errorf("subscriber %d: name is empty", i)
		}
		if _, dup := seen[sc.Name]; dup {
			return fmt.Errorf("subscriber %q: duplicate name", sc.Name)
		}
		seen[sc.Name] = struct{}{}
	}
	return nil
}

// LoadConfig reads a JSON or YAML config file (by extension), applies
// BROADCAST_* environment overrides, and merges the result over defaults.
// An empty filename reads the environment only.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	var loaded Config
	if filename == "" {
		if err := cleanenv.ReadEnv(&loaded); err != nil {
			return nil, fmt.Errorf("failed to read config from environment: %w", err)
		}
	} else {
		if _, err := os.Stat(filename); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := cleanenv.ReadConfig(filename, &loaded); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.Merge(&loaded)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
