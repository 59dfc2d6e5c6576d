package rpc

import (
	"encoding/json"
	"fmt"
	"time"
)

// Config holds transport parameters shared by the server and the client.
type Config struct {
	Address       string        `json:"address,omitempty" yaml:"address,omitempty" env:"BROADCAST_ADDRESS"`
	PostRate      float64       `json:"post_rate,omitempty" yaml:"post_rate,omitempty" env:"BROADCAST_POST_RATE"` // posts per second; 0 disables limiting
	PostBurst     int           `json:"post_burst,omitempty" yaml:"post_burst,omitempty" env:"BROADCAST_POST_BURST"`
	Timeout       time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty" env:"BROADCAST_TIMEOUT"`
	MaxRetries    int           `json:"max_retries,omitempty" yaml:"max_retries,omitempty" env:"BROADCAST_MAX_RETRIES"`
	RetryInterval time.Duration `json:"retry_interval,omitempty" yaml:"retry_interval,omitempty" env:"BROADCAST_RETRY_INTERVAL"`
}

// MarshalJSON writes durations as strings so the output reads back through
// UnmarshalJSON.
func (c Config) MarshalJSON() ([]byte, error) {
	type plain Config
	return json.Marshal(struct {
		plain
		Timeout       string `json:"timeout,omitempty"`
		RetryInterval string `json:"retry_interval,omitempty"`
	}{
		plain:         plain(c),
		Timeout:       formatDuration(c.Timeout),
		RetryInterval: formatDuration(c.RetryInterval),
	})
}

// UnmarshalJSON accepts durations as strings understood by time.ParseDuration
// or as integer nanoseconds.
func (c *Config) UnmarshalJSON(data []byte) error {
	type plain Config
	aux := struct {
		*plain
		Timeout       json.RawMessage `json:"timeout,omitempty"`
		RetryInterval json.RawMessage `json:"retry_interval,omitempty"`
	}{plain: (*plain)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	if c.Timeout, err = parseDuration(aux.Timeout, c.Timeout); err != nil {
		return fmt.Errorf("timeout: %w", err)
	}
	if c.RetryInterval, err = parseDuration(aux.RetryInterval, c.RetryInterval); err != nil {
		return fmt.Errorf("retry_interval: %w", err)
	}
	return nil
}

func parseDuration(raw json.RawMessage, current time.Duration) (time.Duration, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return current, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return time.ParseDuration(s)
	}

	var ns int64
	if err := json.Unmarshal(raw, &ns); err != nil {
		return 0, fmt.Errorf("invalid duration %s", raw)
	}
	return time.Duration(ns), nil
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return ""
	}
	return d.String()
}

// DefaultConfig returns a loopback server configuration with no post limit.
func DefaultConfig() Config {
	return Config{
		Address:       "127.0.0.1:8087",
		PostBurst:     1,
		Timeout:       10 * time.Second,
		MaxRetries:    3,
		RetryInterval: 200 * time.Millisecond,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Address != "" {
		c.Address = source.Address
	}
	if source.PostRate > 0 {
		c.PostRate = source.PostRate
	}
	if source.PostBurst > 0 {
		c.PostBurst = source.PostBurst
	}
	if source.Timeout > 0 {
		c.Timeout = source.Timeout
	}
	if source.MaxRetries > 0 {
		c.MaxRetries = source.MaxRetries
	}
	if source.RetryInterval > 0 {
		c.RetryInterval = source.RetryInterval
	}
}

// BaseURL returns the http URL for Address.
func (c *Config) BaseURL() string {
	return "http://" + c.Address
}
