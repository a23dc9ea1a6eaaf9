package server

import (
	"fmt"
	"net"
	"strconv"

	"github.com/HerbHall/moodwatch/pkg/plugin"
)

// Config holds the HTTP listener configuration ("server" section).
type Config struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	DevMode bool   `mapstructure:"dev_mode"`
	// TrustProxy is set when a reverse proxy in front of the server
	// overwrites X-Forwarded-For.
	TrustProxy bool `mapstructure:"trust_proxy"`
}

// ConfigFrom reads the server section, falling back to 0.0.0.0:8080.
func ConfigFrom(cfg plugin.Config) (Config, error) {
	c := Config{Host: "0.0.0.0", Port: 8080}
	if err := cfg.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal server config: %w", err)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return Config{}, fmt.Errorf("server.port %d out of range", c.Port)
	}
	return c, nil
}

// Addr returns the listen address as host:port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
