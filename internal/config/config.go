package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"effortmap/internal/geomath"
)

const (
	DefaultLatencyBaseMs     = 100.0
	DefaultPingCount         = 4
	DefaultPingTimeoutSec    = 5
	DefaultHTTPTimeoutSec    = 10
	DefaultFallbackLatencyMs = 999.0
	DefaultSelfName          = "My Console (User)"
	DefaultSelfElevation     = 15.0
)

// Config holds one run's full model description: transform constants,
// probe settings, location discovery settings, the node list, and the
// connections to evaluate.
type Config struct {
	Transform   TransformConfig    `yaml:"transform"`
	Probe       ProbeConfig        `yaml:"probe"`
	Locate      LocateConfig       `yaml:"locate"`
	Self        *SelfConfig        `yaml:"self,omitempty"`
	Nodes       []NodeConfig       `yaml:"nodes"`
	Connections []ConnectionConfig `yaml:"connections"`
}

// TransformConfig tunes the effort computation. A smaller latency base
// amplifies latency's effect on effort distance.
type TransformConfig struct {
	LatencyBaseMs float64 `yaml:"latency_base_ms"`
}

// ProbeConfig tunes the ping invocation.
type ProbeConfig struct {
	Count             int     `yaml:"count"`
	TimeoutSec        int     `yaml:"timeout_sec"`
	FallbackLatencyMs float64 `yaml:"fallback_latency_ms"`
}

// LocateConfig tunes self-location discovery.
type LocateConfig struct {
	HTTPTimeoutSec int      `yaml:"http_timeout_sec"`
	STUNServers    []string `yaml:"stun_servers,omitempty"`
}

// SelfConfig describes the user's own node. When Auto is true the location
// is discovered via the Geo-IP provider chain; FallbackLat/FallbackLon are
// used when discovery fails (or always, when Auto is false).
type SelfConfig struct {
	Name        string  `yaml:"name"`
	Elevation   float64 `yaml:"elevation"`
	Auto        bool    `yaml:"auto"`
	FallbackLat float64 `yaml:"fallback_lat"`
	FallbackLon float64 `yaml:"fallback_lon"`
}

// NodeConfig describes one fixed target node.
type NodeConfig struct {
	Name      string  `yaml:"name"`
	Lat       float64 `yaml:"lat"`
	Lon       float64 `yaml:"lon"`
	Elevation float64 `yaml:"elevation"`
	Address   string  `yaml:"address,omitempty"`
}

// ConnectionConfig names one node pair to evaluate.
type ConnectionConfig struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// PingTimeout returns the probe timeout as a duration.
func (c Config) PingTimeout() time.Duration {
	return time.Duration(c.Probe.TimeoutSec) * time.Second
}

// HTTPTimeout returns the geolocation HTTP timeout as a duration.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.Locate.HTTPTimeoutSec) * time.Second
}

// Load reads and parses a YAML config file and applies defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}

	ApplyDefaults(&cfg)
	return cfg, nil
}

// Save writes a YAML config file to disk.
func Save(path string, cfg Config) error {
	ApplyDefaults(&cfg)
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// Validate checks required fields and coordinate ranges.
func Validate(cfg Config) error {
	if cfg.Transform.LatencyBaseMs <= 0 {
		return fmt.Errorf("transform.latency_base_ms must be positive")
	}
	if cfg.Self != nil {
		if err := geomath.ValidateCoordinate(cfg.Self.FallbackLat, cfg.Self.FallbackLon); err != nil {
			return fmt.Errorf("self: %w", err)
		}
	}
	for i, n := range cfg.Nodes {
		if n.Name == "" {
			return fmt.Errorf("nodes[%d].name is required", i)
		}
		if err := geomath.ValidateCoordinate(n.Lat, n.Lon); err != nil {
			return fmt.Errorf("node %q: %w", n.Name, err)
		}
	}
	for i, c := range cfg.Connections {
		if c.From == "" || c.To == "" {
			return fmt.Errorf("connections[%d]: from and to are required", i)
		}
	}
	return nil
}

// ApplyDefaults fills in default values when empty.
func ApplyDefaults(cfg *Config) {
	if cfg.Transform.LatencyBaseMs == 0 {
		cfg.Transform.LatencyBaseMs = DefaultLatencyBaseMs
	}
	if cfg.Probe.Count == 0 {
		cfg.Probe.Count = DefaultPingCount
	}
	if cfg.Probe.TimeoutSec == 0 {
		cfg.Probe.TimeoutSec = DefaultPingTimeoutSec
	}
	if cfg.Probe.FallbackLatencyMs == 0 {
		cfg.Probe.FallbackLatencyMs = DefaultFallbackLatencyMs
	}
	if cfg.Locate.HTTPTimeoutSec == 0 {
		cfg.Locate.HTTPTimeoutSec = DefaultHTTPTimeoutSec
	}
	if cfg.Self != nil {
		if cfg.Self.Name == "" {
			cfg.Self.Name = DefaultSelfName
		}
		if cfg.Self.Elevation == 0 {
			cfg.Self.Elevation = DefaultSelfElevation
		}
	}
}
