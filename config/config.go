// Package config loads the service configuration from a JSON or YAML file
// with optional environment overrides (YMS_SECTION__KEY form).
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/dockops/yms/core/analytics"
	"github.com/dockops/yms/core/metrics"
	"github.com/dockops/yms/core/schedule"
	"github.com/dockops/yms/core/trailer"
	"github.com/dockops/yms/infra/cache"
	"github.com/dockops/yms/infra/notify"
	mongostore "github.com/dockops/yms/infra/store/mongo"
)

// YardLocationSeed declares one yard location created at startup.
type YardLocationSeed struct {
	Code     string `json:"code"`
	Kind     string `json:"kind"` // parking, staging or waiting
	Capacity int    `json:"capacity"`
	GridX    int    `json:"grid_x"`
	GridY    int    `json:"grid_y"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	// Backend is "memory" (default) or "mongo".
	Backend string            `json:"backend"`
	Mongo   mongostore.Config `json:"mongo"`
}

// ServerConfig defines the HTTP API listener.
type ServerConfig struct {
	Addr string `json:"addr"`
}

type Config struct {
	WarehouseID   string             `json:"warehouse_id"`
	Server        ServerConfig       `json:"server"`
	Schedule      schedule.Config    `json:"schedule"`
	Trailer       trailer.Config     `json:"trailer"`
	Analytics     analytics.Config   `json:"analytics"`
	Metrics       metrics.Config     `json:"metrics"`
	MQTT          notify.Config      `json:"mqtt"`
	Cache         cache.Config       `json:"cache"`
	Storage       StorageConfig      `json:"storage"`
	YardLocations []YardLocationSeed `json:"yard_locations"`
}

// Load reads the file at path, applies environment overrides, defaults and
// validation.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("YMS_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "yms_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults applies defaults across all sections.
func (c *Config) SetDefaults() {
	if c.WarehouseID == "" {
		c.WarehouseID = "WH1"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "memory"
	}
	c.Schedule.SetDefaults()
	c.Trailer.SetDefaults()
	c.Analytics.SetDefaults()
	c.Metrics.SetDefaults()
	c.MQTT.SetDefaults()
	c.Storage.Mongo.SetDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Schedule.Validate(); err != nil {
		return fmt.Errorf("schedule: %w", err)
	}
	if err := c.Trailer.Validate(); err != nil {
		return fmt.Errorf("trailer: %w", err)
	}
	if c.Storage.Backend != "memory" && c.Storage.Backend != "mongo" {
		return fmt.Errorf("storage: unknown backend %q", c.Storage.Backend)
	}
	if c.Storage.Backend == "mongo" && c.Storage.Mongo.URI == "" {
		return fmt.Errorf("storage: mongo backend requires a uri")
	}
	for _, l := range c.YardLocations {
		if l.Code == "" || l.Capacity <= 0 {
			return fmt.Errorf("yard_locations: entry %q needs a code and positive capacity", l.Code)
		}
	}
	return nil
}
