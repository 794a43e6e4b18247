package schedule

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config defines the dock calendar parameters for one warehouse.
type Config struct {
	// Docks is the number of dock doors, numbered 1..Docks.
	Docks int `json:"docks" yaml:"docks"`
	// OpenHour and CloseHour bound the operating day, e.g. 6 and 22.
	OpenHour  int `json:"open_hour" yaml:"open_hour"`
	CloseHour int `json:"close_hour" yaml:"close_hour"`
	// GranuleMinutes is the scheduling granularity.
	GranuleMinutes int `json:"granule_minutes" yaml:"granule_minutes"`
	// RefrigeratedDocks and HazmatDocks list doors with special capabilities.
	// A request carrying the matching requirement only books these doors.
	RefrigeratedDocks []int `json:"refrigerated_docks" yaml:"refrigerated_docks"`
	HazmatDocks       []int `json:"hazmat_docks" yaml:"hazmat_docks"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Docks == 0 {
		c.Docks = 8
	}
	if c.OpenHour == 0 && c.CloseHour == 0 {
		c.OpenHour = 6
		c.CloseHour = 22
	}
	if c.GranuleMinutes == 0 {
		c.GranuleMinutes = 30
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.Docks <= 0 {
		return fmt.Errorf("docks must be positive")
	}
	if c.OpenHour < 0 || c.CloseHour > 24 || c.OpenHour >= c.CloseHour {
		return fmt.Errorf("invalid operating hours %d-%d", c.OpenHour, c.CloseHour)
	}
	if c.GranuleMinutes <= 0 || 60%c.GranuleMinutes != 0 {
		return fmt.Errorf("granule_minutes must divide an hour, got %d", c.GranuleMinutes)
	}
	return nil
}

// LoadConfig loads a Config from a JSON or YAML file.
func LoadConfig(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	ext := strings.ToLower(filepath.Ext(path))
	var cfg Config
	switch ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cfg)
	case ".json":
		err = json.Unmarshal(b, &cfg)
	default:
		return Config{}, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err != nil {
		return Config{}, err
	}
	cfg.SetDefaults()
	return cfg, cfg.Validate()
}

// DecodeConfig reads from r to decode a Config.
func DecodeConfig(r io.Reader, format string) (Config, error) {
	var cfg Config
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
			return cfg, err
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported format: %s", format)
	}
	cfg.SetDefaults()
	return cfg, cfg.Validate()
}
