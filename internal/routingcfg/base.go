package routingcfg

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/atu_queue/kiosk/internal/models"
)

// DefaultConfig is used whenever the bundled routing file cannot be read.
func DefaultConfig() models.RoutingConfig {
	return models.RoutingConfig{
		Flags: map[string]any{},
		Desks: models.Desks{
			"design":  {1, 2},
			"foreign": {11, 12},
			"master":  {15},
			"army":    {5},
			"default": {3, 4, 6, 7, 8, 9, 10, 13, 14, 16, 17, 18, 19, 20, 21, 22, 23, 24, 25},
		},
	}
}

// ReadBase parses the bundled routing document. Comments and trailing commas
// are allowed.
func ReadBase(path string) (models.RoutingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.RoutingConfig{}, err
	}
	var cfg models.RoutingConfig
	if err := json.Unmarshal(jsonc.ToJSON(data), &cfg); err != nil {
		return models.RoutingConfig{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.Desks == nil {
		return models.RoutingConfig{}, fmt.Errorf("parse %s: desks section missing", path)
	}
	if cfg.Flags == nil {
		cfg.Flags = map[string]any{}
	}
	return cfg, nil
}
