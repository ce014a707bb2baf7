package routingcfg

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/atu_queue/kiosk/internal/metrics"
	"github.com/atu_queue/kiosk/internal/models"
)

// Merger produces the effective routing config from the bundled base file
// and the optional remote override.
type Merger struct {
	BasePath string
	Remote   Fetcher
	Logger   zerolog.Logger
	Metrics  *metrics.Metrics
}

// Load never fails: a broken base falls back to DefaultConfig and a failed
// remote fetch means no overrides. Every call returns a fresh value.
func (m *Merger) Load(ctx context.Context) models.RoutingConfig {
	base := DefaultConfig()
	if m.BasePath != "" {
		cfg, err := ReadBase(m.BasePath)
		if err != nil {
			m.Logger.Warn().Err(err).Str("path", m.BasePath).Msg("routing config unreadable, using built-in default")
		} else {
			base = cfg
		}
	}

	var override *Override
	if m.Remote != nil {
		o, err := m.Remote.Fetch(ctx)
		if err != nil {
			m.Logger.Warn().Err(err).Msg("remote config unavailable")
			m.Metrics.RemoteFailure("remote_config")
		} else {
			override = &o
		}
	}
	return Merge(base, override)
}

// Merge applies override on top of base. Flags merge key by key with the
// override winning; desks always come from base; ui is passed through.
func Merge(base models.RoutingConfig, override *Override) models.RoutingConfig {
	out := base.Clone()
	if override == nil {
		return out
	}
	for k, v := range override.Flags {
		out.Flags[k] = v
	}
	if len(override.UI) > 0 {
		out.UI = append([]byte(nil), override.UI...)
	}
	return out
}
