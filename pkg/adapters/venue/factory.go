package venue

import (
	"fmt"
	"strings"
	"time"

	"github.com/aescanero/swapd/pkg/domain"
	"github.com/aescanero/swapd/pkg/ports"
	"go.uber.org/zap"
)

// Config holds venue provider configuration
type Config struct {
	Venues      []string
	Latency     time.Duration
	FailureRate float64
	Logger      *zap.Logger
}

// NewProviders creates one provider per configured venue, in configuration
// order. That order is the router's tie-break order.
func NewProviders(cfg *Config) ([]ports.VenueProvider, error) {
	if len(cfg.Venues) == 0 {
		return nil, fmt.Errorf("at least one venue is required")
	}

	seen := make(map[string]bool, len(cfg.Venues))
	providers := make([]ports.VenueProvider, 0, len(cfg.Venues))

	for _, name := range cfg.Venues {
		name = strings.ToLower(strings.TrimSpace(name))
		if seen[name] {
			return nil, fmt.Errorf("duplicate venue: %s", name)
		}
		seen[name] = true

		var profile Profile
		switch name {
		case domain.VenueRaydium:
			profile = RaydiumProfile()
		case domain.VenueMeteora:
			profile = MeteoraProfile()
		default:
			return nil, fmt.Errorf("unsupported venue: %s", name)
		}

		providers = append(providers, NewSimulatedVenue(profile, cfg.Latency, cfg.FailureRate, cfg.Logger.Named(name)))
	}

	return providers, nil
}
