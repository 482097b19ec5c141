package cmd

import (
	"fmt"

	"github.com/ecomm-asset-tools/syndicator/internal/batch"
	"github.com/ecomm-asset-tools/syndicator/internal/catalog"
	"github.com/ecomm-asset-tools/syndicator/internal/config"
	"github.com/ecomm-asset-tools/syndicator/internal/download"
	"github.com/ecomm-asset-tools/syndicator/internal/events"
	"github.com/ecomm-asset-tools/syndicator/internal/retailer"
)

// newRegistry builds the closed retailer set from configured roots.
func newRegistry(cfg config.Config) *retailer.Registry {
	return retailer.NewRegistry(
		retailer.NewSobeys(cfg.Retailers.SobeysRoot),
		retailer.NewInstacart(cfg.Retailers.InstacartRoot),
		retailer.NewAmazon(cfg.Retailers.AmazonRoot, cfg.Retailers.AmazonMarketplace),
	)
}

// newSource selects the asset discovery backend. The portal source is a
// single stateful browser session, so it forces sequential processing.
func newSource(cfg config.Config, kind string) (catalog.Source, int, error) {
	switch kind {
	case "api":
		if cfg.API.BaseURL == "" {
			return nil, 0, fmt.Errorf("api source requires api.base_url (or SYNDICATOR_API_BASE_URL)")
		}
		return catalog.NewClient(cfg.API.BaseURL, cfg.API.Timeout), cfg.Download.Workers, nil
	case "portal":
		if cfg.Portal.BaseURL == "" {
			return nil, 0, fmt.Errorf("portal source requires portal.base_url (or SYNDICATOR_PORTAL_BASE_URL)")
		}
		portal := catalog.NewPortal(catalog.PortalConfig{
			BaseURL:        cfg.Portal.BaseURL,
			Executable:     cfg.Portal.Executable,
			UserDataDir:    cfg.Portal.UserDataDir,
			Headless:       cfg.Portal.Headless,
			SearchTimeout:  cfg.Portal.SearchTimeout,
			ResultsTimeout: cfg.Portal.ResultsTimeout,
		})
		return portal, 1, nil
	default:
		return nil, 0, fmt.Errorf("unknown source %q (expected api or portal)", kind)
	}
}

func newRunner(cfg config.Config, source catalog.Source, workers int, broadcaster *events.Broadcaster) *batch.Runner {
	pace := cfg.Download.Pace
	if workers > 1 {
		// Pacing only applies to the sequential shape.
		pace = 0
	}
	opts := batch.Options{
		Source:   source,
		Executor: download.NewExecutor(cfg.Download.Timeout),
		Workers:  workers,
		Pace:     pace,
	}
	if broadcaster != nil {
		opts.Events = broadcaster
	}
	return batch.New(opts)
}

func parseSourceFlagDefaults(cfg config.Config) string {
	// Prefer the API when both backends are configured.
	if cfg.API.BaseURL != "" {
		return "api"
	}
	if cfg.Portal.BaseURL != "" {
		return "portal"
	}
	return "api"
}
