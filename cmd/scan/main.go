package main

import (
	"os"

	"go.uber.org/zap"

	"github.com/bighogz/insider-ledger/internal/config"
	"github.com/bighogz/insider-ledger/internal/fmp"
	"github.com/bighogz/insider-ledger/internal/httpclient"
	"github.com/bighogz/insider-ledger/internal/pipeline"
	"github.com/bighogz/insider-ledger/internal/yahoo"
)

func main() {
	if err := newRootCmd(providerFetcher).Execute(); err != nil {
		os.Exit(1)
	}
}

// providerFetcher is Yahoo first, then FMP when a key is configured.
func providerFetcher(cfg *config.Config, logger *zap.Logger) pipeline.Fetcher {
	sources := pipeline.Fallback{yahoo.New(logger)}
	if cfg.Providers.FMPAPIKey != "" {
		sources = append(sources, fmp.New(cfg.Providers.FMPAPIKey, httpclient.New(cfg.Providers.HTTPTimeout)))
	}
	return sources
}
