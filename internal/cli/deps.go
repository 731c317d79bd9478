package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/imroc/req/v3"
	"github.com/spf13/cobra"

	"github.com/tbckr/netgeo/internal/appdir"
	"github.com/tbckr/netgeo/internal/cache"
	"github.com/tbckr/netgeo/internal/config"
	"github.com/tbckr/netgeo/internal/geo"
	"github.com/tbckr/netgeo/internal/httpclient"
	"github.com/tbckr/netgeo/internal/netgeo"
	"github.com/tbckr/netgeo/internal/output"
	"github.com/tbckr/netgeo/internal/ratelimit"
)

// deps holds fully-resolved runtime dependencies for a subcommand.
type deps struct {
	logger *slog.Logger
	cfg    *config.Config

	// httpClient replaces the configured client when set; tests use it to
	// route requests through httpmock.
	httpClient *req.Client
}

// buildDeps resolves config and logger.
func buildDeps(cmd *cobra.Command, stderr io.Writer) (*deps, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	return &deps{cfg: cfg, logger: logger}, nil
}

// newHTTPClient creates a rate-limited HTTP client configured with the proxy,
// application name, timeout and verbosity from the resolved config.
func (d *deps) newHTTPClient() (*req.Client, error) {
	if d.httpClient != nil {
		return d.httpClient, nil
	}
	client, err := httpclient.New(d.cfg.Proxy, d.cfg.AppName, d.cfg.Timeout, d.logger, d.cfg.Verbose)
	if err != nil {
		return nil, fmt.Errorf("creating HTTP client: %w", err)
	}
	httpclient.AttachRateLimit(client, ratelimit.New(d.cfg.RateLimit, 1))
	return client, nil
}

// openCache loads the lookup cache. The OS default cache directory is created
// on first use; a directory given explicitly must already exist.
func (d *deps) openCache() (*cache.Cache, error) {
	if def, err := config.DefaultCacheDir(); err == nil && def == d.cfg.CacheDir {
		if err := appdir.EnsureDir(def); err != nil {
			return nil, err
		}
	}
	backend, err := cache.NewBackend(d.cfg.CacheBackend, d.cfg.CacheDir, d.cfg.CacheFile)
	if err != nil {
		return nil, err
	}
	c, err := cache.Open(backend, d.cfg.CacheTTL, d.logger)
	if err != nil {
		return nil, fmt.Errorf("opening lookup cache: %w", err)
	}
	return c, nil
}

// newResolver wires the HTTP client, NetGeo client and cache into a resolver.
func (d *deps) newResolver() (*geo.Resolver, error) {
	client, err := d.newHTTPClient()
	if err != nil {
		return nil, err
	}
	c, err := d.openCache()
	if err != nil {
		return nil, err
	}
	ng := netgeo.NewClient(client, d.cfg.ServerURL, d.logger)
	return geo.NewResolver(ng, c, geo.Options{
		BatchLimit:  d.cfg.BatchLimit,
		Concurrency: d.cfg.Concurrency,
	}, d.logger), nil
}

// writeResult formats and writes a result to stdout.
func writeResult(stdout io.Writer, d *deps, result any) error {
	if err := output.Write(stdout, output.Format(d.cfg.Output), result); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}
