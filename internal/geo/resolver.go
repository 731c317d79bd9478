// Package geo resolves batches of targets to NetGeo records, consulting the
// lookup cache before the remote service.
package geo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tbckr/netgeo/internal/apperr"
	"github.com/tbckr/netgeo/internal/cache"
	"github.com/tbckr/netgeo/internal/netgeo"
	"github.com/tbckr/netgeo/internal/record"
	"github.com/tbckr/netgeo/internal/target"
	"github.com/tbckr/netgeo/internal/worker"
)

// DefaultBatchLimit is the maximum number of targets per call when none is configured.
const DefaultBatchLimit = 100

// Fetcher retrieves the raw NetGeo reply for one canonical target.
// *netgeo.Client satisfies this interface.
type Fetcher interface {
	Fetch(ctx context.Context, method netgeo.Method, target string) (string, error)
}

// Options tunes a Resolver.
type Options struct {
	// BatchLimit caps the number of targets per call. Zero selects DefaultBatchLimit.
	BatchLimit int
	// Concurrency bounds the number of targets resolved in parallel. Zero or
	// less resolves one at a time.
	Concurrency int
}

// Resolver turns raw inputs into lookup records.
type Resolver struct {
	fetcher Fetcher
	cache   *cache.Cache
	opts    Options
	logger  *slog.Logger
}

// NewResolver creates a Resolver. The resolver takes ownership of c: it is the
// only writer of the cache for as long as it is in use.
func NewResolver(fetcher Fetcher, c *cache.Cache, opts Options, logger *slog.Logger) *Resolver {
	if opts.BatchLimit <= 0 {
		opts.BatchLimit = DefaultBatchLimit
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Resolver{fetcher: fetcher, cache: c, opts: opts, logger: logger}
}

// Resolve looks up every input with method and returns one record per input,
// in input order.
//
// Per-target problems never fail the call: a malformed input yields STATUS
// INPUT_ERROR, an unreachable server yields STATUS HTTP_ERROR, and server-side
// conditions are carried in the record's STATUS.
//
// Every parsed reply is added to the cache except NETGEO_LIMIT_EXCEEDED, which
// is transient and never cached, so a later call asks the server again.
// HTTP_ERROR and INPUT_ERROR records are not cached either.
//
// Resolve fails only when the batch is larger than the configured limit
// (apperr.ErrCapacity, before any lookup) or when the cache cannot be written
// afterwards (apperr.ErrStorage); in the latter case the resolved records are
// discarded.
func (r *Resolver) Resolve(ctx context.Context, method netgeo.Method, inputs []string) (*Result, error) {
	if !method.Valid() {
		return nil, fmt.Errorf("%w: unknown lookup method %q", apperr.ErrInvalidInput, method)
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: no targets given", apperr.ErrInvalidInput)
	}
	if len(inputs) > r.opts.BatchLimit {
		return nil, fmt.Errorf("%w: %d targets given, limit is %d", apperr.ErrCapacity, len(inputs), r.opts.BatchLimit)
	}

	jobs := worker.Run(ctx, inputs, r.opts.Concurrency, func(ctx context.Context, input string) (record.Record, error) {
		return r.resolveOne(ctx, method, input), nil
	})

	if err := r.cache.Flush(); err != nil {
		return nil, fmt.Errorf("saving lookup cache: %w", err)
	}

	result := &Result{Inputs: inputs, Records: make([]record.Record, len(jobs))}
	for i, job := range jobs {
		result.Records[i] = job.Output
	}
	return result, nil
}

// resolveOne classifies, looks up and, on a miss, fetches a single input.
func (r *Resolver) resolveOne(ctx context.Context, method netgeo.Method, input string) record.Record {
	t, err := target.Classify(input)
	if err != nil {
		r.logger.Debug("rejecting input", "input", input, "error", err)
		return record.New(input, record.StatusInputError)
	}

	if e, ok := r.cache.Find(t.Canonical); ok && e.Method.Covers(method) {
		r.logger.Debug("cache hit", "target", t.Canonical, "method", method)
		return e.Record
	}

	r.logger.Debug("cache miss", "target", t.Canonical, "kind", t.Kind, "method", method)
	body, err := r.fetcher.Fetch(ctx, method, t.Canonical)
	if err != nil {
		r.logger.Debug("fetch failed", "target", t.Canonical, "error", err)
		return record.New(t.Canonical, record.StatusHTTPError)
	}

	rec := netgeo.Parse(body)
	if rec.Status == "" {
		rec.Status = record.StatusUnrecognized
	}
	if rec.Status == record.StatusLimitExceeded {
		r.logger.Warn("netgeo server rate limit exceeded", "target", t.Canonical)
		return rec
	}
	r.cache.Append(cache.Entry{Key: t.Canonical, Method: method, Record: rec})
	return rec
}
