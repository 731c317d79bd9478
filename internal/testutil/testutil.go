// Package testutil provides shared test helpers for netgeo unit tests.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/imroc/req/v3"
	"github.com/jarcoal/httpmock"

	"github.com/tbckr/netgeo/internal/netgeo"
)

// TestServerURL is the NetGeo endpoint used by HTTP-mocked tests.
const TestServerURL = "http://netgeo.test/perl/netgeo.cgi"

// MockFetcher implements the resolver's fetcher contract for testing.
// FetchFn may be nil, in which case every fetch returns an empty reply.
// Calls are recorded so tests can assert on network activity.
type MockFetcher struct {
	FetchFn func(ctx context.Context, method netgeo.Method, target string) (string, error)

	mu    sync.Mutex
	calls []string
}

// Fetch records the call and delegates to FetchFn.
func (m *MockFetcher) Fetch(ctx context.Context, method netgeo.Method, target string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, target)
	m.mu.Unlock()
	if m.FetchFn != nil {
		return m.FetchFn(ctx, method, target)
	}
	return "", nil
}

// Calls returns the targets fetched so far, in call order.
func (m *MockFetcher) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// NewMockClient returns a req client whose transport is replaced by httpmock
// for the duration of the test.
func NewMockClient(t *testing.T) *req.Client {
	t.Helper()
	client := req.NewClient()
	httpmock.ActivateNonDefault(client.GetClient())
	t.Cleanup(httpmock.DeactivateAndReset)
	return client
}

// NopLogger returns a logger that discards all output.
func NopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
