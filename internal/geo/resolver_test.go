package geo_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbckr/netgeo/internal/apperr"
	"github.com/tbckr/netgeo/internal/cache"
	"github.com/tbckr/netgeo/internal/geo"
	"github.com/tbckr/netgeo/internal/netgeo"
	"github.com/tbckr/netgeo/internal/record"
	"github.com/tbckr/netgeo/internal/testutil"
)

// reply builds a NetGeo-style body for target with the given fields.
func reply(target string, fields ...string) string {
	var b bytes.Buffer
	b.WriteString("<HTML>\n<BODY>\nVERSION: 1.0<br>\n")
	fmt.Fprintf(&b, "TARGET: %s<br>\n", target)
	for i := 0; i+1 < len(fields); i += 2 {
		fmt.Fprintf(&b, "%s: %s<br>\n", fields[i], fields[i+1])
	}
	b.WriteString("</BODY>\n</HTML>\n")
	return b.String()
}

func okReply(target string) string {
	return reply(target, "COUNTRY", "US", "LAT", "32.88", "LONG", "-117.24", "LAT_LONG_GRAN", "City", "STATUS", "OK")
}

func echoFetcher() *testutil.MockFetcher {
	return &testutil.MockFetcher{
		FetchFn: func(_ context.Context, _ netgeo.Method, target string) (string, error) {
			return okReply(target), nil
		},
	}
}

// spyBackend counts backend activity and keeps entries in memory.
type spyBackend struct {
	mu      sync.Mutex
	entries []cache.Entry
	loads   int
	saves   int
	saveErr error
}

func (b *spyBackend) Load() ([]cache.Entry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loads++
	return append([]cache.Entry(nil), b.entries...), nil
}

func (b *spyBackend) Save(entries []cache.Entry) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.saves++
	if b.saveErr != nil {
		return b.saveErr
	}
	b.entries = append([]cache.Entry(nil), entries...)
	return nil
}

func (b *spyBackend) Location() string { return "spy" }

func newResolver(t *testing.T, fetcher geo.Fetcher, backend cache.Backend, opts geo.Options) (*geo.Resolver, *cache.Cache) {
	t.Helper()
	c, err := cache.Open(backend, 0, testutil.NopLogger())
	require.NoError(t, err)
	return geo.NewResolver(fetcher, c, opts, testutil.NopLogger()), c
}

func TestResolve_SingleInputSingleRecord(t *testing.T) {
	r, _ := newResolver(t, echoFetcher(), &spyBackend{}, geo.Options{})

	res, err := r.GetRecord(context.Background(), "caida.org")
	require.NoError(t, err)

	rec, ok := res.Single()
	require.True(t, ok)
	assert.Equal(t, "caida.org", rec.Target)
	assert.Equal(t, "OK", rec.Status)
	assert.Equal(t, "US", rec.Country)

	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Equal(t, byte('{'), data[0])
}

func TestResolve_TwoInputsKeepOrder(t *testing.T) {
	r, _ := newResolver(t, echoFetcher(), &spyBackend{}, geo.Options{Concurrency: 2})

	res, err := r.GetRecord(context.Background(), "caida.org", "AS701")
	require.NoError(t, err)

	_, ok := res.Single()
	assert.False(t, ok)
	require.Len(t, res.Records, 2)
	assert.Equal(t, "caida.org", res.Records[0].Target)
	assert.Equal(t, "AS701", res.Records[1].Target)

	data, err := json.Marshal(res)
	require.NoError(t, err)
	var decoded []record.Record
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Len(t, decoded, 2)
}

func TestResolve_OrderPreservedUnderConcurrency(t *testing.T) {
	inputs := make([]string, 50)
	for i := range inputs {
		inputs[i] = fmt.Sprintf("10.0.0.%d", i+1)
	}
	r, _ := newResolver(t, echoFetcher(), &spyBackend{}, geo.Options{Concurrency: 8})

	res, err := r.GetRecord(context.Background(), inputs...)
	require.NoError(t, err)
	require.Len(t, res.Records, len(inputs))
	for i, rec := range res.Records {
		assert.Equal(t, inputs[i], rec.Target)
	}
}

func TestResolve_InputErrorSkipsNetworkAndCache(t *testing.T) {
	fetcher := echoFetcher()
	backend := &spyBackend{}
	r, c := newResolver(t, fetcher, backend, geo.Options{})

	res, err := r.GetRecord(context.Background(), "AS65536", "not a target", "a.xyz")
	require.NoError(t, err)

	for i, input := range []string{"AS65536", "not a target", "a.xyz"} {
		assert.Equal(t, input, res.Records[i].Target)
		assert.Equal(t, record.StatusInputError, res.Records[i].Status)
	}
	assert.Empty(t, fetcher.Calls())
	assert.Equal(t, 0, c.Len())
}

func TestResolve_CachedTargetsAreNotFetched(t *testing.T) {
	backend := &spyBackend{entries: []cache.Entry{
		{Key: "caida.org", Method: netgeo.MethodRecord, FetchedAt: time.Now(), Record: record.Record{Target: "caida.org", Status: "OK", Country: "US"}},
		{Key: "AS701", Method: netgeo.MethodRecord, FetchedAt: time.Now(), Record: record.Record{Target: "AS701", Status: "OK", Country: "US"}},
	}}
	fetcher := echoFetcher()
	r, _ := newResolver(t, fetcher, backend, geo.Options{})

	res, err := r.GetRecord(context.Background(), "caida.org", "AS701")
	require.NoError(t, err)

	assert.Empty(t, fetcher.Calls())
	assert.Equal(t, "caida.org", res.Records[0].Target)
	assert.Equal(t, "AS701", res.Records[1].Target)
}

func TestResolve_NarrowerCachedMethodIsRefetched(t *testing.T) {
	backend := &spyBackend{entries: []cache.Entry{
		{Key: "caida.org", Method: netgeo.MethodCountry, FetchedAt: time.Now(), Record: record.Record{Target: "caida.org", Status: "OK", Country: "US"}},
	}}
	fetcher := echoFetcher()
	r, c := newResolver(t, fetcher, backend, geo.Options{})

	_, err := r.GetCountry(context.Background(), "caida.org")
	require.NoError(t, err)
	assert.Empty(t, fetcher.Calls())

	_, err = r.GetLatLong(context.Background(), "caida.org")
	require.NoError(t, err)
	assert.Equal(t, []string{"caida.org"}, fetcher.Calls())

	e, ok := c.Find("caida.org")
	require.True(t, ok)
	assert.Equal(t, netgeo.MethodLatLong, e.Method)
}

func TestResolve_TransportFailureIsPerEntry(t *testing.T) {
	fetcher := &testutil.MockFetcher{
		FetchFn: func(_ context.Context, _ netgeo.Method, target string) (string, error) {
			if target == "AS701" {
				return "", fmt.Errorf("%w: connection refused", apperr.ErrRequestFailed)
			}
			return okReply(target), nil
		},
	}
	r, c := newResolver(t, fetcher, &spyBackend{}, geo.Options{Concurrency: 3})

	res, err := r.GetRecord(context.Background(), "caida.org", "AS701", "192.172.226.1")
	require.NoError(t, err)
	require.Len(t, res.Records, 3)

	assert.Equal(t, "OK", res.Records[0].Status)
	assert.Equal(t, record.New("AS701", record.StatusHTTPError), res.Records[1])
	assert.Equal(t, "OK", res.Records[2].Status)

	_, cached := c.Find("AS701")
	assert.False(t, cached)
	assert.Equal(t, 2, c.Len())
}

func TestResolve_ServiceConditionsAreCached(t *testing.T) {
	fetcher := &testutil.MockFetcher{
		FetchFn: func(_ context.Context, _ netgeo.Method, target string) (string, error) {
			switch target {
			case "10.1.1.1":
				return reply(target, "STATUS", "NO MATCH"), nil
			case "10.2.2.2":
				return "", nil
			default:
				return reply(target, "COUNTRY", "US"), nil
			}
		},
	}
	r, c := newResolver(t, fetcher, &spyBackend{}, geo.Options{})

	res, err := r.GetRecord(context.Background(), "10.1.1.1", "10.2.2.2", "10.3.3.3")
	require.NoError(t, err)

	assert.Equal(t, record.StatusNoMatch, res.Records[0].Status)
	assert.Equal(t, record.StatusEmptyContent, res.Records[1].Status)
	assert.False(t, res.Records[1].HasTarget())
	assert.Equal(t, record.StatusUnrecognized, res.Records[2].Status)
	assert.Equal(t, 3, c.Len())
}

func TestResolve_LimitExceededIsNotCached(t *testing.T) {
	fetcher := &testutil.MockFetcher{
		FetchFn: func(context.Context, netgeo.Method, string) (string, error) {
			return "NETGEO_LIMIT_EXCEEDED\n", nil
		},
	}
	r, c := newResolver(t, fetcher, &spyBackend{}, geo.Options{})

	res, err := r.GetRecord(context.Background(), "caida.org")
	require.NoError(t, err)
	assert.Equal(t, record.StatusLimitExceeded, res.Records[0].Status)
	assert.Equal(t, 0, c.Len())
}

func TestResolve_CapacityExceeded(t *testing.T) {
	inputs := make([]string, 101)
	for i := range inputs {
		inputs[i] = "caida.org"
	}
	fetcher := echoFetcher()
	backend := &spyBackend{}
	r, _ := newResolver(t, fetcher, backend, geo.Options{BatchLimit: 100})
	loadsBefore := backend.loads

	_, err := r.GetRecord(context.Background(), inputs...)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrCapacity)
	assert.Empty(t, fetcher.Calls())
	assert.Equal(t, loadsBefore, backend.loads)
	assert.Equal(t, 0, backend.saves)

	_, err = r.GetRecord(context.Background(), inputs[:100]...)
	require.NoError(t, err)
}

func TestResolve_EmptyInput(t *testing.T) {
	backend := &spyBackend{}
	r, _ := newResolver(t, echoFetcher(), backend, geo.Options{})

	_, err := r.GetRecord(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	assert.Equal(t, 0, backend.saves)
}

func TestResolve_FlushesOnce(t *testing.T) {
	backend := &spyBackend{}
	r, _ := newResolver(t, echoFetcher(), backend, geo.Options{Concurrency: 4})

	_, err := r.GetRecord(context.Background(), "caida.org", "AS701", "10.0.0.1", "bad input")
	require.NoError(t, err)
	assert.Equal(t, 1, backend.saves)
	assert.Len(t, backend.entries, 3)
}

func TestResolve_FlushFailureDiscardsResults(t *testing.T) {
	backend := &spyBackend{saveErr: fmt.Errorf("%w: disk full", apperr.ErrStorage)}
	r, _ := newResolver(t, echoFetcher(), backend, geo.Options{})

	res, err := r.GetRecord(context.Background(), "caida.org")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrStorage))
	assert.Nil(t, res)
}

func TestResolve_FileCacheRemovedBeforeFlush(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	require.NoError(t, os.Mkdir(dir, 0o700))
	r, _ := newResolver(t, echoFetcher(), cache.FileBackend{Dir: dir, Name: "netgeo.cache"}, geo.Options{})
	require.NoError(t, os.RemoveAll(dir))

	_, err := r.GetRecord(context.Background(), "caida.org")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrStorage)
}

func TestResolve_FileCachePersistsAcrossRuns(t *testing.T) {
	backend := cache.FileBackend{Dir: t.TempDir(), Name: "netgeo.cache"}
	first := echoFetcher()
	r, _ := newResolver(t, first, backend, geo.Options{})
	_, err := r.GetRecord(context.Background(), "caida.org", "AS701")
	require.NoError(t, err)
	assert.Len(t, first.Calls(), 2)

	second := echoFetcher()
	r, _ = newResolver(t, second, backend, geo.Options{})
	res, err := r.GetRecord(context.Background(), "caida.org", "AS701")
	require.NoError(t, err)
	assert.Empty(t, second.Calls())
	assert.Equal(t, "US", res.Records[0].Country)
}

func TestResolve_UnknownMethod(t *testing.T) {
	r, _ := newResolver(t, echoFetcher(), &spyBackend{}, geo.Options{})

	_, err := r.Resolve(context.Background(), netgeo.Method("getEverything"), []string{"caida.org"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}
