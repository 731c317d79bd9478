package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/imroc/req/v3"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbckr/netgeo/internal/apperr"
	"github.com/tbckr/netgeo/internal/testutil"
	"github.com/tbckr/netgeo/internal/version"
)

// env is an isolated config file and cache directory for one test.
type env struct {
	cfgFile  string
	cacheDir string
	client   *req.Client
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		cfgFile:  filepath.Join(t.TempDir(), "config.yaml"),
		cacheDir: t.TempDir(),
		client:   testutil.NewMockClient(t),
	}
	httpmock.RegisterResponder(http.MethodGet, testutil.TestServerURL,
		func(r *http.Request) (*http.Response, error) {
			target := r.URL.Query().Get("target")
			body := fmt.Sprintf("TARGET: %s<br>\nCOUNTRY: US<br>\nLAT: 32.88<br>\nLONG: -117.24<br>\nSTATUS: OK<br>\n", target)
			return httpmock.NewStringResponse(http.StatusOK, body), nil
		})
	return e
}

// run executes the command tree with args and returns stdout.
func (e *env) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(func(d *deps) { d.httpClient = e.client })
	cmd.SetArgs(append([]string{
		"--config=" + e.cfgFile,
		"--cache-dir=" + e.cacheDir,
		"--server-url=" + testutil.TestServerURL,
		"--rate-limit=0",
	}, args...))
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestRecordCmd_JSONSingleObject(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "", "record", "--output=json", "caida.org")
	require.NoError(t, err)

	var rec map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, "caida.org", rec["TARGET"])
	assert.Equal(t, "OK", rec["STATUS"])
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestRecordCmd_SecondRunUsesCache(t *testing.T) {
	e := newEnv(t)

	_, err := e.run(t, "", "record", "caida.org", "AS701")
	require.NoError(t, err)
	require.Equal(t, 2, httpmock.GetTotalCallCount())

	out, err := e.run(t, "", "record", "--output=text", "caida.org", "AS701")
	require.NoError(t, err)
	assert.Equal(t, 2, httpmock.GetTotalCallCount())
	assert.Equal(t, "caida.org\tOK\tUS\t32.88\t-117.24\nAS701\tOK\tUS\t32.88\t-117.24\n", out)
}

func TestCountryCmd_Stdin(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "caida.org\n\nnot-a-target\n", "country", "--output=text")
	require.NoError(t, err)
	assert.Equal(t, "caida.org\tUS\nnot-a-target\t\n", out)
}

func TestLatLongCmd_Text(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "", "latlong", "-o", "text", "192.172.226.1")
	require.NoError(t, err)
	assert.Equal(t, "192.172.226.1\t32.88\t-117.24\n", out)
}

func TestLookupCmd_BatchLimit(t *testing.T) {
	e := newEnv(t)

	_, err := e.run(t, "", "record", "--batch-limit=1", "caida.org", "AS701")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrCapacity)
	assert.Equal(t, 0, httpmock.GetTotalCallCount())
}

func TestLookupCmd_NoInput(t *testing.T) {
	e := newEnv(t)

	_, err := e.run(t, "", "record")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestLookupCmd_MissingCacheDir(t *testing.T) {
	e := newEnv(t)
	e.cacheDir = filepath.Join(e.cacheDir, "missing")

	_, err := e.run(t, "", "record", "caida.org")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrStorage)
}

func TestCacheCmds(t *testing.T) {
	e := newEnv(t)
	_, err := e.run(t, "", "record", "--concurrency=1", "caida.org", "AS701")
	require.NoError(t, err)

	out, err := e.run(t, "", "cache", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(e.cacheDir, "netgeo.cache")+"\n", out)

	out, err = e.run(t, "", "cache", "list", "--output=json")
	require.NoError(t, err)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "caida.org", entries[0]["key"])
	assert.Equal(t, "getRecord", entries[0]["method"])

	out, err = e.run(t, "", "cache", "list", "--output=text")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 2)

	out, err = e.run(t, "", "cache", "clear")
	require.NoError(t, err)
	assert.Equal(t, "removed 2 cached lookups\n", out)

	out, err = e.run(t, "", "cache", "list", "--output=json")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestCacheCmds_SQLite(t *testing.T) {
	e := newEnv(t)

	_, err := e.run(t, "", "record", "--cache-backend=sqlite", "caida.org")
	require.NoError(t, err)

	out, err := e.run(t, "", "cache", "path", "--cache-backend=sqlite")
	require.NoError(t, err)
	assert.Equal(t, "sqlite:"+filepath.Join(e.cacheDir, "netgeo.cache")+"\n", out)

	out, err = e.run(t, "", "cache", "list", "--cache-backend=sqlite", "--output=text")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "caida.org\tgetRecord\tOK\t"), out)
}

func TestConfigCmds(t *testing.T) {
	e := newEnv(t)

	_, err := e.run(t, "", "config", "set", "cache-ttl", "12h")
	require.NoError(t, err)

	data, err := os.ReadFile(e.cfgFile)
	require.NoError(t, err)
	assert.Equal(t, "cache_ttl: 12h\n", string(data))

	out, err := e.run(t, "", "config", "get", "cache_ttl")
	require.NoError(t, err)
	assert.Equal(t, "12h0m0s\n", out)

	_, err = e.run(t, "", "config", "set", "concurrency", "0")
	require.Error(t, err)

	_, err = e.run(t, "", "config", "get", "nope")
	require.Error(t, err)

	out, err = e.run(t, "", "config", "path")
	require.NoError(t, err)
	assert.Equal(t, e.cfgFile+"\n", out)

	out, err = e.run(t, "", "config", "show", "--output=text")
	require.NoError(t, err)
	assert.Contains(t, out, "server_url="+testutil.TestServerURL+"\n")
	assert.Contains(t, out, "cache_ttl=12h0m0s\n")
}

func TestVersionCmd_JSON(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "", "version", "--output=json")
	require.NoError(t, err)

	var info version.Info
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.NotEmpty(t, info.Version)
}

func TestCompletionCmd_Bash(t *testing.T) {
	var stdout bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs([]string{"completion", "bash"})
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, stdout.String(), "__start_netgeo")
}

func TestCountryCmd_StdinSkipsComments(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "# hosts\ncaida.org\n", "country", "--output=text")
	require.NoError(t, err)
	assert.Equal(t, "caida.org\tUS\n", out)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}
