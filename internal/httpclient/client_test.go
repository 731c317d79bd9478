package httpclient_test

import (
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbckr/netgeo/internal/httpclient"
)

func TestNew_NoProxy(t *testing.T) {
	client, err := httpclient.New("", "", 0, nil, false)
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestNew_WithHTTPProxy(t *testing.T) {
	client, err := httpclient.New("http://proxy.example.com:8080", "", 0, nil, false)
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestNew_WithSocks5Proxy(t *testing.T) {
	client, err := httpclient.New("socks5://127.0.0.1:9050", "", 0, nil, false)
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestNew_InvalidProxyScheme(t *testing.T) {
	_, err := httpclient.New("ftp://proxy.example.com:8080", "", 0, nil, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "proxy scheme")
}

func TestNew_WithTimeout(t *testing.T) {
	client, err := httpclient.New("", "", 5*time.Second, nil, false)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, client.GetClient().Timeout)
}

func TestNew_WithDebugLogger(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client, err := httpclient.New("", "", 0, logger, true)
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestNew_SendsUserAgent(t *testing.T) {
	client, err := httpclient.New("", "MyApp", 0, nil, false)
	require.NoError(t, err)

	httpmock.ActivateNonDefault(client.GetClient())
	t.Cleanup(httpmock.DeactivateAndReset)

	var gotUA string
	httpmock.RegisterResponder(http.MethodGet, "https://netgeo.example/",
		func(r *http.Request) (*http.Response, error) {
			gotUA = r.Header.Get("User-Agent")
			return httpmock.NewStringResponse(http.StatusOK, "ok"), nil
		})

	_, err = client.R().Get("https://netgeo.example/")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(gotUA, "MyApp/netgeo/"), "unexpected User-Agent %q", gotUA)
}

func TestResolveUserAgent(t *testing.T) {
	assert.Equal(t, httpclient.DefaultUserAgent, httpclient.ResolveUserAgent(""))
	assert.Equal(t, httpclient.DefaultUserAgent, httpclient.ResolveUserAgent("   "))
	assert.Equal(t, "survey/"+httpclient.DefaultUserAgent, httpclient.ResolveUserAgent(" survey "))
}

func TestResolveProxy_ExplicitValue(t *testing.T) {
	got := httpclient.ResolveProxy("http://proxy.example.com:8080")
	assert.Equal(t, "http://proxy.example.com:8080", got)
}

func TestResolveProxy_EnvHTTPSProxy(t *testing.T) {
	t.Setenv("HTTPS_PROXY", "http://envproxy.example.com:8080")
	got := httpclient.ResolveProxy("")
	assert.Equal(t, "<from environment>", got)
}

func TestResolveProxy_EnvLowercase(t *testing.T) {
	t.Setenv("https_proxy", "http://envproxy.example.com:8080")
	got := httpclient.ResolveProxy("")
	assert.Equal(t, "<from environment>", got)
}

func TestResolveProxy_NoProxy(t *testing.T) {
	for _, env := range []string{"HTTPS_PROXY", "https_proxy", "HTTP_PROXY", "http_proxy", "ALL_PROXY", "all_proxy"} {
		t.Setenv(env, "")
	}
	got := httpclient.ResolveProxy("")
	assert.Equal(t, "", got)
}
