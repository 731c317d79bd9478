package httpclient

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/imroc/req/v3"

	"github.com/tbckr/netgeo/internal/version"
)

// DefaultUserAgent is the User-Agent sent when no application name is configured.
// It identifies netgeo honestly so NetGeo server operators can recognise its traffic.
// var (not const) because the version is a link-time variable, not a compile-time constant.
var DefaultUserAgent = version.Product() + " (+https://github.com/tbckr/netgeo)"

// ResolveUserAgent returns the User-Agent sent to the NetGeo server.
// A non-empty appName is trimmed and prefixed: "<appName>/<DefaultUserAgent>".
func ResolveUserAgent(appName string) string {
	appName = strings.TrimSpace(appName)
	if appName == "" {
		return DefaultUserAgent
	}
	return appName + "/" + DefaultUserAgent
}

// ResolveProxy returns the proxy value that will actually be used.
// If proxy is explicitly configured, it is returned as-is.
// Otherwise the standard proxy env vars are checked
// (HTTPS_PROXY, HTTP_PROXY, ALL_PROXY and their lowercase variants);
// if any are set "<from environment>" is returned.
// If none are set, an empty string is returned.
func ResolveProxy(proxy string) string {
	if proxy != "" {
		return proxy
	}
	for _, env := range []string{"HTTPS_PROXY", "https_proxy", "HTTP_PROXY", "http_proxy", "ALL_PROXY", "all_proxy"} {
		if os.Getenv(env) != "" {
			return "<from environment>"
		}
	}
	return ""
}

// New builds a *req.Client for talking to the NetGeo server.
// appName is folded into the User-Agent via ResolveUserAgent.
// proxy supports http://, https://, and socks5:// URLs via req's SetProxyURL.
// When proxy is empty, HTTP_PROXY / HTTPS_PROXY / NO_PROXY environment variables
// are honoured automatically via http.ProxyFromEnvironment.
// timeout bounds every request; zero leaves req's default in place.
// When debug is true and logger is non-nil, an OnAfterResponse hook is attached
// that logs the HTTP method, URL, and status code at DEBUG level.
// Returns an error if the proxy URL is syntactically invalid.
func New(proxy, appName string, timeout time.Duration, logger *slog.Logger, debug bool) (*req.Client, error) {
	client := req.NewClient()
	client.SetUserAgent(ResolveUserAgent(appName))

	if timeout > 0 {
		client.SetTimeout(timeout)
	}

	if proxy != "" {
		if err := validateProxy(proxy); err != nil {
			return nil, fmt.Errorf("invalid proxy URL %q: %w", proxy, err)
		}
		client.SetProxyURL(proxy)
	} else {
		client.SetProxy(http.ProxyFromEnvironment)
	}

	if debug && logger != nil {
		attachDebugHook(client, logger)
	}

	return client, nil
}

// attachDebugHook registers an OnAfterResponse hook that logs the HTTP method,
// URL, and status code at DEBUG level, and logs a body snippet on non-2xx responses.
func attachDebugHook(client *req.Client, logger *slog.Logger) {
	client.OnAfterResponse(func(_ *req.Client, resp *req.Response) error {
		if resp.Request == nil || resp.Request.RawRequest == nil {
			return nil
		}
		logger.Debug("http response",
			"method", resp.Request.RawRequest.Method,
			"url", resp.Request.RawRequest.URL.String(),
			"status", resp.StatusCode,
		)
		if !resp.IsSuccessState() {
			body := resp.String()
			if len(body) > 512 {
				body = body[:512]
			}
			logger.Debug("http error body",
				"status", resp.StatusCode,
				"body", body,
			)
		}
		return nil
	})
}

// validateProxy performs a basic check that the proxy URL has a recognised scheme.
func validateProxy(proxy string) error {
	for _, scheme := range []string{"http://", "https://", "socks5://"} {
		if strings.HasPrefix(proxy, scheme) {
			return nil
		}
	}
	return fmt.Errorf("proxy scheme must be http://, https://, or socks5://")
}
