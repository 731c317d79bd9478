package netgeo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/imroc/req/v3"

	"github.com/tbckr/netgeo/internal/apperr"
)

// DefaultServerURL is the public CAIDA NetGeo endpoint.
const DefaultServerURL = "http://netgeo.caida.org/perl/netgeo.cgi"

// Method is the lookup method requested from the server.
type Method string

// Lookup methods understood by a NetGeo server.
const (
	MethodRecord  Method = "getRecord"
	MethodCountry Method = "getCountry"
	MethodLatLong Method = "getLatLong"
)

// Valid reports whether m is a known lookup method.
func (m Method) Valid() bool {
	switch m {
	case MethodRecord, MethodCountry, MethodLatLong:
		return true
	default:
		return false
	}
}

// Covers reports whether a reply fetched with m contains every field a reply
// to other would. A full record covers every narrower method.
func (m Method) Covers(other Method) bool {
	return m == other || m == MethodRecord
}

// Client issues NetGeo queries over HTTP.
type Client struct {
	client    *req.Client
	serverURL string
	logger    *slog.Logger
}

// NewClient creates a client for the server at serverURL.
// An empty serverURL selects DefaultServerURL.
func NewClient(client *req.Client, serverURL string, logger *slog.Logger) *Client {
	if serverURL == "" {
		serverURL = DefaultServerURL
	}
	return &Client{client: client, serverURL: serverURL, logger: logger}
}

// ServerURL returns the endpoint queries are sent to.
func (c *Client) ServerURL() string { return c.serverURL }

// Fetch requests method for the canonical target and returns the raw reply body.
// The target is sent percent-encoded in the query string.
// Transport failures and non-2xx replies return an error wrapping apperr.ErrRequestFailed.
func (c *Client) Fetch(ctx context.Context, method Method, target string) (string, error) {
	if !method.Valid() {
		return "", fmt.Errorf("%w: unknown lookup method %q", apperr.ErrInvalidInput, method)
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("method", string(method)).
		SetQueryParam("target", target).
		Get(c.serverURL)
	if err != nil {
		c.logger.Debug("netgeo request failed", "method", method, "target", target, "error", err)
		return "", fmt.Errorf("%w: netgeo request error for %q: %w", apperr.ErrRequestFailed, target, err)
	}
	if !resp.IsSuccessState() {
		body := resp.String()
		if len(body) > 200 {
			body = body[:200] + "..."
		}
		return "", fmt.Errorf("%w: netgeo returned HTTP %d for %q: %q", apperr.ErrRequestFailed, resp.StatusCode, target, body)
	}
	return resp.String(), nil
}
