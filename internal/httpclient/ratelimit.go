package httpclient

import (
	"github.com/imroc/req/v3"

	"github.com/tbckr/netgeo/internal/ratelimit"
)

// AttachRateLimit hooks a Limiter onto the client's request pipeline.
// Every outbound request waits for a token via limiter.Wait(ctx) before it is sent;
// a cancelled context aborts the request with ctx.Err().
//
// Requests are never retried here: a throttled reply from the NetGeo server is
// surfaced to the caller as NETGEO_LIMIT_EXCEEDED and retrying is left to it.
func AttachRateLimit(client *req.Client, limiter *ratelimit.Limiter) {
	client.OnBeforeRequest(func(_ *req.Client, r *req.Request) error {
		return limiter.Wait(r.Context())
	})
}
