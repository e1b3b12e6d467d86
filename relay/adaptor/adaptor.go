// Package adaptor holds the per-provider upstream clients. An adaptor takes
// one rewritten request, performs the provider call, and returns the uniform
// response view; it knows nothing about queues or limiters.
package adaptor

import (
	"context"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/model"
	relaymodel "github.com/transkatgirl/generative-model-proxy-server-sub000/relay/model"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/relay/payload"
)

type Adaptor interface {
	// SupportsMode reports whether the backend can serve the endpoint
	// family. The worker consults it before admission, so an unsupported
	// request is rejected without consuming any quota.
	SupportsMode(mode int) bool

	// Relay performs one upstream call for a supported mode. Exactly one of
	// the return values is non-nil. Error bodies that the upstream itself
	// produced with a passthrough-safe status come back as a Response, not
	// an error.
	Relay(ctx context.Context, m *model.Model, req payload.Request) (payload.Response, *relaymodel.ErrorWithStatusCode)
}
