// Package kit provides the transport glue shared by every service package:
// transport-agnostic endpoints, middleware chaining, MCP tool registration,
// and request-scoped context helpers.
package kit

import "context"

// Endpoint is a transport-agnostic request handler. Transports decode their
// payload into a typed request, call the endpoint, and encode the response.
type Endpoint func(ctx context.Context, req any) (any, error)

// Middleware wraps an Endpoint with cross-cutting behavior.
type Middleware func(Endpoint) Endpoint

// Chain composes middlewares so the first argument is outermost:
// Chain(a, b, c)(ep) runs a before b before c before ep.
func Chain(mws ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}
