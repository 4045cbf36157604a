// Package classify provides the country-classification oracle consulted by
// the resolver's classifier stage. The oracle is treated as unreliable:
// every transport or model failure is collapsed into the "unknown" sentinel
// so the fallback chain can continue.
package classify

import "context"

// UnknownCountry is the sentinel the oracle returns when it cannot tell.
const UnknownCountry = "unknown"

// Oracle answers "which country does this posting belong to?" from free
// text. Implementations must return UnknownCountry instead of propagating
// failures.
type Oracle interface {
	// Country returns an English country name, or UnknownCountry.
	Country(ctx context.Context, freeText string) string
}

// OracleFunc adapts a function to the Oracle interface.
type OracleFunc func(ctx context.Context, freeText string) string

func (f OracleFunc) Country(ctx context.Context, freeText string) string {
	return f(ctx, freeText)
}

// Disabled is an Oracle that always answers unknown. Used when Ollama is
// unreachable at startup so the rest of the chain still runs.
var Disabled = OracleFunc(func(context.Context, string) string {
	return UnknownCountry
})
