package registry

import (
	"context"
	"slices"

	"github.com/fivetwenty-io/delivery-client/pkg/cda"
)

type buildChainKey struct{}

func withBuild(ctx context.Context, identity cda.Identity) context.Context {
	chain := append(slices.Clone(BuildChain(ctx)), identity)

	return context.WithValue(ctx, buildChainKey{}, chain)
}

// BuildChain returns the identities being built on this call path, outermost
// first. It is empty outside of a builder.
func BuildChain(ctx context.Context) []cda.Identity {
	chain, _ := ctx.Value(buildChainKey{}).([]cda.Identity)

	return chain
}

// InBuild reports whether ctx belongs to a running builder.
func InBuild(ctx context.Context) bool {
	return len(BuildChain(ctx)) > 0
}
