package testutil

import (
	"fmt"
	"math/rand/v2"
	"os"
	"slices"
	"testing"
)

// RequireNetlink skips the test if the CHAINREG_NFT_TEST environment
// variable is not set. Tests that talk to the kernel's nftables need root
// and a disposable network namespace, usually a VM.
func RequireNetlink(t *testing.T) {
	t.Helper()
	if os.Getenv("CHAINREG_NFT_TEST") == "" {
		t.Skip("Skipping test: requires CHAINREG_NFT_TEST environment")
	}
}

// ChainNames returns n distinct names, sorted, with the given prefix.
func ChainNames(prefix string, n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("%s%06d", prefix, i)
	}
	return names
}

// ShuffledNames returns ChainNames in a deterministic random order.
func ShuffledNames(prefix string, n int, seed uint64) []string {
	names := ChainNames(prefix, n)
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	rng.Shuffle(len(names), func(i, j int) { names[i], names[j] = names[j], names[i] })
	return names
}

// IsSorted reports whether names are in ascending byte order.
func IsSorted(names []string) bool {
	return slices.IsSorted(names)
}
