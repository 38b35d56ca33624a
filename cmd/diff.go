package cmd

import (
	"github.com/pmezard/go-difflib/difflib"

	"grimm.is/chainreg/internal/chains"
)

// ChainDiff renders a unified diff between two chain lists, or "" when they
// are identical.
func ChainDiff(before, after []*chains.Chain) string {
	a := chainLines(before)
	b := chainLines(after)

	diff := difflib.UnifiedDiff{
		A:        a,
		B:        b,
		FromFile: "Current",
		ToFile:   "Proposed",
		Context:  3,
	}
	text, _ := difflib.GetUnifiedDiffString(diff)
	return text
}
