package table

import (
	"context"
	"fmt"
	"strings"
	"time"

	"grimm.is/chainreg/internal/chains"
)

// ChangeKind names a journaled edit.
type ChangeKind string

const (
	ChangeCreated   ChangeKind = "create"
	ChangeDeleted   ChangeKind = "delete"
	ChangeRenamed   ChangeKind = "rename"
	ChangePolicySet ChangeKind = "policy"
)

// Change is one edit recorded by a session, in the order it was made.
type Change struct {
	Kind    ChangeKind    `json:"kind" yaml:"kind"`
	Chain   string        `json:"chain" yaml:"chain"`
	NewName string        `json:"new_name,omitempty" yaml:"new_name,omitempty"`
	Policy  chains.Policy `json:"policy,omitempty" yaml:"policy,omitempty"`
	At      time.Time     `json:"at" yaml:"at"`
}

func (c Change) String() string {
	switch c.Kind {
	case ChangeRenamed:
		return fmt.Sprintf("rename %s %s", c.Chain, c.NewName)
	case ChangePolicySet:
		return fmt.Sprintf("policy %s %s", c.Chain, c.Policy)
	default:
		return fmt.Sprintf("%s %s", c.Kind, c.Chain)
	}
}

// Writer delivers a session's journal to the kernel (or anywhere else).
type Writer interface {
	Apply(ctx context.Context, table string, changes []Change) error
}

// WriterFunc adapts a function to Writer.
type WriterFunc func(ctx context.Context, table string, changes []Change) error

// Apply calls f.
func (f WriterFunc) Apply(ctx context.Context, table string, changes []Change) error {
	return f(ctx, table, changes)
}

// ParsePolicy accepts the built-in chain verdicts, case-insensitively.
func ParsePolicy(s string) (chains.Policy, error) {
	switch strings.ToUpper(s) {
	case "ACCEPT":
		return chains.PolicyAccept, nil
	case "DROP":
		return chains.PolicyDrop, nil
	default:
		return chains.PolicyNone, fmt.Errorf("%w: %q", ErrBadPolicy, s)
	}
}
