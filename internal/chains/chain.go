package chains

import "fmt"

// Kind distinguishes hook-bound built-in chains from user-defined ones.
type Kind uint8

const (
	KindUser Kind = iota
	KindBuiltin
)

func (k Kind) String() string {
	switch k {
	case KindBuiltin:
		return "builtin"
	case KindUser:
		return "user"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Hook is the traversal hook a built-in chain is attached to. Values are
// declared in packet traversal order, which is also the order built-in
// chains appear in a table.
type Hook uint8

const (
	HookNone Hook = iota
	HookPrerouting
	HookInput
	HookForward
	HookOutput
	HookPostrouting
)

var hookNames = map[Hook]string{
	HookNone:        "none",
	HookPrerouting:  "prerouting",
	HookInput:       "input",
	HookForward:     "forward",
	HookOutput:      "output",
	HookPostrouting: "postrouting",
}

func (h Hook) String() string {
	if s, ok := hookNames[h]; ok {
		return s
	}
	return fmt.Sprintf("hook(%d)", uint8(h))
}

// Policy is the default verdict of a built-in chain.
type Policy uint8

const (
	PolicyNone Policy = iota
	PolicyAccept
	PolicyDrop
)

func (p Policy) String() string {
	switch p {
	case PolicyAccept:
		return "ACCEPT"
	case PolicyDrop:
		return "DROP"
	}
	return "-"
}

// Rule is an opaque rule record. The registry never interprets it; Target
// is kept so collaborators can count jumps between chains.
type Rule struct {
	Target string
	Data   []byte
}

// Chain is a named rule chain held by a Registry.
type Chain struct {
	Name   string
	Kind   Kind
	Hook   Hook
	Policy Policy
	Rules  []Rule

	// References counts rules elsewhere in the table that jump to this chain.
	References int
}

// IsBuiltin reports whether c is bound to a traversal hook.
func (c *Chain) IsBuiltin() bool {
	return c.Kind == KindBuiltin
}

func (c *Chain) String() string {
	if c.IsBuiltin() {
		return fmt.Sprintf("%s (%s, policy %s)", c.Name, c.Hook, c.Policy)
	}
	return c.Name
}
