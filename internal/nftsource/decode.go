//go:build linux
// +build linux

package nftsource

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/google/nftables"
	"github.com/google/nftables/expr"
	"golang.org/x/sys/unix"

	"grimm.is/chainreg/internal/chains"
)

// ErrTableNotFound is returned when the requested table does not exist.
var ErrTableNotFound = errors.New("table not found")

// Table finds the named table of the given family.
func Table(conn NFTablesConn, family nftables.TableFamily, name string) (*nftables.Table, error) {
	tables, err := conn.ListTables()
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	for _, t := range tables {
		if t.Family == family && t.Name == name {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
}

// Decode reads the chains of one table in registry load order: base chains
// first, ordered by hook and priority, then regular chains by name.
// Jump and goto verdicts are counted into the target's References.
func Decode(conn NFTablesConn, family nftables.TableFamily, name string) ([]*chains.Chain, error) {
	table, err := Table(conn, family, name)
	if err != nil {
		return nil, err
	}

	all, err := conn.ListChainsOfTableFamily(family)
	if err != nil {
		return nil, fmt.Errorf("failed to list chains: %w", err)
	}

	type decoded struct {
		chain    *chains.Chain
		priority int32
	}
	var base, regular []decoded
	refs := make(map[string]int)

	for _, nc := range all {
		if nc.Table == nil || nc.Table.Name != table.Name {
			continue
		}
		rules, err := conn.GetRules(table, nc)
		if err != nil {
			return nil, fmt.Errorf("failed to get rules of chain %s: %w", nc.Name, err)
		}

		c := &chains.Chain{Name: nc.Name, Rules: make([]chains.Rule, 0, len(rules))}
		for _, r := range rules {
			target := jumpTarget(r)
			if target != "" {
				refs[target]++
			}
			c.Rules = append(c.Rules, chains.Rule{Target: target, Data: r.UserData})
		}

		if nc.Hooknum == nil {
			regular = append(regular, decoded{chain: c})
			continue
		}
		c.Kind = chains.KindBuiltin
		c.Hook = hookOf(*nc.Hooknum)
		c.Policy = policyOf(nc.Policy)
		var prio int32
		if nc.Priority != nil {
			prio = int32(*nc.Priority)
		}
		base = append(base, decoded{chain: c, priority: prio})
	}

	slices.SortFunc(base, func(a, b decoded) int {
		return cmp.Or(
			cmp.Compare(a.chain.Hook, b.chain.Hook),
			cmp.Compare(a.priority, b.priority),
			cmp.Compare(a.chain.Name, b.chain.Name),
		)
	})
	slices.SortFunc(regular, func(a, b decoded) int {
		return cmp.Compare(a.chain.Name, b.chain.Name)
	})

	out := make([]*chains.Chain, 0, len(base)+len(regular))
	for _, d := range base {
		out = append(out, d.chain)
	}
	for _, d := range regular {
		d.chain.References = refs[d.chain.Name]
		out = append(out, d.chain)
	}
	return out, nil
}

// jumpTarget returns the chain a rule jumps or goes to, if any.
func jumpTarget(r *nftables.Rule) string {
	for _, e := range r.Exprs {
		v, ok := e.(*expr.Verdict)
		if !ok {
			continue
		}
		if v.Kind == expr.VerdictJump || v.Kind == expr.VerdictGoto {
			return v.Chain
		}
	}
	return ""
}

func hookOf(h nftables.ChainHook) chains.Hook {
	switch h {
	case unix.NF_INET_PRE_ROUTING:
		return chains.HookPrerouting
	case unix.NF_INET_LOCAL_IN:
		return chains.HookInput
	case unix.NF_INET_FORWARD:
		return chains.HookForward
	case unix.NF_INET_LOCAL_OUT:
		return chains.HookOutput
	case unix.NF_INET_POST_ROUTING:
		return chains.HookPostrouting
	}
	return chains.HookNone
}

func policyOf(p *nftables.ChainPolicy) chains.Policy {
	if p == nil {
		return chains.PolicyAccept
	}
	if *p == nftables.ChainPolicyDrop {
		return chains.PolicyDrop
	}
	return chains.PolicyAccept
}
