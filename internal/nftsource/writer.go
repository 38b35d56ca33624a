//go:build linux
// +build linux

package nftsource

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/nftables"

	"grimm.is/chainreg/internal/chains"
	"grimm.is/chainreg/internal/logging"
	"grimm.is/chainreg/internal/table"
)

// ErrRenameUnsupported is returned for journals containing a rename; the
// nftables netlink API has no in-place chain rename.
var ErrRenameUnsupported = errors.New("chain rename cannot be committed to nftables")

// Writer commits a table session journal through netlink. It implements
// table.Writer.
type Writer struct {
	conn   NFTablesConn
	family nftables.TableFamily
	log    *logging.Logger
}

var _ table.Writer = (*Writer)(nil)

// NewWriter returns a Writer for tables of the given family.
func NewWriter(conn NFTablesConn, family nftables.TableFamily, logger *logging.Logger) *Writer {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Writer{conn: conn, family: family, log: logger.WithComponent("nftsource")}
}

// Apply batches the journal into one netlink transaction.
func (w *Writer) Apply(ctx context.Context, name string, changes []table.Change) error {
	for _, c := range changes {
		if c.Kind == table.ChangeRenamed {
			return fmt.Errorf("%w: %s", ErrRenameUnsupported, c)
		}
	}

	t, err := Table(w.conn, w.family, name)
	if err != nil {
		return err
	}

	var existing map[string]*nftables.Chain
	for _, c := range changes {
		switch c.Kind {
		case table.ChangeCreated:
			w.conn.AddChain(&nftables.Chain{Name: c.Chain, Table: t})
		case table.ChangeDeleted:
			w.conn.DelChain(&nftables.Chain{Name: c.Chain, Table: t})
		case table.ChangePolicySet:
			if existing == nil {
				existing, err = w.baseChains(t)
				if err != nil {
					return err
				}
			}
			base, ok := existing[c.Chain]
			if !ok {
				return fmt.Errorf("base chain %s not found in table %s", c.Chain, name)
			}
			updated := *base
			updated.Policy = nftPolicy(c.Policy)
			w.conn.AddChain(&updated)
		}
		w.log.Debug("queued change", "change", c.String())
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := w.conn.Flush(); err != nil {
		return fmt.Errorf("failed to flush nftables batch: %w", err)
	}
	w.log.Info("committed changes", "table", name, "changes", len(changes))
	return nil
}

func (w *Writer) baseChains(t *nftables.Table) (map[string]*nftables.Chain, error) {
	all, err := w.conn.ListChainsOfTableFamily(w.family)
	if err != nil {
		return nil, fmt.Errorf("failed to list chains: %w", err)
	}
	out := make(map[string]*nftables.Chain)
	for _, c := range all {
		if c.Table != nil && c.Table.Name == t.Name && c.Hooknum != nil {
			out[c.Name] = c
		}
	}
	return out, nil
}

func nftPolicy(p chains.Policy) *nftables.ChainPolicy {
	policy := nftables.ChainPolicyAccept
	if p == chains.PolicyDrop {
		policy = nftables.ChainPolicyDrop
	}
	return &policy
}
