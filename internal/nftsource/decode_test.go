//go:build linux
// +build linux

package nftsource

import (
	"context"
	"errors"
	"testing"

	"github.com/google/nftables"
	"github.com/google/nftables/expr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"grimm.is/chainreg/internal/chains"
	"grimm.is/chainreg/internal/table"
	"grimm.is/chainreg/internal/testutil"
)

func seededConn() (*MockNFTablesConn, *nftables.Table) {
	conn := NewMockNFTablesConn()
	filter := conn.AddTable(&nftables.Table{Name: "filter", Family: nftables.TableFamilyIPv4})
	other := conn.AddTable(&nftables.Table{Name: "nat", Family: nftables.TableFamilyIPv4})

	drop := nftables.ChainPolicyDrop
	conn.SeedChain(&nftables.Chain{
		Name: "output", Table: filter, Type: nftables.ChainTypeFilter,
		Hooknum: nftables.ChainHookOutput, Priority: nftables.ChainPriorityFilter,
	})
	conn.SeedChain(&nftables.Chain{
		Name: "input", Table: filter, Type: nftables.ChainTypeFilter,
		Hooknum: nftables.ChainHookInput, Priority: nftables.ChainPriorityFilter, Policy: &drop,
	}, &nftables.Rule{Exprs: []expr.Any{&expr.Verdict{Kind: expr.VerdictJump, Chain: "wan_in"}}})
	conn.SeedChain(&nftables.Chain{
		Name: "input_early", Table: filter, Type: nftables.ChainTypeFilter,
		Hooknum: nftables.ChainHookInput, Priority: nftables.ChainPriorityRaw,
	})

	conn.SeedChain(&nftables.Chain{Name: "wan_in", Table: filter},
		&nftables.Rule{Exprs: []expr.Any{&expr.Verdict{Kind: expr.VerdictGoto, Chain: "log_drop"}}, UserData: []byte("c1")},
		&nftables.Rule{Exprs: []expr.Any{&expr.Verdict{Kind: expr.VerdictAccept}}},
	)
	conn.SeedChain(&nftables.Chain{Name: "log_drop", Table: filter})
	conn.SeedChain(&nftables.Chain{Name: "lan_in", Table: filter})
	conn.SeedChain(&nftables.Chain{Name: "masq", Table: other})

	conn.On("ListTables").Return(nil, nil)
	conn.On("ListChainsOfTableFamily", nftables.TableFamilyIPv4).Return(nil, nil)
	conn.On("GetRules", mock.Anything, mock.Anything).Return(nil, nil)
	return conn, filter
}

func TestDecode(t *testing.T) {
	conn, _ := seededConn()

	cs, err := Decode(conn, nftables.TableFamilyIPv4, "filter")
	require.NoError(t, err)

	var names []string
	for _, c := range cs {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"input_early", "input", "output", "lan_in", "log_drop", "wan_in"}, names)

	assert.Equal(t, chains.KindBuiltin, cs[1].Kind)
	assert.Equal(t, chains.HookInput, cs[1].Hook)
	assert.Equal(t, chains.PolicyDrop, cs[1].Policy)
	assert.Equal(t, chains.PolicyAccept, cs[2].Policy)
	assert.Equal(t, chains.HookOutput, cs[2].Hook)

	byName := make(map[string]*chains.Chain)
	for _, c := range cs {
		byName[c.Name] = c
	}
	assert.Equal(t, 1, byName["wan_in"].References)
	assert.Equal(t, 1, byName["log_drop"].References)
	assert.Zero(t, byName["lan_in"].References)
	require.Len(t, byName["wan_in"].Rules, 2)
	assert.Equal(t, "log_drop", byName["wan_in"].Rules[0].Target)
	assert.Equal(t, []byte("c1"), byName["wan_in"].Rules[0].Data)

	// The decoded order is what the registry loads.
	reg := chains.New(chains.DefaultConfig())
	require.NoError(t, reg.Load(cs))
	require.NoError(t, reg.Check())
	conn.AssertExpectations(t)
}

func TestDecode_TableNotFound(t *testing.T) {
	conn, _ := seededConn()
	_, err := Decode(conn, nftables.TableFamilyIPv6, "filter")
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestDecode_ListError(t *testing.T) {
	conn := NewMockNFTablesConn()
	conn.On("ListTables").Return(nil, errors.New("netlink: operation not permitted"))
	_, err := Decode(conn, nftables.TableFamilyIPv4, "filter")
	assert.ErrorContains(t, err, "operation not permitted")
}

func TestParseFamily(t *testing.T) {
	f, err := ParseFamily("inet")
	require.NoError(t, err)
	assert.Equal(t, nftables.TableFamilyINet, f)

	_, err = ParseFamily("ipx")
	assert.Error(t, err)
}

func TestWriter_Apply(t *testing.T) {
	conn, filter := seededConn()
	conn.On("AddChain", mock.Anything).Return()
	conn.On("DelChain", mock.Anything).Return()
	conn.On("Flush").Return(nil)

	cs, err := Decode(conn, nftables.TableFamilyIPv4, "filter")
	require.NoError(t, err)

	s := table.New("filter", chains.DefaultConfig())
	require.NoError(t, s.Load(cs))
	require.NoError(t, s.CreateChain("dmz"))
	_, err = s.DeleteChain("lan_in")
	require.NoError(t, err)
	require.NoError(t, s.SetPolicy("output", chains.PolicyDrop))

	w := NewWriter(conn, nftables.TableFamilyIPv4, nil)
	require.NoError(t, s.Commit(context.Background(), w))

	conn.AssertCalled(t, "AddChain", mock.MatchedBy(func(c *nftables.Chain) bool {
		return c.Name == "dmz" && c.Table == filter && c.Hooknum == nil
	}))
	conn.AssertCalled(t, "DelChain", mock.MatchedBy(func(c *nftables.Chain) bool {
		return c.Name == "lan_in"
	}))
	conn.AssertCalled(t, "AddChain", mock.MatchedBy(func(c *nftables.Chain) bool {
		return c.Name == "output" && c.Hooknum != nil && c.Policy != nil && *c.Policy == nftables.ChainPolicyDrop
	}))
	conn.AssertNumberOfCalls(t, "Flush", 1)

	// The mock now reflects the commit.
	again, err := Decode(conn, nftables.TableFamilyIPv4, "filter")
	require.NoError(t, err)
	var names []string
	for _, c := range again {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "dmz")
	assert.NotContains(t, names, "lan_in")
}

func TestWriter_RejectsRename(t *testing.T) {
	conn, _ := seededConn()
	w := NewWriter(conn, nftables.TableFamilyIPv4, nil)

	err := w.Apply(context.Background(), "filter", []table.Change{
		{Kind: table.ChangeCreated, Chain: "a"},
		{Kind: table.ChangeRenamed, Chain: "a", NewName: "b"},
	})
	assert.ErrorIs(t, err, ErrRenameUnsupported)
	conn.AssertNotCalled(t, "AddChain", mock.Anything)
}

func TestWriter_FlushError(t *testing.T) {
	conn, _ := seededConn()
	conn.On("AddChain", mock.Anything).Return()
	conn.On("Flush").Return(errors.New("netlink: busy"))

	w := NewWriter(conn, nftables.TableFamilyIPv4, nil)
	err := w.Apply(context.Background(), "filter", []table.Change{{Kind: table.ChangeCreated, Chain: "x"}})
	assert.ErrorContains(t, err, "failed to flush")
}

func TestWriter_Canceled(t *testing.T) {
	conn, _ := seededConn()
	conn.On("AddChain", mock.Anything).Return()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w := NewWriter(conn, nftables.TableFamilyIPv4, nil)
	err := w.Apply(ctx, "filter", []table.Change{{Kind: table.ChangeCreated, Chain: "x"}})
	assert.ErrorIs(t, err, context.Canceled)
	conn.AssertNotCalled(t, "Flush")
}

func TestDecode_Kernel(t *testing.T) {
	testutil.RequireNetlink(t)

	conn, err := Dial()
	require.NoError(t, err)

	tables, err := conn.ListTables()
	require.NoError(t, err)
	for _, tbl := range tables {
		cs, err := Decode(conn, tbl.Family, tbl.Name)
		require.NoError(t, err)
		reg := chains.New(chains.DefaultConfig())
		require.NoError(t, reg.Load(cs), "table %s", tbl.Name)
		require.NoError(t, reg.Check())
	}
}
