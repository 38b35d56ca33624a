package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/chainreg/internal/chains"
	"grimm.is/chainreg/internal/metrics"
	"grimm.is/chainreg/internal/table"
)

func testSession(t *testing.T) *table.Session {
	t.Helper()
	s := table.New("filter", chains.Config{BucketLen: 2})
	require.NoError(t, s.Load([]*chains.Chain{
		{Name: "INPUT", Kind: chains.KindBuiltin, Hook: chains.HookInput, Policy: chains.PolicyAccept},
		{Name: "OUTPUT", Kind: chains.KindBuiltin, Hook: chains.HookOutput, Policy: chains.PolicyAccept},
		{Name: "lan_in"},
		{Name: "wan_in"},
	}))
	return s
}

func TestParseScript(t *testing.T) {
	ops, err := ParseScript(strings.NewReader(`
# chain layout for the dmz
create dmz_in
create dmz_out   # trailing comment

rename lan_in lan_trusted
policy INPUT drop
delete wan_in
rebuild
`))
	require.NoError(t, err)
	require.Len(t, ops, 6)
	assert.Equal(t, ScriptOp{Line: 3, Verb: "create", Args: []string{"dmz_in"}}, ops[0])
	assert.Equal(t, "rename", ops[2].Verb)
	assert.Equal(t, []string{"lan_in", "lan_trusted"}, ops[2].Args)
	assert.Empty(t, ops[5].Args)
}

func TestParseScript_Errors(t *testing.T) {
	_, err := ParseScript(strings.NewReader("create a\nflush a\n"))
	assert.ErrorContains(t, err, "line 2")

	_, err = ParseScript(strings.NewReader("rename a\n"))
	assert.ErrorContains(t, err, "takes 2 argument")
}

func TestRunScript(t *testing.T) {
	s := testSession(t)
	before := s.Snapshot()

	ops, err := ParseScript(strings.NewReader("create dmz\nrename lan_in a_lan\npolicy INPUT DROP\ndelete wan_in\nrebuild\n"))
	require.NoError(t, err)

	out, err := RunScript(s, ops)
	require.NoError(t, err)
	assert.Equal(t, "created dmz", out[0])
	assert.Contains(t, out[3], "deleted wan_in")
	assert.Equal(t, []string{"INPUT", "OUTPUT", "a_lan", "dmz"}, s.Chains())
	assert.Len(t, s.Changes(), 4)
	require.NoError(t, s.Check())

	diff := ChainDiff(before, s.Snapshot())
	assert.Contains(t, diff, "--- Current")
	assert.Contains(t, diff, "+++ Proposed")
	assert.Contains(t, diff, "-wan_in user")
	assert.Contains(t, diff, "+INPUT builtin input DROP")
}

func TestRunScript_StopsAtFailure(t *testing.T) {
	s := testSession(t)
	ops, err := ParseScript(strings.NewReader("create x\ndelete INPUT\ncreate y\n"))
	require.NoError(t, err)

	out, err := RunScript(s, ops)
	assert.ErrorIs(t, err, table.ErrBuiltin)
	assert.ErrorContains(t, err, "line 2")
	assert.Len(t, out, 1)
	assert.False(t, s.IsChain("y"))
}

func TestChainDiff_NoChanges(t *testing.T) {
	s := testSession(t)
	assert.Empty(t, ChainDiff(s.Snapshot(), s.Snapshot()))
}

func TestApply_CommitWithMetrics(t *testing.T) {
	m := metrics.New("filter")
	s := table.New("filter", chains.Config{BucketLen: 2}, table.WithObserver(m))
	require.NoError(t, s.Load([]*chains.Chain{
		{Name: "INPUT", Kind: chains.KindBuiltin, Hook: chains.HookInput, Policy: chains.PolicyAccept},
		{Name: "a"}, {Name: "b"}, {Name: "c"},
	}))

	var committed []table.Change
	w := table.WriterFunc(func(_ context.Context, _ string, changes []table.Change) error {
		committed = changes
		return nil
	})

	ops, err := ParseScript(strings.NewReader("delete c\ncreate d\n"))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, Apply(context.Background(), &out, s, w, ops, false, m))
	require.Len(t, committed, 2)
	assert.False(t, s.Dirty())

	text := out.String()
	assert.Contains(t, text, "deleted c (index shrunk)")
	assert.Contains(t, text, "committed")
	assert.Contains(t, text, `chainreg_index_slots{table="filter"} 1`)
	assert.Contains(t, text, `chainreg_index_rebuilds_total{reason="load",table="filter"} 1`)
}

func TestApply_DryRun(t *testing.T) {
	s := testSession(t)
	w := table.WriterFunc(func(context.Context, string, []table.Change) error {
		t.Fatal("dry run must not commit")
		return nil
	})

	ops, err := ParseScript(strings.NewReader("create dmz\n"))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, Apply(context.Background(), &out, s, w, ops, true, nil))
	assert.Contains(t, out.String(), "+dmz user")
	assert.Contains(t, out.String(), "[DRY RUN] 1 change(s) not committed")
	assert.NotContains(t, out.String(), "chainreg_")
	assert.True(t, s.Dirty())
}
