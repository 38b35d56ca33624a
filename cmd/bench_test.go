package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/chainreg/internal/chains"
	"grimm.is/chainreg/internal/clock"
)

func TestBench(t *testing.T) {
	var buf bytes.Buffer
	clk := clock.NewManual(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), time.Millisecond)

	res, err := Bench(&buf, BenchOptions{
		Chains:    2000,
		BucketLen: 8,
		Threshold: 50,
		Seed:      3,
		Trace:     true,
		Metrics:   true,
	}, clk)
	require.NoError(t, err)

	assert.Equal(t, 1000, res.Stats.UserChains)
	assert.Equal(t, 3, res.Stats.Builtins)
	assert.Positive(t, res.Stats.Rebuilds)

	deleted := 0
	for _, n := range res.Outcomes {
		deleted += n
	}
	assert.Equal(t, 1000, deleted)
	assert.Zero(t, res.Outcomes[chains.DeleteNotFound])
	assert.Positive(t, res.TraceEntries)

	out := buf.String()
	assert.Contains(t, out, "chain index bench")
	assert.Contains(t, out, "chainreg_index_rebuilds_total")
	assert.Contains(t, out, "trace entries")
	assert.Contains(t, out, "] chainindex: ")
	assert.Contains(t, out, `chainreg_lookup_steps_bucket{table="bench",le="+Inf"} 4000`)
}

func TestBench_InvalidOptions(t *testing.T) {
	var buf bytes.Buffer
	_, err := Bench(&buf, BenchOptions{Chains: 0, BucketLen: 40}, clock.System)
	assert.Error(t, err)

	_, err = Bench(&buf, BenchOptions{Chains: 10, BucketLen: 0}, clock.System)
	assert.Error(t, err)
}
