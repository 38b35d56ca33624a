package cmd

import (
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"time"

	"grimm.is/chainreg/internal/chains"
	"grimm.is/chainreg/internal/clock"
	"grimm.is/chainreg/internal/logging"
	"grimm.is/chainreg/internal/metrics"
)

// BenchOptions controls the synthetic workload.
type BenchOptions struct {
	Chains    int
	BucketLen int
	Threshold int
	Seed      uint64
	Trace     bool
	Metrics   bool
}

// BenchResult summarizes one run.
type BenchResult struct {
	Insert, Lookup, Delete time.Duration
	Outcomes               map[chains.DeleteResult]int
	Stats                  chains.Stats
	TraceEntries           int
}

// RunBench runs the workload and prints the report to stdout.
func RunBench(opts BenchOptions) error {
	_, err := Bench(os.Stdout, opts, clock.System)
	return err
}

// Bench inserts opts.Chains user chains in random order, looks every one up
// (plus as many misses), deletes half of them and verifies the registry.
func Bench(w io.Writer, opts BenchOptions, clk clock.Clock) (BenchResult, error) {
	if opts.Chains < 1 {
		return BenchResult{}, fmt.Errorf("chain count must be positive")
	}
	cfg := chains.Config{BucketLen: opts.BucketLen, RebuildThreshold: opts.Threshold}
	if err := cfg.Validate(); err != nil {
		return BenchResult{}, err
	}

	var trace *logging.TraceBuffer
	logger := logging.Discard()
	if opts.Trace {
		trace = logging.NewTraceBuffer(4096)
		logger = logging.New(logging.Config{Level: logging.LevelDebug, Output: io.Discard, Trace: trace})
	}
	m := metrics.New("bench")
	reg := chains.New(cfg, chains.WithLogger(logger), chains.WithObserver(m))

	if err := reg.Load([]*chains.Chain{
		{Name: "INPUT", Kind: chains.KindBuiltin, Hook: chains.HookInput, Policy: chains.PolicyAccept},
		{Name: "FORWARD", Kind: chains.KindBuiltin, Hook: chains.HookForward, Policy: chains.PolicyAccept},
		{Name: "OUTPUT", Kind: chains.KindBuiltin, Hook: chains.HookOutput, Policy: chains.PolicyAccept},
	}); err != nil {
		return BenchResult{}, err
	}
	if trace != nil {
		// Only the workload is traced.
		trace.Clear()
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed+1))
	names := make([]string, opts.Chains)
	for i, p := range rng.Perm(opts.Chains) {
		names[i] = fmt.Sprintf("chain-%07d", p*2)
	}

	res := BenchResult{Outcomes: make(map[chains.DeleteResult]int)}

	start := clk.Now()
	for _, name := range names {
		if _, err := reg.Create(name); err != nil {
			return res, err
		}
	}
	res.Insert = clk.Since(start)

	start = clk.Now()
	for i, name := range names {
		if _, ok := reg.Find(name); !ok {
			return res, fmt.Errorf("chain %s lost after insert", name)
		}
		if _, ok := reg.Find(fmt.Sprintf("chain-%07d", i*2+1)); ok {
			return res, fmt.Errorf("found chain that was never created")
		}
	}
	res.Lookup = clk.Since(start)

	start = clk.Now()
	for _, name := range names[:len(names)/2] {
		res.Outcomes[reg.Delete(name)]++
	}
	res.Delete = clk.Since(start)

	if err := reg.Check(); err != nil {
		return res, err
	}
	res.Stats = reg.Stats()
	var indexTrace []logging.TraceEntry
	if trace != nil {
		res.TraceEntries = trace.Count()
		indexTrace = trace.GetBySource("chainindex", 0)
	}

	p := Printer
	p.Fprintf(w, "%s\n", StyleTitle.Render("chain index bench"))
	p.Fprintf(w, "chains %d, bucket %d, threshold %d\n", opts.Chains, reg.Config().BucketLen, reg.Config().RebuildThreshold)
	p.Fprintf(w, "insert  %v\nlookup  %v\ndelete  %v\n", res.Insert, res.Lookup, res.Delete)
	for _, d := range []chains.DeleteResult{chains.DeleteUnindexed, chains.DeleteRepointed, chains.DeleteShrunk, chains.DeleteRebuilt} {
		p.Fprintf(w, "delete %-10s %d\n", d.String(), res.Outcomes[d])
	}
	p.Fprintf(w, "rebuilds %d, repoints %d, slots %d, user chains %d\n",
		res.Stats.Rebuilds, res.Stats.Repoints, res.Stats.IndexSlots, res.Stats.UserChains)

	if opts.Metrics {
		fmt.Fprintln(w)
		if err := m.Dump(w); err != nil {
			return res, err
		}
	}
	if trace != nil {
		p.Fprintf(w, "\n%d trace entries, %d from the index, last:\n", res.TraceEntries, len(indexTrace))
		for _, e := range indexTrace[max(0, len(indexTrace)-5):] {
			fmt.Fprintf(w, "  [%s] %s: %s\n", e.Level, e.Source, e.Message)
		}
	}
	return res, nil
}
