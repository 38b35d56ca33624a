// Package metrics exposes chain index maintenance as Prometheus metrics.
package metrics

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"

	"grimm.is/chainreg/internal/chains"
)

// Registry holds the metrics of one chain registry. It implements
// chains.Observer.
type Registry struct {
	reg *prometheus.Registry

	// Index maintenance
	Rebuilds       *prometheus.CounterVec
	RebuildFailure *prometheus.CounterVec
	Repoints       prometheus.Counter
	IndexSlots     prometheus.Gauge

	// Lookups
	Lookups     *prometheus.CounterVec
	LookupSteps prometheus.Histogram
}

var _ chains.Observer = (*Registry)(nil)

// New creates a metrics registry whose series carry a table label.
func New(table string) *Registry {
	r := &Registry{reg: prometheus.NewRegistry()}
	factory := promauto.With(r.reg)
	constLabels := prometheus.Labels{"table": table}

	r.Rebuilds = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace:   "chainreg",
		Subsystem:   "index",
		Name:        "rebuilds_total",
		Help:        "Full chain index rebuilds by trigger",
		ConstLabels: constLabels,
	}, []string{"reason"})

	r.RebuildFailure = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace:   "chainreg",
		Subsystem:   "index",
		Name:        "rebuild_failures_total",
		Help:        "Rebuilds that left the index empty",
		ConstLabels: constLabels,
	}, []string{"reason"})

	r.Repoints = factory.NewCounter(prometheus.CounterOpts{
		Namespace:   "chainreg",
		Subsystem:   "index",
		Name:        "repoints_total",
		Help:        "Index slots moved to a successor instead of rebuilding",
		ConstLabels: constLabels,
	})

	r.IndexSlots = factory.NewGauge(prometheus.GaugeOpts{
		Namespace:   "chainreg",
		Subsystem:   "index",
		Name:        "slots",
		Help:        "Current number of index slots",
		ConstLabels: constLabels,
	})

	r.Lookups = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace:   "chainreg",
		Name:        "lookups_total",
		Help:        "Chain lookups by result",
		ConstLabels: constLabels,
	}, []string{"result"})

	r.LookupSteps = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace:   "chainreg",
		Name:        "lookup_steps",
		Help:        "Chain name comparisons spent walking a bucket",
		ConstLabels: constLabels,
		Buckets:     []float64{1, 2, 5, 10, 20, 40, 80, 160, 400, 1000},
	})

	return r
}

// Gatherer returns the underlying registry, e.g. for promhttp.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// IndexRebuilt implements chains.Observer.
func (r *Registry) IndexRebuilt(reason chains.RebuildReason, slots int, err error) {
	r.Rebuilds.WithLabelValues(string(reason)).Inc()
	if err != nil {
		r.RebuildFailure.WithLabelValues(string(reason)).Inc()
	}
	r.IndexSlots.Set(float64(slots))
}

// IndexRepointed implements chains.Observer.
func (r *Registry) IndexRepointed(slot int) {
	r.Repoints.Inc()
}

// IndexShrunk implements chains.Observer.
func (r *Registry) IndexShrunk(slots int) {
	r.IndexSlots.Set(float64(slots))
}

// ChainLookup implements chains.Observer.
func (r *Registry) ChainLookup(found bool, steps int) {
	r.Lookups.WithLabelValues(lookupResult(found)).Inc()
	r.LookupSteps.Observe(float64(steps))
}

func lookupResult(found bool) string {
	if found {
		return "hit"
	}
	return "miss"
}

// Dump writes every series in the Prometheus text exposition format.
func (r *Registry) Dump(w io.Writer) error {
	families, err := r.reg.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("failed to encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
