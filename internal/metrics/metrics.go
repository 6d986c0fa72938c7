/*
file: valkeygo/internal/metrics/metrics.go

Per-command statistics (spec.md §7's "calls, failed_calls, rejected_calls,
microseconds" counters, surfaced via INFO commandstats).
The teacher has no equivalent instrumentation at all; this package is
grounded on the prometheus/client_golang stack multiple repos in the
retrieval pack (AKJUS-bsc-erigon, ClusterCockpit-cc-backend) depend on
directly, used here in its canonical CounterVec/HistogramVec shape against
a private, unregistered-to-any-HTTP-handler prometheus.Registry — spec.md
names no metrics HTTP endpoint, so the registry exists purely as the
counting engine behind INFO commandstats, not as a scrape target.
*/
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome classifies one command dispatch, matching spec.md §7's
// calls/failed_calls/rejected_calls split: "calls" is a dispatch that
// returned a non-error reply, "failed" is an execution-time error reply,
// "rejected" is a dispatch refused before running (ACL denial, arity error,
// OOM). Each outcome increments only its own counter, so Calls does not
// include failed or rejected dispatches.
type Outcome int

const (
	Calls Outcome = iota
	Failed
	Rejected
)

func (o Outcome) label() string {
	switch o {
	case Failed:
		return "failed"
	case Rejected:
		return "rejected"
	default:
		return "calls"
	}
}

// CommandStats is one command's cumulative counters, shaped for direct
// serialization into INFO commandstats replies.
type CommandStats struct {
	Calls         uint64
	FailedCalls   uint64
	RejectedCalls uint64
	UsecTotal     uint64
}

func (s CommandStats) UsecPerCall() float64 {
	if s.Calls == 0 {
		return 0
	}
	return float64(s.UsecTotal) / float64(s.Calls)
}

// Registry owns the prometheus counters/histogram plus a plain map kept in
// lockstep for cheap exact-count serialization (prometheus's own internal
// representation isn't meant to be walked metric-by-metric on every INFO
// call).
type Registry struct {
	promRegistry *prometheus.Registry
	callsTotal   *prometheus.CounterVec
	duration     *prometheus.HistogramVec

	mu      sync.Mutex
	perCmd  map[string]*CommandStats
}

func New() *Registry {
	r := &Registry{
		promRegistry: prometheus.NewRegistry(),
		callsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "valkeygo",
			Name:      "commands_total",
			Help:      "Total commands dispatched, labeled by command and outcome.",
		}, []string{"command", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "valkeygo",
			Name:      "command_duration_seconds",
			Help:      "Command execution latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"command"}),
		perCmd: make(map[string]*CommandStats),
	}
	r.promRegistry.MustRegister(r.callsTotal, r.duration)
	return r
}

// Observe records one command dispatch's outcome and wall-clock duration.
func (r *Registry) Observe(command string, outcome Outcome, elapsed time.Duration) {
	r.callsTotal.WithLabelValues(command, outcome.label()).Inc()
	r.duration.WithLabelValues(command).Observe(elapsed.Seconds())

	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.perCmd[command]
	if !ok {
		s = &CommandStats{}
		r.perCmd[command] = s
	}
	switch outcome {
	case Failed:
		s.FailedCalls++
	case Rejected:
		s.RejectedCalls++
	default:
		s.Calls++
	}
	s.UsecTotal += uint64(elapsed.Microseconds())
}

// Snapshot returns a copy of every command's current stats, for INFO
// commandstats.
func (r *Registry) Snapshot() map[string]CommandStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]CommandStats, len(r.perCmd))
	for k, v := range r.perCmd {
		out[k] = *v
	}
	return out
}

// Reset clears every counter, for CONFIG RESETSTAT.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.perCmd = make(map[string]*CommandStats)
	r.callsTotal.Reset()
}
