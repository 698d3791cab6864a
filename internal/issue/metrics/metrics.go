// Package metrics exposes issue-domain counters. A nil *Metrics is a valid
// no-op receiver so tests and tools can run without a registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	issuesCreated prometheus.Counter
	votesCast     *prometheus.CounterVec
	reportsFiled  prometheus.Counter
	statusChanges *prometheus.CounterVec
	issuesDeleted *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		issuesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "issues_created_total",
			Help: "Issues submitted.",
		}),
		votesCast: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "issue_votes_total",
			Help: "Vote operations by direction and effect.",
		}, []string{"kind", "effect"}),
		reportsFiled: factory.NewCounter(prometheus.CounterOpts{
			Name: "issue_reports_total",
			Help: "Moderation reports filed against issues.",
		}),
		statusChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "issue_status_changes_total",
			Help: "Status transitions by target status.",
		}, []string{"status"}),
		issuesDeleted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "issues_deleted_total",
			Help: "Issue deletions by cause.",
		}, []string{"cause"}),
	}
}

func (m *Metrics) IncrementCreated() {
	if m == nil {
		return
	}
	m.issuesCreated.Inc()
}

func (m *Metrics) IncrementVote(kind, effect string) {
	if m == nil {
		return
	}
	m.votesCast.WithLabelValues(kind, effect).Inc()
}

func (m *Metrics) IncrementReport() {
	if m == nil {
		return
	}
	m.reportsFiled.Inc()
}

func (m *Metrics) IncrementStatusChange(status string) {
	if m == nil {
		return
	}
	m.statusChanges.WithLabelValues(status).Inc()
}

func (m *Metrics) IncrementDeleted(cause string) {
	if m == nil {
		return
	}
	m.issuesDeleted.WithLabelValues(cause).Inc()
}
