package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the registry module. Counters are
// labeled by the dimension operators actually page on: whether mints enter
// the dispute pipeline, which way votes go, and how disputes resolve.
type Metrics struct {
	CertificatesMinted *prometheus.CounterVec
	VotesCast          *prometheus.CounterVec
	Finalizations      *prometheus.CounterVec
	VerifyDuration     prometheus.Histogram
	VerifyCacheHits    prometheus.Counter
	VerifyCacheMisses  prometheus.Counter
}

// New creates a Metrics instance with all registry metrics registered.
func New() *Metrics {
	return &Metrics{
		CertificatesMinted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "watsonmark_certificates_minted_total",
			Help: "Total certificates minted, by initial status",
		}, []string{"status"}),
		VotesCast: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "watsonmark_votes_cast_total",
			Help: "Total dispute votes cast, by direction",
		}, []string{"direction"}),
		Finalizations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "watsonmark_finalizations_total",
			Help: "Total dispute finalizations, by outcome",
		}, []string{"outcome"}),
		VerifyDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "watsonmark_verify_duration_seconds",
			Help:    "Duration of watermark verification lookups",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		VerifyCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "watsonmark_verify_cache_hits_total",
			Help: "Verification lookups served from cache",
		}),
		VerifyCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "watsonmark_verify_cache_misses_total",
			Help: "Verification lookups that fell through to the store",
		}),
	}
}

// IncrementMinted records a successful mint with its initial status.
func (m *Metrics) IncrementMinted(status string) {
	m.CertificatesMinted.WithLabelValues(status).Inc()
}

// IncrementVote records a cast vote by direction.
func (m *Metrics) IncrementVote(approve bool) {
	direction := "down"
	if approve {
		direction = "up"
	}
	m.VotesCast.WithLabelValues(direction).Inc()
}

// IncrementFinalization records a finalization outcome.
func (m *Metrics) IncrementFinalization(outcome string) {
	m.Finalizations.WithLabelValues(outcome).Inc()
}

// ObserveVerify records the duration of a verification lookup.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveVerify(start time.Time) {
	m.VerifyDuration.Observe(time.Since(start).Seconds())
}
