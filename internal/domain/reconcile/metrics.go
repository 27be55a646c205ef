package reconcile

import (
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"equilibria/internal/domain/record"
)

// Исходы попытки синхронизации
const (
	OutcomeSynced       = "synced"
	OutcomeFailed       = "failed"
	OutcomeRejected     = "rejected"
	OutcomeNoCredential = "no_credential"
	OutcomeExhausted    = "exhausted"
)

const (
	metricsNamespace = "equilibria"
	metricsSubsystem = "sync"
)

// Metrics - счётчики локальных записей и попыток синхронизации
type Metrics struct {
	stored   *prometheus.CounterVec
	attempts *prometheus.CounterVec
	pending  *prometheus.GaugeVec
	latency  *prometheus.HistogramVec
}

// NewMetrics создаёт и регистрирует метрики. nil-регистратор допустим.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		stored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "records_stored_total",
			Help:      "Number of records durably stored locally.",
		}, []string{"stream"}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "attempts_total",
			Help:      "Number of sync attempts grouped by stream and outcome.",
		}, []string{"stream", "outcome"}),
		pending: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "pending_records",
			Help:      "Number of unsynced records per stream seen by the last drain.",
		}, []string{"stream"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "gateway_duration_seconds",
			Help:      "Duration of gateway calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stream"}),
	}

	if reg != nil {
		reg.MustRegister(m.stored, m.attempts, m.pending, m.latency)
	}
	return m
}

func (m *Metrics) recordStored(stream record.Stream) {
	if m == nil {
		return
	}
	m.stored.WithLabelValues(stream.String()).Inc()
}

func (m *Metrics) recordAttempt(stream record.Stream, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(stream.String(), outcome).Inc()
	if outcome != OutcomeNoCredential && outcome != OutcomeExhausted {
		m.latency.WithLabelValues(stream.String()).Observe(seconds)
	}
}

func (m *Metrics) setPending(stream record.Stream, n int) {
	if m == nil {
		return
	}
	m.pending.WithLabelValues(stream.String()).Set(float64(n))
}

// Sample - одно значение счётчика попыток
type Sample struct {
	Stream  string  `json:"stream"`
	Outcome string  `json:"outcome"`
	Value   float64 `json:"value"`
}

// AttemptSamples собирает значения счётчика попыток из gatherer
func AttemptSamples(g prometheus.Gatherer) ([]Sample, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, err
	}

	want := prometheus.BuildFQName(metricsNamespace, metricsSubsystem, "attempts_total")
	var out []Sample
	for _, mf := range families {
		if mf.GetName() != want || mf.GetType() != dto.MetricType_COUNTER {
			continue
		}
		for _, metric := range mf.GetMetric() {
			s := Sample{Value: metric.GetCounter().GetValue()}
			for _, lp := range metric.GetLabel() {
				switch lp.GetName() {
				case "stream":
					s.Stream = lp.GetValue()
				case "outcome":
					s.Outcome = lp.GetValue()
				}
			}
			out = append(out, s)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Stream != out[j].Stream {
			return out[i].Stream < out[j].Stream
		}
		return out[i].Outcome < out[j].Outcome
	})
	return out, nil
}
