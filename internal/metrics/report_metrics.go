package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ReportMetrics содержит метрики слоя отчётности по клиентам.
type ReportMetrics struct {
	// Счётчик построенных снимков рейтинга
	snapshotsTotal prometheus.Counter

	// Гистограмма времени построения снимка
	snapshotDuration prometheus.Histogram

	// Gauge размера последнего снимка
	lastSnapshotSize prometheus.Gauge

	// Счётчики доменных событий
	customersRegistered prometheus.Counter
	orders              *prometheus.CounterVec
}

// NewReportMetrics создаёт новый экземпляр метрик отчётности.
func NewReportMetrics() *ReportMetrics {
	return newReportMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newReportMetricsWithRegisterer(registerer prometheus.Registerer) *ReportMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &ReportMetrics{
		snapshotsTotal: registerCounter(registerer, prometheus.CounterOpts{
			Name: "crm_leaderboard_snapshots_total",
			Help: "Total number of leaderboard snapshots produced",
		}),
		snapshotDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "crm_leaderboard_snapshot_duration_seconds",
			Help:    "Duration of leaderboard snapshot production in seconds",
			Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		}),
		lastSnapshotSize: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "crm_leaderboard_last_snapshot_size",
			Help: "Number of entries in the last leaderboard snapshot",
		}),
		customersRegistered: registerCounter(registerer, prometheus.CounterOpts{
			Name: "crm_customers_registered_total",
			Help: "Total number of customer registrations observed",
		}),
		orders: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "crm_orders_total",
			Help: "Total number of order submissions by result",
		}, []string{"result"}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

// RecordSnapshot записывает факт построения снимка рейтинга.
func (m *ReportMetrics) RecordSnapshot(entries int, duration time.Duration) {
	m.snapshotsTotal.Inc()
	m.snapshotDuration.Observe(duration.Seconds())
	m.lastSnapshotSize.Set(float64(entries))
}

// RecordCustomerRegistered увеличивает счётчик регистраций клиентов.
func (m *ReportMetrics) RecordCustomerRegistered() {
	m.customersRegistered.Inc()
}

// RecordOrderAdded увеличивает счётчик успешно добавленных покупок.
func (m *ReportMetrics) RecordOrderAdded() {
	m.orders.WithLabelValues("added").Inc()
}

// RecordOrderRejected увеличивает счётчик отклонённых покупок.
func (m *ReportMetrics) RecordOrderRejected() {
	m.orders.WithLabelValues("rejected").Inc()
}
