package leaderboard

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/crm/internal/domain"
	"github.com/vladislavdragonenkov/crm/internal/metrics"
)

const (
	defaultSnapshotInterval = 30 * time.Second
	defaultLimit            = 10
)

var leaderboardRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "crm_leaderboard_runs_total",
	Help: "Total number of leaderboard snapshot runs grouped by result.",
}, []string{"result"})

// Entry представляет одну строку снимка рейтинга клиентов.
type Entry struct {
	Position   int
	CustomerID string
	Name       string
	Location   string
	Orders     int
	TotalSpent decimal.Decimal
}

// Sink получает готовый снимок рейтинга. Формат представления
// остаётся за получателем.
type Sink func(ctx context.Context, entries []Entry) error

// WorkerOptions задаёт параметры воркера рейтинга.
type WorkerOptions struct {
	Logger   *log.Entry
	Interval time.Duration
	Limit    int
	Metrics  *metrics.ReportMetrics
}

// Option настраивает Worker.
type Option func(*WorkerOptions)

// WithLogger задаёт logger для воркера.
func WithLogger(logger *log.Entry) Option {
	return func(opts *WorkerOptions) {
		opts.Logger = logger
	}
}

// WithInterval задаёт период построения снимков.
func WithInterval(interval time.Duration) Option {
	return func(opts *WorkerOptions) {
		opts.Interval = interval
	}
}

// WithLimit задаёт число позиций в снимке.
func WithLimit(limit int) Option {
	return func(opts *WorkerOptions) {
		opts.Limit = limit
	}
}

// WithMetrics задаёт метрики отчётности.
func WithMetrics(m *metrics.ReportMetrics) Option {
	return func(opts *WorkerOptions) {
		opts.Metrics = m
	}
}

// Worker периодически строит снимок топ-клиентов бизнеса и передаёт его
// получателю. Бизнес хранит разделяемые ссылки на клиентов, поэтому каждый
// снимок отражает текущее состояние реестра.
type Worker struct {
	business *domain.Business
	sink     Sink
	logger   *log.Entry
	interval time.Duration
	limit    int
	metrics  *metrics.ReportMetrics
}

// NewWorker создаёт воркер рейтинга.
func NewWorker(business *domain.Business, sink Sink, options ...Option) *Worker {
	opts := WorkerOptions{
		Interval: defaultSnapshotInterval,
		Limit:    defaultLimit,
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "leaderboard-worker")
	}

	if opts.Interval <= 0 {
		opts.Interval = defaultSnapshotInterval
	}
	if opts.Limit <= 0 {
		opts.Limit = defaultLimit
	}

	return &Worker{
		business: business,
		sink:     sink,
		logger:   logger,
		interval: opts.Interval,
		limit:    opts.Limit,
		metrics:  opts.Metrics,
	}
}

// Run запускает периодическое построение снимков до отмены ctx.
// Первый снимок строится сразу, не дожидаясь тика.
func (w *Worker) Run(ctx context.Context) {
	if w.business == nil || w.sink == nil {
		w.logger.Warn("leaderboard worker is disabled: business or sink is nil")
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.snapshotAndLog(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.snapshotAndLog(ctx)
		}
	}
}

func (w *Worker) snapshotAndLog(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	if _, err := w.SnapshotOnce(ctx); err != nil {
		w.logger.WithError(err).Warn("failed to produce leaderboard snapshot")
	}
}

// SnapshotOnce строит один снимок рейтинга и передаёт его получателю.
func (w *Worker) SnapshotOnce(ctx context.Context) ([]Entry, error) {
	started := time.Now()

	top, err := w.business.TopNCustomers(w.limit)
	if err != nil {
		leaderboardRuns.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("rank customers: %w", err)
	}

	entries := make([]Entry, 0, len(top))
	for i, customer := range top {
		entries = append(entries, Entry{
			Position:   i + 1,
			CustomerID: customer.ID(),
			Name:       customer.Name(),
			Location:   customer.Location(),
			Orders:     customer.OrderCount(),
			TotalSpent: customer.TotalSpent(),
		})
	}

	if err := w.sink(ctx, entries); err != nil {
		leaderboardRuns.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("deliver leaderboard snapshot: %w", err)
	}

	leaderboardRuns.WithLabelValues("ok").Inc()
	if w.metrics != nil {
		w.metrics.RecordSnapshot(len(entries), time.Since(started))
	}

	return entries, nil
}
