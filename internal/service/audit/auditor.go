package audit

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/crm/internal/domain"
)

const defaultCheckInterval = time.Minute

var (
	auditRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crm_audit_runs_total",
		Help: "Total number of roster audit runs grouped by result.",
	}, []string{"result"})
	auditLastViolations = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crm_audit_last_violations",
		Help: "Number of invariant violations found by the last audit run.",
	})
	auditCustomersChecked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crm_audit_customers_checked_total",
		Help: "Total number of customers checked by roster audits.",
	})
)

// Status представляет итог проверки реестра.
type Status string

const (
	StatusOK       Status = "ok"
	StatusMismatch Status = "mismatch"
)

// Finding описывает нарушения инвариантов у одного клиента.
type Finding struct {
	CustomerID string   `json:"customer_id"`
	Name       string   `json:"name"`
	Violations []string `json:"violations"`
}

// Report представляет результат одного прохода аудита.
type Report struct {
	Status     Status    `json:"status"`
	CheckedAt  time.Time `json:"checked_at"`
	Customers  int       `json:"customers"`
	Findings   []Finding `json:"findings,omitempty"`
	DurationMs int64     `json:"duration_ms"`
}

// Auditable — проверяемый элемент реестра.
type Auditable interface {
	ID() string
	Name() string
	ValidateInvariants() []error
}

var _ Auditable = (*domain.Customer)(nil)

// Source отдаёт снимок элементов реестра для проверки.
type Source func() []Auditable

// BusinessSource адаптирует реестр бизнеса в источник для аудита.
func BusinessSource(b *domain.Business) Source {
	return func() []Auditable {
		customers := b.Customers()
		items := make([]Auditable, 0, len(customers))
		for _, customer := range customers {
			items = append(items, customer)
		}
		return items
	}
}

// AuditorOptions задаёт параметры аудитора.
type AuditorOptions struct {
	Logger   *log.Entry
	Interval time.Duration
}

// AuditorOption настраивает Auditor.
type AuditorOption func(*AuditorOptions)

// WithLogger задаёт logger для аудитора.
func WithLogger(logger *log.Entry) AuditorOption {
	return func(opts *AuditorOptions) {
		opts.Logger = logger
	}
}

// WithInterval задаёт период проверок.
func WithInterval(interval time.Duration) AuditorOption {
	return func(opts *AuditorOptions) {
		opts.Interval = interval
	}
}

// Auditor периодически сверяет накопленные итоги клиентов с их историями
// покупок. Расхождение означает повреждение состояния, а не ошибку вызова,
// поэтому результат публикуется в метриках и журнале, без остановки работы.
type Auditor struct {
	source   Source
	logger   *log.Entry
	interval time.Duration
}

// NewAuditor создаёт аудитор реестра.
func NewAuditor(source Source, options ...AuditorOption) *Auditor {
	opts := AuditorOptions{
		Interval: defaultCheckInterval,
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "roster-auditor")
	}

	if opts.Interval <= 0 {
		opts.Interval = defaultCheckInterval
	}

	return &Auditor{
		source:   source,
		logger:   logger,
		interval: opts.Interval,
	}
}

// Run запускает периодический аудит до отмены ctx.
func (a *Auditor) Run(ctx context.Context) {
	if a.source == nil {
		a.logger.Warn("roster auditor is disabled: source is nil")
		return
	}

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	a.checkAndLog(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.checkAndLog(ctx)
		}
	}
}

func (a *Auditor) checkAndLog(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	report := a.CheckOnce(ctx)
	if report.Status == StatusMismatch {
		a.logger.WithFields(log.Fields{
			"customers": report.Customers,
			"findings":  len(report.Findings),
		}).Error("roster audit found invariant violations")
		return
	}

	a.logger.WithField("customers", report.Customers).Debug("roster audit completed")
}

// CheckOnce выполняет один проход аудита по снимку реестра.
func (a *Auditor) CheckOnce(ctx context.Context) Report {
	started := time.Now()

	report := Report{
		Status:    StatusOK,
		CheckedAt: started.UTC(),
	}

	violations := 0
	for _, item := range a.source() {
		if ctx.Err() != nil {
			break
		}

		report.Customers++
		errs := item.ValidateInvariants()
		if len(errs) == 0 {
			continue
		}

		finding := Finding{
			CustomerID: item.ID(),
			Name:       item.Name(),
			Violations: make([]string, 0, len(errs)),
		}
		for _, err := range errs {
			finding.Violations = append(finding.Violations, err.Error())
		}
		report.Findings = append(report.Findings, finding)
		violations += len(errs)
	}

	report.DurationMs = time.Since(started).Milliseconds()
	if len(report.Findings) > 0 {
		report.Status = StatusMismatch
	}

	auditCustomersChecked.Add(float64(report.Customers))
	auditLastViolations.Set(float64(violations))
	if report.Status == StatusOK {
		auditRuns.WithLabelValues("ok").Inc()
	} else {
		auditRuns.WithLabelValues("mismatch").Inc()
	}

	return report
}
