package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/crm/internal/domain"
	"github.com/vladislavdragonenkov/crm/internal/metrics"
	"github.com/vladislavdragonenkov/crm/internal/service/audit"
	"github.com/vladislavdragonenkov/crm/internal/service/leaderboard"
	"github.com/vladislavdragonenkov/crm/internal/version"
)

const churnInterval = 250 * time.Millisecond

var (
	customerNames = []string{
		"Alice", "Bob", "Carol", "Dave", "Erin", "Frank", "Grace", "Heidi",
		"Ivan", "Judy", "Mallory", "Niaj", "Olivia", "Peggy", "Rupert",
		"Sybil", "Trent", "Victor", "Walter", "Wendy",
	}
	locations = []string{"Austin", "Boston", "Chicago", "Denver", "Portland", "Seattle", ""}
	catalog   = []struct {
		item string
		cost string
	}{
		{item: "sweater", cost: "24.99"},
		{item: "jeans", cost: "39.90"},
		{item: "boots", cost: "80.00"},
		{item: "hat", cost: "12.50"},
		{item: "socks", cost: "5.50"},
		{item: "scarf", cost: "15.75"},
		{item: "jacket", cost: "120.00"},
		{item: "belt", cost: "18.25"},
		{item: "gloves", cost: "9.99"},
		{item: "shirt", cost: "22.40"},
	}
)

type config struct {
	businessName string
	businessType string
	city         string
	customers    int
	maxOrders    int
	top          int
	interval     time.Duration
	duration     time.Duration
	seed         int64
	outputPath   string
	logLevel     log.Level
}

type businessInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
	City string `json:"city"`
}

type reportEntry struct {
	Position   int    `json:"position"`
	CustomerID string `json:"customer_id"`
	Name       string `json:"name"`
	Location   string `json:"location,omitempty"`
	Orders     int    `json:"orders"`
	TotalSpent string `json:"total_spent"`
}

type demoReport struct {
	StartedAt       time.Time     `json:"started_at"`
	DurationSeconds float64       `json:"duration_seconds"`
	Business        businessInfo  `json:"business"`
	Customers       int           `json:"customers"`
	Leaderboard     []reportEntry `json:"leaderboard"`
	Audit           audit.Report  `json:"audit"`
}

func parseConfig() (config, error) {
	var cfg config
	var intervalValue string
	var durationValue string
	var logLevelValue string

	flag.StringVar(&cfg.businessName, "business-name", "Book Nook", "business display name")
	flag.StringVar(&cfg.businessType, "business-type", "retail", "business type label")
	flag.StringVar(&cfg.city, "city", "Austin", "business city label")
	flag.IntVar(&cfg.customers, "customers", 12, "number of customers to generate")
	flag.IntVar(&cfg.maxOrders, "max-orders", 6, "maximum generated orders per customer")
	flag.IntVar(&cfg.top, "top", 5, "number of leaderboard positions")
	flag.StringVar(&intervalValue, "interval", "2s", "leaderboard snapshot period")
	flag.StringVar(&durationValue, "duration", "10s", "demo runtime; 0 prints a single snapshot and exits")
	flag.Int64Var(&cfg.seed, "seed", 0, "PRNG seed; 0 derives the seed from the current time")
	flag.StringVar(&cfg.outputPath, "report", "", "optional JSON report output file path")
	flag.StringVar(&logLevelValue, "log-level", "info", "log level: debug | info | warn | error")
	flag.Parse()

	interval, err := time.ParseDuration(strings.TrimSpace(intervalValue))
	if err != nil {
		return cfg, fmt.Errorf("parse interval: %w", err)
	}
	cfg.interval = interval

	duration, err := time.ParseDuration(strings.TrimSpace(durationValue))
	if err != nil {
		return cfg, fmt.Errorf("parse duration: %w", err)
	}
	cfg.duration = duration

	level, err := log.ParseLevel(strings.TrimSpace(logLevelValue))
	if err != nil {
		return cfg, fmt.Errorf("parse log-level: %w", err)
	}
	cfg.logLevel = level

	if err := cfg.validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func (c config) validate() error {
	if strings.TrimSpace(c.businessName) == "" {
		return errors.New("business-name is required")
	}
	if c.customers <= 0 {
		return errors.New("customers must be > 0")
	}
	if c.maxOrders < 0 {
		return errors.New("max-orders must be >= 0")
	}
	if c.top <= 0 {
		return errors.New("top must be > 0")
	}
	if c.interval <= 0 {
		return errors.New("interval must be > 0")
	}
	if c.duration < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}

// setupLogger настраивает формат и уровень логирования для демонстрации.
func setupLogger(level log.Level) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(level)
}

func main() {
	cfg, err := parseConfig()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	setupLogger(cfg.logLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(version.Fields()).Info("запускаем демонстрацию CRM")

	if err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("демонстрация завершилась с ошибкой")
	}

	log.Info("демонстрация CRM остановлена")
}

func run(ctx context.Context, cfg config) error {
	startedAt := time.Now()

	seed := cfg.seed
	if seed == 0 {
		seed = startedAt.UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	business, err := domain.NewBusiness(cfg.businessName, cfg.businessType, cfg.city, nil)
	if err != nil {
		return fmt.Errorf("create business: %w", err)
	}

	reportMetrics := metrics.NewReportMetrics()

	log.WithFields(log.Fields{
		"business":  cfg.businessName,
		"customers": cfg.customers,
		"seed":      seed,
	}).Info("заполняем реестр демонстрационными данными")

	if err := seedRoster(rng, business, cfg, reportMetrics); err != nil {
		return fmt.Errorf("seed roster: %w", err)
	}

	worker := leaderboard.NewWorker(business, printLeaderboard,
		leaderboard.WithLogger(log.WithField("component", "leaderboard-worker")),
		leaderboard.WithInterval(cfg.interval),
		leaderboard.WithLimit(cfg.top),
		leaderboard.WithMetrics(reportMetrics),
	)
	auditor := audit.NewAuditor(audit.BusinessSource(business),
		audit.WithLogger(log.WithField("component", "roster-auditor")),
		audit.WithInterval(cfg.interval),
	)

	if cfg.duration > 0 {
		runCtx, cancel := context.WithTimeout(ctx, cfg.duration)
		defer cancel()

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			worker.Run(runCtx)
		}()
		go func() {
			defer wg.Done()
			auditor.Run(runCtx)
		}()

		churn(runCtx, rng, business, reportMetrics)
		wg.Wait()
	}

	// Итоговый снимок и аудит выполняются после остановки фоновых циклов.
	finalEntries, err := worker.SnapshotOnce(context.Background())
	if err != nil {
		return fmt.Errorf("final leaderboard snapshot: %w", err)
	}
	auditReport := auditor.CheckOnce(context.Background())

	result := buildReport(startedAt, business, finalEntries, auditReport)
	printSummary(result)

	if cfg.outputPath != "" {
		if err := writeJSONReport(cfg.outputPath, result); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		log.WithField("path", cfg.outputPath).Info("отчёт сохранён")
	}

	return nil
}

// seedRoster заполняет реестр случайными клиентами и их покупками.
// Генератор допускает нулевое количество: такие покупки отклоняются
// валидацией и учитываются в счётчике отклонённых.
func seedRoster(rng *rand.Rand, business *domain.Business, cfg config, m *metrics.ReportMetrics) error {
	for i := 0; i < cfg.customers; i++ {
		name := customerNames[rng.Intn(len(customerNames))]
		location := locations[rng.Intn(len(locations))]

		customer, err := domain.NewCustomer(name, location, nil)
		if err != nil {
			return fmt.Errorf("create customer %q: %w", name, err)
		}

		orders := 0
		if cfg.maxOrders > 0 {
			orders = rng.Intn(cfg.maxOrders + 1)
		}
		for j := 0; j < orders; j++ {
			entry := catalog[rng.Intn(len(catalog))]
			qty := int32(rng.Intn(4))

			_, err := customer.AddOrder(entry.item, decimal.RequireFromString(entry.cost), qty)
			switch {
			case err == nil:
				if m != nil {
					m.RecordOrderAdded()
				}
			case domain.IsInvalidArgument(err):
				if m != nil {
					m.RecordOrderRejected()
				}
			default:
				return fmt.Errorf("add order for %q: %w", name, err)
			}
		}

		if err := business.AddCustomer(customer); err != nil {
			return fmt.Errorf("register customer %q: %w", name, err)
		}
		if m != nil {
			m.RecordCustomerRegistered()
		}
	}

	return nil
}

// churn добавляет покупки уже работающему реестру, чтобы последовательные
// снимки рейтинга отражали живые изменения.
func churn(ctx context.Context, rng *rand.Rand, business *domain.Business, m *metrics.ReportMetrics) {
	customers := business.Customers()
	if len(customers) == 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(churnInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			customer := customers[rng.Intn(len(customers))]
			entry := catalog[rng.Intn(len(catalog))]

			if _, err := customer.AddOrder(entry.item, decimal.RequireFromString(entry.cost), int32(rng.Intn(3)+1)); err != nil {
				log.WithError(err).WithField("customer", customer.Name()).Warn("не удалось добавить покупку")
				continue
			}
			if m != nil {
				m.RecordOrderAdded()
			}
		}
	}
}

func printLeaderboard(_ context.Context, entries []leaderboard.Entry) error {
	fmt.Println("Top customers by total spent")
	if len(entries) == 0 {
		fmt.Println("  (roster is empty)")
		return nil
	}

	for _, entry := range entries {
		location := entry.Location
		if location == "" {
			location = "-"
		}
		fmt.Printf("%3d. %-12s orders=%-3d total=%10s location=%s\n",
			entry.Position,
			entry.Name,
			entry.Orders,
			entry.TotalSpent.StringFixed(2),
			location,
		)
	}
	return nil
}

func buildReport(startedAt time.Time, business *domain.Business, entries []leaderboard.Entry, auditReport audit.Report) demoReport {
	result := demoReport{
		StartedAt:       startedAt.UTC(),
		DurationSeconds: time.Since(startedAt).Seconds(),
		Business: businessInfo{
			ID:   business.ID(),
			Name: business.Name(),
			Type: business.BusinessType(),
			City: business.City(),
		},
		Customers:   business.CustomerCount(),
		Leaderboard: make([]reportEntry, 0, len(entries)),
		Audit:       auditReport,
	}

	for _, entry := range entries {
		result.Leaderboard = append(result.Leaderboard, reportEntry{
			Position:   entry.Position,
			CustomerID: entry.CustomerID,
			Name:       entry.Name,
			Location:   entry.Location,
			Orders:     entry.Orders,
			TotalSpent: entry.TotalSpent.StringFixed(2),
		})
	}

	return result
}

func printSummary(result demoReport) {
	fmt.Println("CRM demo summary")
	fmt.Printf("business=%q type=%s city=%s customers=%d duration=%.2fs\n",
		result.Business.Name,
		result.Business.Type,
		result.Business.City,
		result.Customers,
		result.DurationSeconds,
	)
	fmt.Printf("audit: status=%s checked=%d findings=%d\n",
		result.Audit.Status,
		result.Audit.Customers,
		len(result.Audit.Findings),
	)
}

func writeJSONReport(path string, result demoReport) error {
	cleanPath := filepath.Clean(path)
	if cleanPath == "." || cleanPath == string(filepath.Separator) {
		return errors.New("report path must point to a file")
	}
	if cleanPath == ".." || strings.HasPrefix(cleanPath, ".."+string(filepath.Separator)) {
		return fmt.Errorf("report path must be inside current directory: %s", path)
	}

	// #nosec G304 -- path is an explicit CLI output parameter for local demo reports.
	file, err := os.Create(cleanPath)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}
