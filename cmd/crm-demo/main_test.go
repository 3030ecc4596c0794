package main

import (
	"context"
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/crm/internal/domain"
	"github.com/vladislavdragonenkov/crm/internal/service/audit"
	"github.com/vladislavdragonenkov/crm/internal/service/leaderboard"
)

func validConfig() config {
	return config{
		businessName: "Book Nook",
		businessType: "retail",
		city:         "Austin",
		customers:    4,
		maxOrders:    3,
		top:          2,
		interval:     time.Second,
		duration:     0,
		logLevel:     log.InfoLevel,
	}
}

func TestConfigValidate(t *testing.T) {
	if err := validConfig().validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testCases := []struct {
		name   string
		mutate func(*config)
	}{
		{name: "blank business name", mutate: func(c *config) { c.businessName = "   " }},
		{name: "zero customers", mutate: func(c *config) { c.customers = 0 }},
		{name: "negative max orders", mutate: func(c *config) { c.maxOrders = -1 }},
		{name: "zero top", mutate: func(c *config) { c.top = 0 }},
		{name: "zero interval", mutate: func(c *config) { c.interval = 0 }},
		{name: "negative duration", mutate: func(c *config) { c.duration = -time.Second }},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			cfg := validConfig()
			testCase.mutate(&cfg)

			if err := cfg.validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestSeedRoster_Deterministic(t *testing.T) {
	cfg := validConfig()
	cfg.customers = 8
	cfg.maxOrders = 5

	first, err := domain.NewBusiness("Book Nook", "retail", "Austin", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := seedRoster(rand.New(rand.NewSource(42)), first, cfg, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.CustomerCount() != cfg.customers {
		t.Fatalf("expected %d customers, got %d", cfg.customers, first.CustomerCount())
	}

	second, err := domain.NewBusiness("Book Nook", "retail", "Austin", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := seedRoster(rand.New(rand.NewSource(42)), second, cfg, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	firstCustomers := first.Customers()
	secondCustomers := second.Customers()
	if len(firstCustomers) != len(secondCustomers) {
		t.Fatalf("roster sizes differ: %d vs %d", len(firstCustomers), len(secondCustomers))
	}

	for i := range firstCustomers {
		if firstCustomers[i].Name() != secondCustomers[i].Name() {
			t.Fatalf("customer %d: name %q != %q", i, firstCustomers[i].Name(), secondCustomers[i].Name())
		}
		if !firstCustomers[i].TotalSpent().Equal(secondCustomers[i].TotalSpent()) {
			t.Fatalf("customer %d: total %s != %s", i, firstCustomers[i].TotalSpent(), secondCustomers[i].TotalSpent())
		}
	}
}

func TestSeedRoster_NoOrdersWhenMaxOrdersZero(t *testing.T) {
	cfg := validConfig()
	cfg.customers = 5
	cfg.maxOrders = 0

	business, err := domain.NewBusiness("Book Nook", "retail", "Austin", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := seedRoster(rand.New(rand.NewSource(7)), business, cfg, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, customer := range business.Customers() {
		if customer.OrderCount() != 0 {
			t.Fatalf("customer %d: expected no orders, got %d", i, customer.OrderCount())
		}
		if !customer.TotalSpent().IsZero() {
			t.Fatalf("customer %d: expected zero total, got %s", i, customer.TotalSpent())
		}
	}
}

func TestBuildReport(t *testing.T) {
	business, err := domain.NewBusiness("Book Nook", "retail", "Austin", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	customer, err := domain.NewCustomer("Alice", "Austin", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := business.AddCustomer(customer); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := []leaderboard.Entry{
		{
			Position:   1,
			CustomerID: customer.ID(),
			Name:       "Alice",
			Location:   "Austin",
			Orders:     2,
			TotalSpent: decimal.RequireFromString("104.99"),
		},
	}
	auditReport := audit.Report{Status: audit.StatusOK, Customers: 1}

	result := buildReport(time.Now().Add(-time.Second), business, entries, auditReport)

	if result.Business.Name != "Book Nook" {
		t.Fatalf("unexpected business name: %s", result.Business.Name)
	}
	if result.Business.ID != business.ID() {
		t.Fatalf("unexpected business id: %s", result.Business.ID)
	}
	if result.Customers != 1 {
		t.Fatalf("unexpected customer count: %d", result.Customers)
	}
	if result.DurationSeconds <= 0 {
		t.Fatalf("unexpected duration: %f", result.DurationSeconds)
	}
	if len(result.Leaderboard) != 1 {
		t.Fatalf("expected 1 leaderboard entry, got %d", len(result.Leaderboard))
	}
	if result.Leaderboard[0].TotalSpent != "104.99" {
		t.Fatalf("unexpected total: %s", result.Leaderboard[0].TotalSpent)
	}
	if result.Audit.Status != audit.StatusOK {
		t.Fatalf("unexpected audit status: %s", result.Audit.Status)
	}
}

func TestWriteJSONReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")

	result := demoReport{
		StartedAt: time.Now().UTC(),
		Business:  businessInfo{ID: "b-1", Name: "Book Nook", Type: "retail", City: "Austin"},
		Customers: 3,
		Leaderboard: []reportEntry{
			{Position: 1, CustomerID: "c-1", Name: "Alice", Orders: 2, TotalSpent: "104.99"},
		},
		Audit: audit.Report{Status: audit.StatusOK, Customers: 3},
	}

	if err := writeJSONReport(path, result); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded demoReport
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if decoded.Business.Name != "Book Nook" {
		t.Fatalf("unexpected business name: %s", decoded.Business.Name)
	}
	if decoded.Customers != 3 {
		t.Fatalf("unexpected customer count: %d", decoded.Customers)
	}
	if len(decoded.Leaderboard) != 1 || decoded.Leaderboard[0].TotalSpent != "104.99" {
		t.Fatalf("unexpected leaderboard: %#v", decoded.Leaderboard)
	}
}

func TestWriteJSONReport_RejectsUnsafePaths(t *testing.T) {
	for _, path := range []string{".", "..", "../report.json", "../nested/../report.json"} {
		if err := writeJSONReport(path, demoReport{}); err == nil {
			t.Fatalf("expected error for path %q", path)
		}
	}
}

func TestChurn_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	business, err := domain.NewBusiness("Book Nook", "retail", "Austin", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	done := make(chan struct{})
	go func() {
		churn(ctx, rand.New(rand.NewSource(1)), business, nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("churn did not stop after context cancellation")
	}
}
