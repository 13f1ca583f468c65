package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"hearth/internal/allocation"
	"hearth/internal/models"
)

func TestPrintAnalysis(t *testing.T) {
	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	budget := &models.Budget{
		Amount:      decimal.NewFromInt(50000),
		PeriodStart: start,
		PeriodEnd:   start.AddDate(0, 1, 0),
		NeedsPct:    50,
		WantsPct:    30,
		SavingsPct:  20,
		SpentNeeds:  decimal.NewFromInt(26000),
		TotalSpent:  decimal.NewFromInt(26000),
	}
	budget.ID = "0190b5a8-6f3a-7c2e-9b1d-2a4f5e6d7c8b"

	var buf bytes.Buffer
	printAnalysis(&buf, allocation.Analyze(budget, start.AddDate(0, 0, 10)))
	out := buf.String()

	for _, want := range []string{
		"budget 0190b5a8-6f3a-7c2e-9b1d-2a4f5e6d7c8b  2026-10-01 to 2026-11-01",
		"25000.00",
		"-1000.00",
		"over",
		"total",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}

	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "wants") && strings.Contains(line, "over") {
			t.Errorf("wants bucket should not be flagged: %q", line)
		}
	}
}
