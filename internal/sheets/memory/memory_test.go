package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

func TestExporter_KeepsLatestPerMonth(t *testing.T) {
	e := New(nil)
	ctx := context.Background()

	first := core.MonthlyInsight{Year: 2025, Month: 9, NetBalance: decimal.NewFromInt(10)}
	second := core.MonthlyInsight{Year: 2025, Month: 9, NetBalance: decimal.NewFromInt(20)}

	ref1, err := e.ExportMonthlyInsight(ctx, "alice", first)
	if err != nil {
		t.Fatalf("export error = %v", err)
	}
	ref2, _ := e.ExportMonthlyInsight(ctx, "alice", second)
	if ref1 == ref2 {
		t.Errorf("refs should differ, both %q", ref1)
	}
	_, _ = e.ExportMonthlyInsight(ctx, "bob", first)

	got, ok := e.Latest("alice", 2025, 9)
	if !ok {
		t.Fatal("expected an export for alice 2025-09")
	}
	if !got.NetBalance.Equal(decimal.NewFromInt(20)) {
		t.Errorf("NetBalance = %s, want 20", got.NetBalance)
	}
	if _, ok := e.Latest("alice", 2025, 8); ok {
		t.Error("no export expected for 2025-08")
	}

	periods := e.Periods()
	if len(periods) != 2 || periods[0] != "alice/2025-09" || periods[1] != "bob/2025-09" {
		t.Errorf("Periods() = %v", periods)
	}
}

func TestExporter_RejectsInvalidMonth(t *testing.T) {
	if _, err := New(nil).ExportMonthlyInsight(context.Background(), "alice", core.MonthlyInsight{Year: 2025}); err == nil {
		t.Error("expected error for month 0")
	}
}
