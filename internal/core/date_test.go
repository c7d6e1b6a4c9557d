package core

import (
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		name string
		a, b Date
		want int
	}{
		{"same day", NewDate(2025, 3, 1), NewDate(2025, 3, 1), 0},
		{"jan 1 to jul 1", NewDate(2025, 1, 1), NewDate(2025, 7, 1), 181},
		{"across leap day", NewDate(2024, 2, 28), NewDate(2024, 3, 1), 2},
		{"backwards", NewDate(2025, 1, 10), NewDate(2025, 1, 3), -7},
		{"four centuries", NewDate(2000, 1, 1), NewDate(2400, 1, 1), 146097},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysBetween(tt.a, tt.b); got != tt.want {
				t.Errorf("DaysBetween() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMonthsBetween(t *testing.T) {
	tests := []struct {
		name string
		a, b Date
		want int
	}{
		{"same month", NewDate(2025, 1, 1), NewDate(2025, 1, 31), 0},
		{"exactly one month", NewDate(2025, 1, 15), NewDate(2025, 2, 15), 1},
		{"one day short", NewDate(2025, 1, 15), NewDate(2025, 3, 14), 1},
		{"end of month clamp", NewDate(2025, 1, 31), NewDate(2025, 2, 28), 1},
		{"across years", NewDate(2024, 11, 1), NewDate(2025, 2, 1), 3},
		{"before start", NewDate(2025, 5, 1), NewDate(2025, 4, 1), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MonthsBetween(tt.a, tt.b); got != tt.want {
				t.Errorf("MonthsBetween() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != NewDate(2024, 2, 29) {
		t.Fatalf("got %v", d)
	}
	if _, err := ParseDate("2024-13-01"); err == nil {
		t.Fatal("expected error for invalid month")
	}
}

func TestDateRangeContains(t *testing.T) {
	r := DateRange{From: NewDate(2025, 1, 1), To: NewDate(2025, 1, 31)}
	if !r.Contains(NewDate(2025, 1, 1)) || !r.Contains(NewDate(2025, 1, 31)) {
		t.Fatal("range bounds should be inclusive")
	}
	if r.Contains(NewDate(2025, 2, 1)) {
		t.Fatal("date after range should not be contained")
	}
	if err := (DateRange{From: r.To, To: r.From}).Validate(); err == nil {
		t.Fatal("expected error for inverted range")
	}
}
