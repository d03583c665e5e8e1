package core

import (
	"strings"
	"testing"
	"time"
)

func sampleTemplate() *RecurringTemplate {
	return NewRecurringTemplate(
		Money{Cents: 85000},
		Expense,
		"Rent",
		"Monthly rent",
		"Main",
		RecurrenceRule{Frequency: Monthly, Interval: 1, End: EndNever},
		date(2024, 1, 31),
	)
}

func TestNewRecurringTemplate(t *testing.T) {
	tmpl := sampleTemplate()

	if !strings.HasPrefix(tmpl.ID, "rec-") {
		t.Errorf("ID = %q, want rec- prefix", tmpl.ID)
	}
	if !tmpl.IsActive {
		t.Error("new template should be active")
	}
	if !tmpl.LastGenerated.IsZero() {
		t.Error("new template should have no watermark")
	}
	if tmpl.GeneratedCount != 0 {
		t.Errorf("GeneratedCount = %d, want 0", tmpl.GeneratedCount)
	}
	if err := tmpl.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestRecurringTemplate_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RecurringTemplate)
	}{
		{"zero amount", func(tmpl *RecurringTemplate) { tmpl.Amount.Cents = 0 }},
		{"bad kind", func(tmpl *RecurringTemplate) { tmpl.Kind = "gift" }},
		{"empty category", func(tmpl *RecurringTemplate) { tmpl.Category = "" }},
		{"empty wallet", func(tmpl *RecurringTemplate) { tmpl.WalletName = "" }},
		{"zero start date", func(tmpl *RecurringTemplate) { tmpl.StartDate = time.Time{} }},
		{"bad rule", func(tmpl *RecurringTemplate) { tmpl.Rule.Interval = 0 }},
		{"end date before start", func(tmpl *RecurringTemplate) {
			tmpl.Rule.End = EndOnDate
			tmpl.Rule.EndDate = date(2023, 12, 1)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := sampleTemplate()
			tt.mutate(tmpl)
			if err := tmpl.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestRecurringTemplate_Transaction(t *testing.T) {
	tmpl := sampleTemplate()
	occ := dateAt(2024, 2, 29, 10, 15)

	tx := tmpl.Transaction(occ)

	if tx.OriginID != tmpl.ID {
		t.Errorf("OriginID = %q, want %q", tx.OriginID, tmpl.ID)
	}
	if !tx.CreatedAt.Equal(occ) {
		t.Errorf("CreatedAt = %v, want %v", tx.CreatedAt, occ)
	}
	if tx.Amount != tmpl.Amount || tx.Kind != tmpl.Kind || tx.Category != tmpl.Category {
		t.Error("transaction fields do not match template")
	}
	if tx.ID == "" || tx.ID == tmpl.ID {
		t.Errorf("transaction ID = %q, want fresh id", tx.ID)
	}
}

func TestRecurringTemplate_Exceptions(t *testing.T) {
	tmpl := sampleTemplate()
	tmpl.AddException(dateAt(2024, 3, 31, 0, 0))

	// Day-granular: any time-of-day on the skipped day matches.
	if !tmpl.IsException(dateAt(2024, 3, 31, 18, 45)) {
		t.Error("IsException() = false for a skipped day at another hour")
	}
	if tmpl.IsException(date(2024, 4, 30)) {
		t.Error("IsException() = true for an unrelated day")
	}

	tmpl.AddException(date(2024, 1, 31))
	got := tmpl.ExceptionDates()
	want := []string{"2024-01-31", "2024-03-31"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("ExceptionDates() = %v, want %v", got, want)
	}
}

func TestRecurringTemplate_Clone(t *testing.T) {
	tmpl := sampleTemplate()
	tmpl.Rule.Weekdays = []Weekday{Monday}
	tmpl.Rule.MonthWeekday = weekdayPtr(Friday)
	tmpl.Rule.MonthWeek = 2
	tmpl.AddException(date(2024, 5, 31))

	cp := tmpl.Clone()
	cp.AddException(date(2024, 6, 30))
	cp.Rule.Weekdays[0] = Sunday
	*cp.Rule.MonthWeekday = Monday

	if tmpl.IsException(date(2024, 6, 30)) {
		t.Error("clone exception leaked into the original")
	}
	if tmpl.Rule.Weekdays[0] != Monday {
		t.Error("clone weekday slice aliases the original")
	}
	if *tmpl.Rule.MonthWeekday != Friday {
		t.Error("clone month weekday pointer aliases the original")
	}
}

func TestRecurringTemplate_Summary(t *testing.T) {
	tmpl := sampleTemplate()
	got := tmpl.Summary()
	want := "[Active] Rent - -850.00 (Monthly)"
	if got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}

	tmpl.IsActive = false
	if !strings.HasPrefix(tmpl.Summary(), "[Paused]") {
		t.Errorf("Summary() = %q, want Paused prefix", tmpl.Summary())
	}
}
