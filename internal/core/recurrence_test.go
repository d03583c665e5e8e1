package core

import (
	"testing"
	"time"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dateAt(y, m, d, hh, mm int) time.Time {
	return time.Date(y, time.Month(m), d, hh, mm, 0, 0, time.UTC)
}

func assertDates(t *testing.T, got []time.Time, want []time.Time) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d occurrences %v, want %d %v", len(got), got, len(want), want)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("occurrence[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func weekdayPtr(w Weekday) *Weekday { return &w }

func TestOccurrences_Daily(t *testing.T) {
	tests := []struct {
		name  string
		rule  RecurrenceRule
		start time.Time
		from  time.Time
		to    time.Time
		want  []time.Time
	}{
		{
			name:  "every day",
			rule:  RecurrenceRule{Frequency: Daily, Interval: 1, End: EndNever},
			start: date(2024, 1, 1),
			from:  date(2024, 1, 1),
			to:    date(2024, 1, 4),
			want:  []time.Time{date(2024, 1, 1), date(2024, 1, 2), date(2024, 1, 3), date(2024, 1, 4)},
		},
		{
			name:  "every third day",
			rule:  RecurrenceRule{Frequency: Daily, Interval: 3, End: EndNever},
			start: date(2024, 1, 1),
			from:  date(2024, 1, 1),
			to:    date(2024, 1, 10),
			want:  []time.Time{date(2024, 1, 1), date(2024, 1, 4), date(2024, 1, 7), date(2024, 1, 10)},
		},
		{
			name:  "window starts mid-rule",
			rule:  RecurrenceRule{Frequency: Daily, Interval: 2, End: EndNever},
			start: date(2024, 1, 1),
			from:  date(2024, 1, 4),
			to:    date(2024, 1, 8),
			want:  []time.Time{date(2024, 1, 5), date(2024, 1, 7)},
		},
		{
			name:  "window before rule start yields nothing before anchor",
			rule:  RecurrenceRule{Frequency: Daily, Interval: 1, End: EndNever},
			start: date(2024, 1, 10),
			from:  date(2024, 1, 1),
			to:    date(2024, 1, 12),
			want:  []time.Time{date(2024, 1, 10), date(2024, 1, 11), date(2024, 1, 12)},
		},
		{
			name: "on_date end excludes later dates",
			rule: RecurrenceRule{
				Frequency: Daily, Interval: 1,
				End: EndOnDate, EndDate: date(2024, 1, 3),
			},
			start: date(2024, 1, 1),
			from:  date(2024, 1, 1),
			to:    date(2024, 1, 10),
			want:  []time.Time{date(2024, 1, 1), date(2024, 1, 2), date(2024, 1, 3)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.rule.OccurrencesInRange(tt.from, tt.to, tt.start)
			assertDates(t, got, tt.want)
		})
	}
}

func TestOccurrences_WeeklyWithWeekdays(t *testing.T) {
	// spec scenario: Mon+Thu from a Monday anchor.
	rule := RecurrenceRule{
		Frequency: Weekly,
		Interval:  1,
		Weekdays:  []Weekday{Monday, Thursday},
		End:       EndNever,
	}
	got := rule.OccurrencesInRange(date(2024, 1, 1), date(2024, 1, 14), date(2024, 1, 1))
	assertDates(t, got, []time.Time{
		date(2024, 1, 1), date(2024, 1, 4), date(2024, 1, 8), date(2024, 1, 11),
	})
}

func TestOccurrences_WeeklyWeekdayBeforeAnchorExcluded(t *testing.T) {
	// Anchor on Wednesday: the Monday of the anchor week never occurs.
	rule := RecurrenceRule{
		Frequency: Weekly,
		Interval:  1,
		Weekdays:  []Weekday{Monday, Friday},
		End:       EndNever,
	}
	got := rule.OccurrencesInRange(date(2024, 1, 1), date(2024, 1, 12), date(2024, 1, 3))
	assertDates(t, got, []time.Time{
		date(2024, 1, 5), date(2024, 1, 8), date(2024, 1, 12),
	})
}

func TestOccurrences_WeeklyKeepsTimeOfDay(t *testing.T) {
	rule := RecurrenceRule{
		Frequency: Weekly,
		Interval:  1,
		Weekdays:  []Weekday{Thursday},
		End:       EndNever,
	}
	start := dateAt(2024, 1, 1, 9, 30)
	got := rule.OccurrencesInRange(start, date(2024, 1, 14), start)
	assertDates(t, got, []time.Time{
		dateAt(2024, 1, 4, 9, 30), dateAt(2024, 1, 11, 9, 30),
	})
}

func TestOccurrences_WeeklyNoWeekdays(t *testing.T) {
	// Same weekday as the anchor, every second week.
	rule := RecurrenceRule{Frequency: Weekly, Interval: 2, End: EndNever}
	got := rule.OccurrencesInRange(date(2024, 1, 2), date(2024, 2, 1), date(2024, 1, 2))
	assertDates(t, got, []time.Time{
		date(2024, 1, 2), date(2024, 1, 16), date(2024, 1, 30),
	})
}

func TestOccurrences_MonthlyClampsShortMonths(t *testing.T) {
	// spec scenario: day-31 anchor through a leap February.
	rule := RecurrenceRule{Frequency: Monthly, Interval: 1, End: EndNever}
	got := rule.OccurrencesInRange(date(2024, 1, 1), date(2024, 4, 30), date(2024, 1, 31))
	assertDates(t, got, []time.Time{
		date(2024, 1, 31), date(2024, 2, 29), date(2024, 3, 31), date(2024, 4, 30),
	})
}

func TestOccurrences_MonthlyClampOffLeapYear(t *testing.T) {
	rule := RecurrenceRule{Frequency: Monthly, Interval: 1, End: EndNever}
	got := rule.OccurrencesInRange(date(2023, 1, 1), date(2023, 3, 31), date(2023, 1, 31))
	assertDates(t, got, []time.Time{
		date(2023, 1, 31), date(2023, 2, 28), date(2023, 3, 31),
	})
}

func TestOccurrences_MonthlyNthWeekday(t *testing.T) {
	tests := []struct {
		name string
		week int
		wd   Weekday
		from time.Time
		to   time.Time
		want []time.Time
	}{
		{
			name: "second tuesday",
			week: 2, wd: Tuesday,
			from: date(2024, 1, 1), to: date(2024, 3, 31),
			want: []time.Time{date(2024, 1, 9), date(2024, 2, 13), date(2024, 3, 12)},
		},
		{
			// Months with only four Fridays are silently skipped.
			name: "fifth friday",
			week: 5, wd: Friday,
			from: date(2024, 1, 1), to: date(2024, 5, 31),
			want: []time.Time{date(2024, 3, 29), date(2024, 5, 31)},
		},
		{
			name: "first monday",
			week: 1, wd: Monday,
			from: date(2024, 1, 1), to: date(2024, 2, 29),
			want: []time.Time{date(2024, 1, 1), date(2024, 2, 5)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := RecurrenceRule{
				Frequency:    Monthly,
				Interval:     1,
				MonthWeek:    tt.week,
				MonthWeekday: weekdayPtr(tt.wd),
				End:          EndNever,
			}
			got := rule.OccurrencesInRange(tt.from, tt.to, date(2024, 1, 1))
			assertDates(t, got, tt.want)
		})
	}
}

func TestOccurrences_Yearly(t *testing.T) {
	t.Run("leap day clamps off-leap years", func(t *testing.T) {
		rule := RecurrenceRule{Frequency: Yearly, Interval: 1, End: EndNever}
		got := rule.OccurrencesInRange(date(2024, 1, 1), date(2026, 12, 31), date(2024, 2, 29))
		assertDates(t, got, []time.Time{
			date(2024, 2, 29), date(2025, 2, 28), date(2026, 2, 28),
		})
	})

	t.Run("interval skips years", func(t *testing.T) {
		rule := RecurrenceRule{Frequency: Yearly, Interval: 2, End: EndNever}
		got := rule.OccurrencesInRange(date(2024, 1, 1), date(2028, 12, 31), date(2024, 6, 15))
		assertDates(t, got, []time.Time{
			date(2024, 6, 15), date(2026, 6, 15), date(2028, 6, 15),
		})
	})
}

func TestOccurrences_AfterCountIsRuleGlobal(t *testing.T) {
	rule := RecurrenceRule{
		Frequency: Daily,
		Interval:  1,
		End:       EndAfterCount,
		MaxCount:  3,
	}

	t.Run("yields exactly max occurrences", func(t *testing.T) {
		got := rule.OccurrencesInRange(date(2024, 1, 1), date(2024, 1, 10), date(2024, 1, 1))
		assertDates(t, got, []time.Time{
			date(2024, 1, 1), date(2024, 1, 2), date(2024, 1, 3),
		})
	})

	t.Run("late window finds the rule exhausted", func(t *testing.T) {
		// The count is a property of the rule, not of the query window:
		// all three occurrences predate the window.
		got := rule.OccurrencesInRange(date(2024, 2, 1), date(2024, 3, 1), date(2024, 1, 1))
		if len(got) != 0 {
			t.Fatalf("expected no occurrences, got %v", got)
		}
	})

	t.Run("window covering the tail yields the remainder", func(t *testing.T) {
		got := rule.OccurrencesInRange(date(2024, 1, 3), date(2024, 3, 1), date(2024, 1, 1))
		assertDates(t, got, []time.Time{date(2024, 1, 3)})
	})
}

func TestOccurrences_AfterCountWeeklyWeekdays(t *testing.T) {
	rule := RecurrenceRule{
		Frequency: Weekly,
		Interval:  1,
		Weekdays:  []Weekday{Monday, Thursday},
		End:       EndAfterCount,
		MaxCount:  3,
	}
	got := rule.OccurrencesInRange(date(2024, 1, 1), date(2024, 2, 1), date(2024, 1, 1))
	assertDates(t, got, []time.Time{
		date(2024, 1, 1), date(2024, 1, 4), date(2024, 1, 8),
	})
}

func TestOccurrences_EmptyWindow(t *testing.T) {
	rule := RecurrenceRule{Frequency: Daily, Interval: 1, End: EndNever}
	got := rule.OccurrencesInRange(date(2024, 1, 5), date(2024, 1, 4), date(2024, 1, 1))
	if len(got) != 0 {
		t.Fatalf("expected no occurrences for inverted window, got %v", got)
	}
}

func TestRecurrenceRule_Validate(t *testing.T) {
	tests := []struct {
		name    string
		rule    RecurrenceRule
		wantErr bool
	}{
		{
			name:    "valid daily",
			rule:    RecurrenceRule{Frequency: Daily, Interval: 1, End: EndNever},
			wantErr: false,
		},
		{
			name:    "zero interval",
			rule:    RecurrenceRule{Frequency: Daily, Interval: 0, End: EndNever},
			wantErr: true,
		},
		{
			name:    "unknown frequency",
			rule:    RecurrenceRule{Frequency: "hourly", Interval: 1, End: EndNever},
			wantErr: true,
		},
		{
			name:    "month week without weekday",
			rule:    RecurrenceRule{Frequency: Monthly, Interval: 1, MonthWeek: 2, End: EndNever},
			wantErr: true,
		},
		{
			name: "month weekday without week",
			rule: RecurrenceRule{
				Frequency: Monthly, Interval: 1,
				MonthWeekday: weekdayPtr(Friday), End: EndNever,
			},
			wantErr: true,
		},
		{
			name: "month week out of range",
			rule: RecurrenceRule{
				Frequency: Monthly, Interval: 1,
				MonthWeek: 6, MonthWeekday: weekdayPtr(Friday), End: EndNever,
			},
			wantErr: true,
		},
		{
			name:    "on_date without end date",
			rule:    RecurrenceRule{Frequency: Daily, Interval: 1, End: EndOnDate},
			wantErr: true,
		},
		{
			name:    "after_count without count",
			rule:    RecurrenceRule{Frequency: Daily, Interval: 1, End: EndAfterCount},
			wantErr: true,
		},
		{
			name:    "invalid weekday value",
			rule:    RecurrenceRule{Frequency: Weekly, Interval: 1, Weekdays: []Weekday{7}, End: EndNever},
			wantErr: true,
		},
		{
			name: "valid nth weekday",
			rule: RecurrenceRule{
				Frequency: Monthly, Interval: 1,
				MonthWeek: 5, MonthWeekday: weekdayPtr(Friday), End: EndNever,
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRecurrenceRule_Describe(t *testing.T) {
	until := date(2025, 12, 31)
	tests := []struct {
		name string
		rule RecurrenceRule
		want string
	}{
		{
			name: "daily",
			rule: RecurrenceRule{Frequency: Daily, Interval: 1, End: EndNever},
			want: "Daily",
		},
		{
			name: "every two weeks on weekdays until date",
			rule: RecurrenceRule{
				Frequency: Weekly, Interval: 2,
				Weekdays: []Weekday{Wednesday, Monday},
				End:      EndOnDate, EndDate: until,
			},
			want: "Every 2 weeks on Mon, Wed until 2025-12-31",
		},
		{
			name: "monthly nth weekday",
			rule: RecurrenceRule{
				Frequency: Monthly, Interval: 1,
				MonthWeek: 3, MonthWeekday: weekdayPtr(Tuesday),
				End: EndNever,
			},
			want: "Monthly on the 3rd Tue",
		},
		{
			name: "yearly for count",
			rule: RecurrenceRule{
				Frequency: Yearly, Interval: 1,
				End: EndAfterCount, MaxCount: 5,
			},
			want: "Yearly for 5 occurrences",
		},
		{
			name: "every three days",
			rule: RecurrenceRule{Frequency: Daily, Interval: 3, End: EndNever},
			want: "Every 3 days",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rule.Describe(); got != tt.want {
				t.Errorf("Describe() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWeekdayOf(t *testing.T) {
	// 2024-01-01 is a Monday, 2024-01-07 a Sunday.
	if got := WeekdayOf(date(2024, 1, 1)); got != Monday {
		t.Errorf("WeekdayOf(Mon) = %v", got)
	}
	if got := WeekdayOf(date(2024, 1, 7)); got != Sunday {
		t.Errorf("WeekdayOf(Sun) = %v", got)
	}
}
