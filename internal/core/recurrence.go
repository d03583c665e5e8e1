package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

const (
	EndNever      EndCondition = "never"
	EndOnDate     EndCondition = "on_date"
	EndAfterCount EndCondition = "after_count"
)

// Weekday runs Monday=0 through Sunday=6.
const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

type (
	Frequency    string
	EndCondition string
	Weekday      int
)

var weekdayNames = [...]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

func (w Weekday) String() string {
	if w < Monday || w > Sunday {
		return fmt.Sprintf("Weekday(%d)", int(w))
	}
	return weekdayNames[w]
}

// WeekdayOf converts a timestamp's weekday to the Monday=0 convention.
func WeekdayOf(t time.Time) Weekday {
	return Weekday((int(t.Weekday()) + 6) % 7)
}

// RecurrenceRule is an immutable description of a repeating pattern and its
// stop condition. A rule carries no state: enumeration is a pure function of
// the rule, the query window, and the anchor date.
//
// Weekdays applies only to Weekly rules; empty means "same weekday as the
// anchor". MonthWeek/MonthWeekday form the optional "Kth weekday of the
// month" pair for Monthly rules; when unset, Monthly means "same day of month
// as the anchor, clamped to short months".
type RecurrenceRule struct {
	Frequency    Frequency
	Interval     int
	Weekdays     []Weekday
	MonthWeek    int      // 1..5, 0 when unset
	MonthWeekday *Weekday // nil when unset
	End          EndCondition
	EndDate      time.Time // set only when End == EndOnDate
	MaxCount     int       // set only when End == EndAfterCount
}

var (
	ErrInvalidInterval  = errors.New("interval must be at least 1")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrMonthPattern     = errors.New("month week and month weekday must be set together")
	ErrInvalidEnd       = errors.New("invalid end condition")
)

// Validate rejects malformed rules at creation time; a rule that fails here
// is never stored.
func (r RecurrenceRule) Validate() error {
	switch r.Frequency {
	case Daily, Weekly, Monthly, Yearly:
	default:
		return ErrInvalidFrequency
	}
	if r.Interval < 1 {
		return ErrInvalidInterval
	}
	for _, wd := range r.Weekdays {
		if wd < Monday || wd > Sunday {
			return fmt.Errorf("invalid weekday %d", int(wd))
		}
	}
	if (r.MonthWeek != 0) != (r.MonthWeekday != nil) {
		return ErrMonthPattern
	}
	if r.MonthWeek != 0 && (r.MonthWeek < 1 || r.MonthWeek > 5) {
		return fmt.Errorf("month week %d out of range 1..5", r.MonthWeek)
	}
	if r.MonthWeekday != nil && (*r.MonthWeekday < Monday || *r.MonthWeekday > Sunday) {
		return fmt.Errorf("invalid month weekday %d", int(*r.MonthWeekday))
	}
	switch r.End {
	case EndNever:
	case EndOnDate:
		if r.EndDate.IsZero() {
			return errors.New("on_date end condition requires an end date")
		}
	case EndAfterCount:
		if r.MaxCount < 1 {
			return errors.New("after_count end condition requires a positive count")
		}
	default:
		return ErrInvalidEnd
	}
	return nil
}

// OccurrencesInRange enumerates every occurrence date in [rangeStart,
// rangeEnd] (both inclusive) for a rule anchored at ruleStart. The result is
// ascending, deduplicated, never earlier than ruleStart, and bounded by the
// rule's end condition.
//
// The end condition is evaluated in enumeration order with a zero-based
// index counted from ruleStart, so an after_count rule counts occurrences
// from its absolute start regardless of where the query window lies: a rule
// queried long after exhaustion yields nothing.
func (r RecurrenceRule) OccurrencesInRange(rangeStart, rangeEnd, ruleStart time.Time) []time.Time {
	var out []time.Time
	count := 0

	switch r.Frequency {
	case Daily:
		current := ruleStart
		for !current.After(rangeEnd) {
			if r.checkEnd(current, count) {
				break
			}
			if !current.Before(rangeStart) {
				out = append(out, current)
			}
			count++
			current = current.AddDate(0, 0, r.Interval)
		}

	case Weekly:
		if len(r.Weekdays) > 0 {
			// Walk Monday-aligned weeks. The one-week margin past rangeEnd
			// keeps a late-week date inside the range from being cut off by
			// an early week-start comparison.
			base := ruleStart.AddDate(0, 0, -int(WeekdayOf(ruleStart)))
			targets := sortedWeekdays(r.Weekdays)
			horizon := rangeEnd.AddDate(0, 0, 7)
			for week := 0; ; week++ {
				weekStart := base.AddDate(0, 0, week*r.Interval*7)
				if weekStart.After(horizon) {
					break
				}
				for _, wd := range targets {
					candidate := withClock(weekStart.AddDate(0, 0, int(wd)), ruleStart)
					if candidate.Before(ruleStart) || candidate.After(rangeEnd) {
						continue
					}
					if r.checkEnd(candidate, count) {
						sortDates(out)
						return out
					}
					if !candidate.Before(rangeStart) {
						out = append(out, candidate)
					}
					count++
				}
			}
		} else {
			current := ruleStart
			for !current.After(rangeEnd) {
				if r.checkEnd(current, count) {
					break
				}
				if !current.Before(rangeStart) {
					out = append(out, current)
				}
				count++
				current = current.AddDate(0, 0, r.Interval*7)
			}
		}

	case Monthly:
		if r.MonthWeek != 0 && r.MonthWeekday != nil {
			year, month := ruleStart.Year(), int(ruleStart.Month())
			for {
				if day, ok := r.nthWeekdayOfMonth(year, month); ok {
					candidate := time.Date(year, time.Month(month), day,
						ruleStart.Hour(), ruleStart.Minute(), ruleStart.Second(), 0, ruleStart.Location())
					if candidate.After(rangeEnd) {
						break
					}
					if !candidate.Before(ruleStart) {
						if r.checkEnd(candidate, count) {
							break
						}
						if !candidate.Before(rangeStart) {
							out = append(out, candidate)
						}
						count++
					}
				}
				year, month = nextMonth(year, month, r.Interval)
				if time.Date(year, time.Month(month), 1, 0, 0, 0, 0, ruleStart.Location()).After(rangeEnd) {
					break
				}
			}
		} else {
			// Same day of month, clamped so a day-31 anchor lands on the
			// last day of short months instead of skipping them.
			targetDay := ruleStart.Day()
			year, month := ruleStart.Year(), int(ruleStart.Month())
			for {
				day := min(targetDay, daysInMonth(year, month))
				candidate := time.Date(year, time.Month(month), day,
					ruleStart.Hour(), ruleStart.Minute(), ruleStart.Second(), 0, ruleStart.Location())
				if candidate.After(rangeEnd) {
					break
				}
				if !candidate.Before(ruleStart) {
					if r.checkEnd(candidate, count) {
						break
					}
					if !candidate.Before(rangeStart) {
						out = append(out, candidate)
					}
					count++
				}
				year, month = nextMonth(year, month, r.Interval)
			}
		}

	case Yearly:
		month := int(ruleStart.Month())
		for year := ruleStart.Year(); ; year += r.Interval {
			day := min(ruleStart.Day(), daysInMonth(year, month))
			candidate := time.Date(year, time.Month(month), day,
				ruleStart.Hour(), ruleStart.Minute(), ruleStart.Second(), 0, ruleStart.Location())
			if candidate.After(rangeEnd) {
				break
			}
			if !candidate.Before(ruleStart) {
				if r.checkEnd(candidate, count) {
					break
				}
				if !candidate.Before(rangeStart) {
					out = append(out, candidate)
				}
				count++
			}
		}
	}

	sortDates(out)
	return out
}

// checkEnd reports whether enumeration stops at the given candidate,
// excluding it. count is the zero-based occurrence index since ruleStart.
func (r RecurrenceRule) checkEnd(candidate time.Time, count int) bool {
	if r.End == EndOnDate && !r.EndDate.IsZero() && candidate.After(r.EndDate) {
		return true
	}
	if r.End == EndAfterCount && r.MaxCount > 0 && count >= r.MaxCount {
		return true
	}
	return false
}

// nthWeekdayOfMonth returns the day-of-month of the MonthWeek-th occurrence
// of MonthWeekday, or false when the month has no such occurrence ("5th
// Friday" in a four-Friday month).
func (r RecurrenceRule) nthWeekdayOfMonth(year, month int) (int, bool) {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	daysUntil := (int(*r.MonthWeekday) - int(WeekdayOf(first)) + 7) % 7
	day := 1 + daysUntil + (r.MonthWeek-1)*7
	if day > daysInMonth(year, month) {
		return 0, false
	}
	return day, true
}

// Describe renders the rule as a human-readable pattern string, shared by
// every presentation surface.
func (r RecurrenceRule) Describe() string {
	var parts []string

	switch r.Frequency {
	case Daily:
		if r.Interval == 1 {
			parts = append(parts, "Daily")
		} else {
			parts = append(parts, fmt.Sprintf("Every %d days", r.Interval))
		}
	case Weekly:
		if r.Interval == 1 {
			parts = append(parts, "Weekly")
		} else {
			parts = append(parts, fmt.Sprintf("Every %d weeks", r.Interval))
		}
		if len(r.Weekdays) > 0 {
			names := make([]string, 0, len(r.Weekdays))
			for _, wd := range sortedWeekdays(r.Weekdays) {
				names = append(names, wd.String())
			}
			parts = append(parts, "on "+strings.Join(names, ", "))
		}
	case Monthly:
		if r.Interval == 1 {
			parts = append(parts, "Monthly")
		} else {
			parts = append(parts, fmt.Sprintf("Every %d months", r.Interval))
		}
		if r.MonthWeek != 0 && r.MonthWeekday != nil {
			parts = append(parts, fmt.Sprintf("on the %s %s", ordinal(r.MonthWeek), r.MonthWeekday))
		}
	case Yearly:
		if r.Interval == 1 {
			parts = append(parts, "Yearly")
		} else {
			parts = append(parts, fmt.Sprintf("Every %d years", r.Interval))
		}
	}

	switch r.End {
	case EndOnDate:
		if !r.EndDate.IsZero() {
			parts = append(parts, "until "+r.EndDate.Format("2006-01-02"))
		}
	case EndAfterCount:
		if r.MaxCount > 0 {
			parts = append(parts, fmt.Sprintf("for %d occurrences", r.MaxCount))
		}
	}

	return strings.Join(parts, " ")
}

func ordinal(n int) string {
	switch n {
	case 1:
		return "1st"
	case 2:
		return "2nd"
	case 3:
		return "3rd"
	default:
		return fmt.Sprintf("%dth", n)
	}
}

// withClock places d's calendar day at src's time-of-day.
func withClock(d, src time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(),
		src.Hour(), src.Minute(), src.Second(), 0, src.Location())
}

func daysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// nextMonth advances by steps months with year rollover.
func nextMonth(year, month, steps int) (int, int) {
	month += steps
	for month > 12 {
		month -= 12
		year++
	}
	return year, month
}

func sortedWeekdays(in []Weekday) []Weekday {
	out := make([]Weekday, 0, len(in))
	seen := map[Weekday]struct{}{}
	for _, wd := range in {
		if _, ok := seen[wd]; ok {
			continue
		}
		seen[wd] = struct{}{}
		out = append(out, wd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sortDates(dates []time.Time) {
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
}
