package Tasks

import (
	"fmt"
	"time"

	"Taskforce/Models"
)

// Tick is the smallest period boundary step. A cycle's PeriodEnd is the last
// tick of its period, so PeriodEnd+Tick is the next cycle's PeriodStart.
const Tick = time.Second

// openEndedYears models a NONE-frequency schedule as one very long period
// instead of a sentinel, keeping the boundary arithmetic uniform.
const openEndedYears = 100

// PeriodEnd computes the last instant of the period starting at start.
// dayOfMonth (1-31) anchors MONTHLY boundaries and is ignored otherwise.
func PeriodEnd(start time.Time, frequency string, interval int, dayOfMonth int) time.Time {
	if interval < 1 {
		interval = 1
	}

	var next time.Time
	switch frequency {
	case Models.FrequencyDaily:
		next = start.AddDate(0, 0, interval)
	case Models.FrequencyWeekly:
		next = start.AddDate(0, 0, 7*interval)
	case Models.FrequencyMonthly:
		next = addMonths(start, interval, dayOfMonth)
	case Models.FrequencyQuarterly:
		next = addMonths(start, 3*interval, 0)
	case Models.FrequencyYearly:
		next = start.AddDate(interval, 0, 0)
	default: // NONE
		next = start.AddDate(openEndedYears, 0, 0)
	}
	return next.Add(-Tick)
}

// addMonths advances by whole months, anchoring to dayOfMonth when given and
// clamping to the target month's length (Jan 31 + 1 month = Feb 28/29, never
// a March spillover).
func addMonths(t time.Time, months, dayOfMonth int) time.Time {
	day := t.Day()
	if dayOfMonth >= 1 && dayOfMonth <= 31 {
		day = dayOfMonth
	}

	firstOfTarget := time.Date(t.Year(), t.Month(), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	firstOfTarget = firstOfTarget.AddDate(0, months, 0)

	if max := daysInMonth(firstOfTarget.Year(), firstOfTarget.Month()); day > max {
		day = max
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ValidateSchedule rejects malformed recurrence rules before they reach the
// generator.
func ValidateSchedule(s *Models.TaskSchedule) error {
	switch s.Frequency {
	case Models.FrequencyNone, Models.FrequencyDaily, Models.FrequencyWeekly,
		Models.FrequencyMonthly, Models.FrequencyQuarterly, Models.FrequencyYearly:
	default:
		return fmt.Errorf("%w: unknown frequency %q", ErrValidation, s.Frequency)
	}
	if s.Interval < 1 {
		return fmt.Errorf("%w: interval must be at least 1", ErrValidation)
	}
	if s.DayOfMonth != 0 {
		if s.Frequency != Models.FrequencyMonthly {
			return fmt.Errorf("%w: day of month only applies to MONTHLY schedules", ErrValidation)
		}
		if s.DayOfMonth < 1 || s.DayOfMonth > 31 {
			return fmt.Errorf("%w: day of month must be between 1 and 31", ErrValidation)
		}
	}
	if s.EndDate != nil && s.EndDate.Before(s.StartDate) {
		return fmt.Errorf("%w: end date is before start date", ErrValidation)
	}
	return nil
}

// CreateSchedule validates and persists a recurrence rule for a template the
// company owns.
func (e *Engine) CreateSchedule(companyID uint, s *Models.TaskSchedule) error {
	var template Models.TaskTemplate
	if err := e.DB.Where("company_id = ?", companyID).First(&template, s.TemplateID).Error; err != nil {
		return fmt.Errorf("%w: template %d", ErrNotFound, s.TemplateID)
	}
	if err := ValidateSchedule(s); err != nil {
		return err
	}
	return e.DB.Create(s).Error
}
