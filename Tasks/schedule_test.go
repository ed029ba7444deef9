package Tasks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Taskforce/Models"
)

func TestPeriodEndFrequencies(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		frequency string
		interval  int
		wantNext  time.Time
	}{
		{"daily", Models.FrequencyDaily, 1, start.AddDate(0, 0, 1)},
		{"daily interval 3", Models.FrequencyDaily, 3, start.AddDate(0, 0, 3)},
		{"weekly", Models.FrequencyWeekly, 1, start.AddDate(0, 0, 7)},
		{"weekly interval 2", Models.FrequencyWeekly, 2, start.AddDate(0, 0, 14)},
		{"monthly", Models.FrequencyMonthly, 1, start.AddDate(0, 1, 0)},
		{"quarterly", Models.FrequencyQuarterly, 1, start.AddDate(0, 3, 0)},
		{"yearly", Models.FrequencyYearly, 1, start.AddDate(1, 0, 0)},
		{"none is open-ended", Models.FrequencyNone, 1, start.AddDate(100, 0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			end := PeriodEnd(start, tt.frequency, tt.interval, 0)
			// The end is the last tick before the next period.
			assert.True(t, end.Add(Tick).Equal(tt.wantNext), "got %v, want %v", end.Add(Tick), tt.wantNext)
		})
	}
}

func TestPeriodEndZeroIntervalDefaultsToOne(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := PeriodEnd(start, Models.FrequencyDaily, 0, 0)
	assert.True(t, end.Add(Tick).Equal(start.AddDate(0, 0, 1)))
}

func TestPeriodEndMonthlyClampsShortMonths(t *testing.T) {
	// Jan 31 + one month anchored to day 31 lands on the last day of
	// February, never on a March spillover.
	start := time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC)
	end := PeriodEnd(start, Models.FrequencyMonthly, 1, 31)
	assert.True(t, end.Add(Tick).Equal(time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC)))

	// Leap year February keeps the 29th.
	start = time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	end = PeriodEnd(start, Models.FrequencyMonthly, 1, 31)
	assert.True(t, end.Add(Tick).Equal(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)))
}

func TestPeriodEndMonthlyDayOfMonthAnchor(t *testing.T) {
	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	end := PeriodEnd(start, Models.FrequencyMonthly, 1, 1)
	assert.True(t, end.Add(Tick).Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))

	end = PeriodEnd(start, Models.FrequencyMonthly, 2, 10)
	assert.True(t, end.Add(Tick).Equal(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)))
}

func TestValidateSchedule(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		schedule Models.TaskSchedule
		wantErr  string
	}{
		{
			name:     "unknown frequency",
			schedule: Models.TaskSchedule{Frequency: "FORTNIGHTLY", Interval: 1, StartDate: start},
			wantErr:  "unknown frequency",
		},
		{
			name:     "zero interval",
			schedule: Models.TaskSchedule{Frequency: Models.FrequencyDaily, Interval: 0, StartDate: start},
			wantErr:  "interval",
		},
		{
			name:     "day of month on weekly",
			schedule: Models.TaskSchedule{Frequency: Models.FrequencyWeekly, Interval: 1, DayOfMonth: 5, StartDate: start},
			wantErr:  "day of month only applies",
		},
		{
			name:     "day of month out of range",
			schedule: Models.TaskSchedule{Frequency: Models.FrequencyMonthly, Interval: 1, DayOfMonth: 32, StartDate: start},
			wantErr:  "between 1 and 31",
		},
		{
			name: "end before start",
			schedule: Models.TaskSchedule{
				Frequency: Models.FrequencyDaily, Interval: 1,
				StartDate: start, EndDate: timePtr(start.AddDate(0, 0, -1)),
			},
			wantErr: "end date is before start date",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSchedule(&tt.schedule)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	valid := Models.TaskSchedule{Frequency: Models.FrequencyMonthly, Interval: 1, DayOfMonth: 15, StartDate: start}
	assert.NoError(t, ValidateSchedule(&valid))
}

func TestCreateScheduleUnknownTemplate(t *testing.T) {
	e := newTestEngine(t)
	schedule := Models.TaskSchedule{
		TemplateID: 999,
		Frequency:  Models.FrequencyDaily,
		Interval:   1,
		StartDate:  testBase,
	}
	err := e.CreateSchedule(testCompany, &schedule)
	assert.ErrorIs(t, err, ErrNotFound)
}
