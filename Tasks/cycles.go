package Tasks

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"Taskforce/Models"
)

// generationHorizon caps how far past now an open-ended schedule is
// materialized per invocation; the next invocation picks up from there.
const generationHorizon = 366 * 24 * time.Hour

// maxCyclesPerRun is a hard guard against runaway generation loops.
const maxCyclesPerRun = 1000

// GenerateCycles materializes every not-yet-generated period for one
// schedule, from the end of the last existing cycle (or the schedule start)
// up to the schedule's end date or the horizon. Safe to call repeatedly:
// the (schedule, period_start) unique index absorbs duplicate inserts.
func (e *Engine) GenerateCycles(companyID, scheduleID uint) ([]Models.TaskCycle, error) {
	var schedule Models.TaskSchedule
	err := e.DB.
		Joins("JOIN task_templates ON task_templates.id = task_schedules.template_id").
		Where("task_templates.company_id = ?", companyID).
		First(&schedule, "task_schedules.id = ?", scheduleID).Error
	if err != nil {
		return nil, fmt.Errorf("%w: schedule %d", ErrNotFound, scheduleID)
	}
	return e.generateForSchedule(&schedule)
}

func (e *Engine) generateForSchedule(schedule *Models.TaskSchedule) ([]Models.TaskCycle, error) {
	currentStart := schedule.StartDate
	var last Models.TaskCycle
	err := e.DB.Where("schedule_id = ?", schedule.ID).
		Order("period_start DESC").First(&last).Error
	if err == nil {
		currentStart = last.PeriodEnd.Add(Tick)
	}

	horizon := e.Now().Add(generationHorizon)
	var created []Models.TaskCycle

	for i := 0; i < maxCyclesPerRun; i++ {
		currentEnd := PeriodEnd(currentStart, schedule.Frequency, schedule.Interval, schedule.DayOfMonth)
		if schedule.EndDate != nil && currentEnd.After(*schedule.EndDate) {
			break
		}
		if schedule.EndDate == nil && currentStart.After(horizon) {
			break
		}

		cycle := Models.TaskCycle{
			ScheduleID:  schedule.ID,
			PeriodStart: currentStart,
			PeriodEnd:   currentEnd,
			GeneratedAt: e.Now(),
		}
		if err := e.DB.Create(&cycle).Error; err != nil {
			if isDuplicateErr(err) {
				// A concurrent generator already inserted this period; the
				// unique index is the safety net, keep walking.
				currentStart = currentEnd.Add(Tick)
				continue
			}
			return created, err
		}
		created = append(created, cycle)
		currentStart = currentEnd.Add(Tick)
	}
	return created, nil
}

// GenerateAllActive sweeps every schedule whose template is active and whose
// end date is unset or still in the future. Per-schedule failures are logged
// and do not stop the sweep. Returns the number of cycles created.
func (e *Engine) GenerateAllActive() (int, error) {
	var schedules []Models.TaskSchedule
	err := e.DB.
		Joins("JOIN task_templates ON task_templates.id = task_schedules.template_id").
		Where("task_templates.active = ?", true).
		Where("task_schedules.end_date IS NULL OR task_schedules.end_date > ?", e.Now()).
		Find(&schedules).Error
	if err != nil {
		return 0, err
	}

	total := 0
	for i := range schedules {
		created, err := e.generateForSchedule(&schedules[i])
		if err != nil {
			log.Warn().Err(err).Uint("schedule_id", schedules[i].ID).Msg("cycle generation failed")
			continue
		}
		total += len(created)
	}
	return total, nil
}
