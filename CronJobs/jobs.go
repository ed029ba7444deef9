package CronJobs

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"Taskforce/Models"
	"Taskforce/Tasks"
)

// CycleRunner is the periodic trigger for the task engine: it materializes
// due cycles for every open schedule and sweeps ended cycles for expiry.
type CycleRunner struct {
	cronScheduler  *cron.Cron
	engine         *Tasks.Engine
	runImmediately bool
	jobID          cron.EntryID
}

// NewCycleRunner creates a runner around the engine.
func NewCycleRunner(engine *Tasks.Engine, runImmediately bool) *CycleRunner {
	return &CycleRunner{
		cronScheduler:  cron.New(),
		engine:         engine,
		runImmediately: runImmediately,
	}
}

// Start schedules the hourly run.
func (r *CycleRunner) Start() error {
	var err error
	r.jobID, err = r.cronScheduler.AddFunc("@hourly", func() {
		log.Info().Msg("running scheduled cycle generation")
		r.run()
	})
	if err != nil {
		return fmt.Errorf("error scheduling cron job: %w", err)
	}

	r.cronScheduler.Start()
	if r.runImmediately {
		r.run()
	}
	return nil
}

// Stop terminates the runner.
func (r *CycleRunner) Stop() {
	if r.cronScheduler != nil {
		r.cronScheduler.Stop()
		log.Info().Msg("cycle runner stopped")
	}
}

// UpdateSchedule changes the cron cadence, e.g. "*/15 * * * *".
func (r *CycleRunner) UpdateSchedule(schedule string) error {
	r.cronScheduler.Remove(r.jobID)

	var err error
	r.jobID, err = r.cronScheduler.AddFunc(schedule, func() {
		log.Info().Msg("running scheduled cycle generation")
		r.run()
	})
	if err != nil {
		return fmt.Errorf("error updating schedule: %w", err)
	}
	return nil
}

func (r *CycleRunner) run() {
	generated, err := r.engine.GenerateAllActive()
	if err != nil {
		log.Error().Err(err).Msg("cycle generation sweep failed")
	} else if generated > 0 {
		log.Info().Int("generated", generated).Msg("cycles generated")
	}
	r.sweepExpired()
}

// sweepExpired expires unfinished instances of every cycle whose period has
// ended but still carries work in a non-terminal status.
func (r *CycleRunner) sweepExpired() {
	type endedCycle struct {
		ID        uint
		CompanyID uint
	}
	var ended []endedCycle
	err := r.engine.DB.Model(&Models.TaskCycle{}).
		Select("task_cycles.id AS id, task_templates.company_id AS company_id").
		Joins("JOIN task_schedules ON task_schedules.id = task_cycles.schedule_id").
		Joins("JOIN task_templates ON task_templates.id = task_schedules.template_id").
		Where("task_cycles.period_end < ?", r.engine.Now()).
		Where("EXISTS (SELECT 1 FROM task_instances WHERE task_instances.cycle_id = task_cycles.id AND task_instances.status IN ?)",
			[]string{Models.StatusPending, Models.StatusInProgress, Models.StatusRejected}).
		Scan(&ended).Error
	if err != nil {
		log.Error().Err(err).Msg("expiry sweep query failed")
		return
	}

	for _, cycle := range ended {
		affected, err := r.engine.MarkExpired(cycle.CompanyID, cycle.ID)
		if err != nil {
			log.Warn().Err(err).Uint("cycle_id", cycle.ID).Msg("expiry sweep failed")
			continue
		}
		if affected > 0 {
			log.Info().Uint("cycle_id", cycle.ID).Int64("expired", affected).Msg("instances expired")
		}
	}
}
