package Tasks

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"Taskforce/Models"
)

// Engine runs the template -> schedule -> cycle -> instance pipeline against
// one relational store. Now is injected so tests can move period boundaries.
type Engine struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewEngine(db *gorm.DB) *Engine {
	return &Engine{DB: db, Now: time.Now}
}

// findCycle loads a cycle with its schedule and template, scoped to the
// calling company. Any missing link reads as not found.
func (e *Engine) findCycle(db *gorm.DB, companyID, cycleID uint) (*Models.TaskCycle, *Models.TaskTemplate, error) {
	var cycle Models.TaskCycle
	if err := db.First(&cycle, cycleID).Error; err != nil {
		return nil, nil, ErrNotFound
	}
	var schedule Models.TaskSchedule
	if err := db.First(&schedule, cycle.ScheduleID).Error; err != nil {
		return nil, nil, ErrNotFound
	}
	var template Models.TaskTemplate
	if err := db.Where("company_id = ?", companyID).First(&template, schedule.TemplateID).Error; err != nil {
		return nil, nil, ErrNotFound
	}
	return &cycle, &template, nil
}

// findInstance loads an instance scoped to the calling company through its
// template.
func (e *Engine) findInstance(db *gorm.DB, companyID, instanceID uint) (*Models.TaskInstance, error) {
	var instance Models.TaskInstance
	err := db.
		Joins("JOIN task_templates ON task_templates.id = task_instances.template_id").
		Where("task_templates.company_id = ?", companyID).
		First(&instance, "task_instances.id = ?", instanceID).Error
	if err != nil {
		return nil, ErrNotFound
	}
	return &instance, nil
}

func isDuplicateErr(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate entry")
}
