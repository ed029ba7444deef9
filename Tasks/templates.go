package Tasks

import (
	"fmt"

	"Taskforce/Models"
)

// DeleteTemplate removes a template unless any of its schedules still has an
// open or unbounded validity window.
func (e *Engine) DeleteTemplate(companyID, templateID uint) error {
	var template Models.TaskTemplate
	if err := e.DB.Where("company_id = ?", companyID).First(&template, templateID).Error; err != nil {
		return fmt.Errorf("%w: template %d", ErrNotFound, templateID)
	}

	var open int64
	err := e.DB.Model(&Models.TaskSchedule{}).
		Where("template_id = ?", template.ID).
		Where("end_date IS NULL OR end_date > ?", e.Now()).
		Count(&open).Error
	if err != nil {
		return err
	}
	if open > 0 {
		return fmt.Errorf("%w: template has %d schedule(s) with an open validity window", ErrValidation, open)
	}
	return e.DB.Delete(&template).Error
}

// ToggleTemplate flips the active flag; inactive templates are skipped by the
// generate-all-active sweep.
func (e *Engine) ToggleTemplate(companyID, templateID uint) (*Models.TaskTemplate, error) {
	var template Models.TaskTemplate
	if err := e.DB.Where("company_id = ?", companyID).First(&template, templateID).Error; err != nil {
		return nil, fmt.Errorf("%w: template %d", ErrNotFound, templateID)
	}
	template.Active = !template.Active
	if err := e.DB.Model(&template).Update("active", template.Active).Error; err != nil {
		return nil, err
	}
	return &template, nil
}
