package Tasks

import (
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"Taskforce/Models"
)

// GenerateInstances fans one cycle out into concrete work items: one per
// active employee for INDIVIDUAL templates, one per department for DEPARTMENT
// templates. A cycle is fanned out exactly once; calling this on a populated
// cycle is a caller bug, not a retryable condition.
func (e *Engine) GenerateInstances(companyID, cycleID uint) ([]Models.TaskInstance, error) {
	cycle, template, err := e.findCycle(e.DB, companyID, cycleID)
	if err != nil {
		return nil, fmt.Errorf("%w: cycle %d", ErrNotFound, cycleID)
	}

	var existing int64
	if err := e.DB.Model(&Models.TaskInstance{}).Where("cycle_id = ?", cycle.ID).Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, fmt.Errorf("%w: instances already generated for cycle %d", ErrValidation, cycle.ID)
	}

	var instances []Models.TaskInstance
	switch template.Scope {
	case Models.ScopeIndividual:
		var employees []Models.Employee
		err := e.DB.Where("company_id = ? AND active = ?", companyID, true).Find(&employees).Error
		if err != nil {
			return nil, err
		}
		for i := range employees {
			emp := employees[i]
			deptID := emp.DepartmentID
			instances = append(instances, Models.TaskInstance{
				TemplateID:   template.ID,
				CycleID:      cycle.ID,
				Scope:        Models.ScopeIndividual,
				EmployeeID:   &emp.ID,
				DepartmentID: &deptID,
				Level:        1,
				Title:        template.Title,
				Description:  template.Description,
				Target:       template.DefaultTarget,
				Unit:         template.Unit,
				Status:       Models.StatusPending,
			})
		}
	case Models.ScopeDepartment:
		var departments []Models.Department
		err := e.DB.Where("company_id = ? AND active = ?", companyID, true).Find(&departments).Error
		if err != nil {
			return nil, err
		}
		for i := range departments {
			deptID := departments[i].ID
			instances = append(instances, Models.TaskInstance{
				TemplateID:   template.ID,
				CycleID:      cycle.ID,
				Scope:        Models.ScopeDepartment,
				DepartmentID: &deptID,
				Level:        template.Level,
				Title:        template.Title,
				Description:  template.Description,
				Target:       template.DefaultTarget,
				Unit:         template.Unit,
				Status:       Models.StatusPending,
			})
		}
	default:
		return nil, fmt.Errorf("%w: template %d has unknown scope %q", ErrValidation, template.ID, template.Scope)
	}

	if len(instances) == 0 {
		return instances, nil
	}

	// One batch, one transaction: either the whole fan-out lands or none of it.
	err = e.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&instances).Error
	})
	if err != nil {
		return nil, err
	}
	return instances, nil
}

// CreateInstance persists a single work item directly, used to pre-seed
// parent-level department instances that approval aggregates into.
func (e *Engine) CreateInstance(companyID uint, instance *Models.TaskInstance) error {
	var template Models.TaskTemplate
	if err := e.DB.Where("company_id = ?", companyID).First(&template, instance.TemplateID).Error; err != nil {
		return fmt.Errorf("%w: template %d", ErrNotFound, instance.TemplateID)
	}
	var cycle Models.TaskCycle
	if err := e.DB.First(&cycle, instance.CycleID).Error; err != nil {
		return fmt.Errorf("%w: cycle %d", ErrNotFound, instance.CycleID)
	}

	switch instance.Scope {
	case Models.ScopeIndividual:
		if instance.EmployeeID == nil {
			return fmt.Errorf("%w: INDIVIDUAL instance requires an employee", ErrValidation)
		}
	case Models.ScopeDepartment:
		if instance.DepartmentID == nil {
			return fmt.Errorf("%w: DEPARTMENT instance requires a department", ErrValidation)
		}
		if instance.EmployeeID != nil {
			return fmt.Errorf("%w: DEPARTMENT instance cannot carry an employee", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown scope %q", ErrValidation, instance.Scope)
	}

	if instance.Level < 1 {
		instance.Level = 1
	}
	if instance.Status == "" {
		instance.Status = Models.StatusPending
	}
	return e.DB.Create(instance).Error
}

// UpdateProgress appends one signed delta to the instance's event log and
// refreshes the cached quantity, atomically. The running total can never go
// negative. First progress moves a PENDING instance to IN_PROGRESS.
func (e *Engine) UpdateProgress(companyID, instanceID, actorID uint, delta float64, source, note string, meta datatypes.JSON) (*Models.TaskInstance, error) {
	var updated *Models.TaskInstance
	err := e.DB.Transaction(func(tx *gorm.DB) error {
		// Fresh read inside the transaction; a stale quantity would lose
		// concurrent updates.
		instance, err := e.findInstance(tx, companyID, instanceID)
		if err != nil {
			return fmt.Errorf("%w: instance %d", ErrNotFound, instanceID)
		}

		newQuantity := instance.Quantity + delta
		if newQuantity < 0 {
			return fmt.Errorf("%w: progress delta %v would drive quantity below zero", ErrValidation, delta)
		}

		event := Models.TaskProgressEvent{
			InstanceID: instance.ID,
			Delta:      delta,
			Source:     source,
			Note:       note,
			OccurredAt: e.Now(),
			ActorID:    actorID,
			Meta:       meta,
		}
		if err := tx.Create(&event).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{"quantity": newQuantity}
		if instance.Status == Models.StatusPending {
			updates["status"] = Models.StatusInProgress
			instance.Status = Models.StatusInProgress
		}
		if err := tx.Model(instance).Updates(updates).Error; err != nil {
			return err
		}
		instance.Quantity = newQuantity
		updated = instance
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// InstanceFilter narrows instance queries; nil/empty fields are ignored.
type InstanceFilter struct {
	CycleID      *uint
	TemplateID   *uint
	EmployeeID   *uint
	DepartmentID *uint
	Scope        string
	Status       string
	Level        *int
}

func (f InstanceFilter) apply(q *gorm.DB) *gorm.DB {
	if f.CycleID != nil {
		q = q.Where("task_instances.cycle_id = ?", *f.CycleID)
	}
	if f.TemplateID != nil {
		q = q.Where("task_instances.template_id = ?", *f.TemplateID)
	}
	if f.EmployeeID != nil {
		q = q.Where("task_instances.employee_id = ?", *f.EmployeeID)
	}
	if f.DepartmentID != nil {
		q = q.Where("task_instances.department_id = ?", *f.DepartmentID)
	}
	if f.Scope != "" {
		q = q.Where("task_instances.scope = ?", f.Scope)
	}
	if f.Status != "" {
		q = q.Where("task_instances.status = ?", f.Status)
	}
	if f.Level != nil {
		q = q.Where("task_instances.level = ?", *f.Level)
	}
	return q
}

func (e *Engine) instanceQuery(companyID uint, f InstanceFilter) *gorm.DB {
	q := e.DB.Model(&Models.TaskInstance{}).
		Joins("JOIN task_templates ON task_templates.id = task_instances.template_id").
		Where("task_templates.company_id = ?", companyID)
	return f.apply(q)
}

// ListInstances returns the company's instances matching the filter.
func (e *Engine) ListInstances(companyID uint, f InstanceFilter) ([]Models.TaskInstance, error) {
	var instances []Models.TaskInstance
	err := e.instanceQuery(companyID, f).
		Order("task_instances.id ASC").
		Find(&instances).Error
	return instances, err
}

// GetInstance returns one instance scoped to the company.
func (e *Engine) GetInstance(companyID, instanceID uint) (*Models.TaskInstance, error) {
	instance, err := e.findInstance(e.DB, companyID, instanceID)
	if err != nil {
		return nil, fmt.Errorf("%w: instance %d", ErrNotFound, instanceID)
	}
	return instance, nil
}

// ListProgress returns the append-only event log for one instance.
func (e *Engine) ListProgress(companyID, instanceID uint) ([]Models.TaskProgressEvent, error) {
	if _, err := e.findInstance(e.DB, companyID, instanceID); err != nil {
		return nil, fmt.Errorf("%w: instance %d", ErrNotFound, instanceID)
	}
	var events []Models.TaskProgressEvent
	err := e.DB.Where("instance_id = ?", instanceID).Order("id ASC").Find(&events).Error
	return events, err
}
