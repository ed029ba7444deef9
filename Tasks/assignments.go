package Tasks

import (
	"fmt"

	"gorm.io/gorm"

	"Taskforce/Models"
)

// Assign binds one employee to a cycle. Fails with Conflict when the pair
// already exists.
func (e *Engine) Assign(companyID, cycleID, employeeID uint) (*Models.TaskAssignment, error) {
	cycle, _, err := e.findCycle(e.DB, companyID, cycleID)
	if err != nil {
		return nil, fmt.Errorf("%w: cycle %d", ErrNotFound, cycleID)
	}

	var employee Models.Employee
	if err := e.DB.Where("company_id = ? AND active = ?", companyID, true).First(&employee, employeeID).Error; err != nil {
		return nil, fmt.Errorf("%w: employee %d", ErrNotFound, employeeID)
	}

	var existing int64
	err = e.DB.Model(&Models.TaskAssignment{}).
		Where("cycle_id = ? AND employee_id = ?", cycle.ID, employee.ID).
		Count(&existing).Error
	if err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, fmt.Errorf("%w: employee %d already assigned to cycle %d", ErrConflict, employee.ID, cycle.ID)
	}

	assignment := Models.TaskAssignment{
		CycleID:    cycle.ID,
		EmployeeID: employee.ID,
		Status:     Models.StatusPending,
	}
	if err := e.DB.Create(&assignment).Error; err != nil {
		if isDuplicateErr(err) {
			return nil, fmt.Errorf("%w: employee %d already assigned to cycle %d", ErrConflict, employee.ID, cycle.ID)
		}
		return nil, err
	}
	return &assignment, nil
}

// AssignEmployees binds a set of employees to a cycle in one batch. The set
// comes from an explicit id list, a department, or the template's own
// department (falling back to every active employee of the company). Already
// assigned employees are skipped; if nobody is left, the whole call is a
// conflict. Returns (assigned, skipped).
func (e *Engine) AssignEmployees(companyID, cycleID uint, employeeIDs []uint, departmentID *uint) (int, int, error) {
	cycle, template, err := e.findCycle(e.DB, companyID, cycleID)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: cycle %d", ErrNotFound, cycleID)
	}

	q := e.DB.Where("company_id = ? AND active = ?", companyID, true)
	switch {
	case len(employeeIDs) > 0:
		q = q.Where("id IN ?", employeeIDs)
	case departmentID != nil:
		q = q.Where("department_id = ?", *departmentID)
	case template.DepartmentID != nil:
		q = q.Where("department_id = ?", *template.DepartmentID)
	}

	var employees []Models.Employee
	if err := q.Find(&employees).Error; err != nil {
		return 0, 0, err
	}
	if len(employees) == 0 {
		return 0, 0, fmt.Errorf("%w: no active employees to assign", ErrNotFound)
	}

	var assignedIDs []uint
	err = e.DB.Model(&Models.TaskAssignment{}).
		Where("cycle_id = ?", cycle.ID).
		Pluck("employee_id", &assignedIDs).Error
	if err != nil {
		return 0, 0, err
	}
	already := make(map[uint]bool, len(assignedIDs))
	for _, id := range assignedIDs {
		already[id] = true
	}

	var assignments []Models.TaskAssignment
	skipped := 0
	for i := range employees {
		if already[employees[i].ID] {
			skipped++
			continue
		}
		assignments = append(assignments, Models.TaskAssignment{
			CycleID:    cycle.ID,
			EmployeeID: employees[i].ID,
			Status:     Models.StatusPending,
		})
	}
	if len(assignments) == 0 {
		return 0, skipped, fmt.Errorf("%w: all employees already assigned to cycle %d", ErrConflict, cycle.ID)
	}

	err = e.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&assignments).Error
	})
	if err != nil {
		return 0, 0, err
	}
	return len(assignments), skipped, nil
}

// findAssignment loads an assignment scoped to the calling company through
// its cycle's template.
func (e *Engine) findAssignment(db *gorm.DB, companyID, assignmentID uint) (*Models.TaskAssignment, *Models.TaskCycle, error) {
	var assignment Models.TaskAssignment
	if err := db.First(&assignment, assignmentID).Error; err != nil {
		return nil, nil, fmt.Errorf("%w: assignment %d", ErrNotFound, assignmentID)
	}
	cycle, _, err := e.findCycle(db, companyID, assignment.CycleID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: assignment %d", ErrNotFound, assignmentID)
	}
	return &assignment, cycle, nil
}

// CompleteAssignment marks an assignment COMPLETED. Gated on the cycle's
// period having begun; there is no target or quantity on this track.
func (e *Engine) CompleteAssignment(companyID, assignmentID, actorID uint, note string) (*Models.TaskAssignment, error) {
	assignment, cycle, err := e.findAssignment(e.DB, companyID, assignmentID)
	if err != nil {
		return nil, err
	}
	if !completableFrom[assignment.Status] {
		return nil, fmt.Errorf("%w: cannot complete assignment in status %s", ErrValidation, assignment.Status)
	}
	if e.Now().Before(cycle.PeriodStart) {
		return nil, fmt.Errorf("%w: cycle %d has not started yet", ErrValidation, cycle.ID)
	}

	now := e.Now()
	err = e.DB.Model(assignment).Updates(map[string]interface{}{
		"status":          Models.StatusCompleted,
		"completion_note": note,
		"completed_by":    actorID,
		"completed_at":    now,
	}).Error
	if err != nil {
		return nil, err
	}
	assignment.Status = Models.StatusCompleted
	assignment.CompletionNote = note
	assignment.CompletedBy = &actorID
	assignment.CompletedAt = &now
	return assignment, nil
}

// ApproveAssignment moves a COMPLETED assignment to APPROVED. Assignments are
// leaf-level, so there is no roll-up step.
func (e *Engine) ApproveAssignment(companyID, assignmentID, actorID uint) (*Models.TaskAssignment, error) {
	assignment, _, err := e.findAssignment(e.DB, companyID, assignmentID)
	if err != nil {
		return nil, err
	}
	if assignment.Status != Models.StatusCompleted {
		return nil, fmt.Errorf("%w: cannot approve assignment in status %s", ErrValidation, assignment.Status)
	}

	now := e.Now()
	err = e.DB.Model(assignment).Updates(map[string]interface{}{
		"status":        Models.StatusApproved,
		"approved_by":   actorID,
		"approved_at":   now,
		"rejected_by":   nil,
		"rejected_at":   nil,
		"reject_reason": "",
	}).Error
	if err != nil {
		return nil, err
	}
	assignment.Status = Models.StatusApproved
	assignment.ApprovedBy = &actorID
	assignment.ApprovedAt = &now
	assignment.RejectedBy = nil
	assignment.RejectedAt = nil
	assignment.RejectReason = ""
	return assignment, nil
}

// RejectAssignment moves a COMPLETED assignment back to REJECTED with a
// mandatory reason; the employee may complete it again.
func (e *Engine) RejectAssignment(companyID, assignmentID, actorID uint, reason string) (*Models.TaskAssignment, error) {
	if reason == "" {
		return nil, fmt.Errorf("%w: rejection requires a reason", ErrValidation)
	}
	assignment, _, err := e.findAssignment(e.DB, companyID, assignmentID)
	if err != nil {
		return nil, err
	}
	if assignment.Status != Models.StatusCompleted {
		return nil, fmt.Errorf("%w: cannot reject assignment in status %s", ErrValidation, assignment.Status)
	}

	now := e.Now()
	err = e.DB.Model(assignment).Updates(map[string]interface{}{
		"status":        Models.StatusRejected,
		"rejected_by":   actorID,
		"rejected_at":   now,
		"reject_reason": reason,
		"approved_by":   nil,
		"approved_at":   nil,
	}).Error
	if err != nil {
		return nil, err
	}
	assignment.Status = Models.StatusRejected
	assignment.RejectedBy = &actorID
	assignment.RejectedAt = &now
	assignment.RejectReason = reason
	assignment.ApprovedBy = nil
	assignment.ApprovedAt = nil
	return assignment, nil
}

// ListAssignments returns a cycle's assignments, optionally narrowed by
// employee or status.
func (e *Engine) ListAssignments(companyID, cycleID uint, employeeID *uint, status string) ([]Models.TaskAssignment, error) {
	cycle, _, err := e.findCycle(e.DB, companyID, cycleID)
	if err != nil {
		return nil, fmt.Errorf("%w: cycle %d", ErrNotFound, cycleID)
	}

	q := e.DB.Where("cycle_id = ?", cycle.ID)
	if employeeID != nil {
		q = q.Where("employee_id = ?", *employeeID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var assignments []Models.TaskAssignment
	err = q.Order("id ASC").Find(&assignments).Error
	return assignments, err
}
