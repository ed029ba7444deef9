package Tasks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Taskforce/Models"
)

func TestAssignAndDuplicateConflict(t *testing.T) {
	e := newTestEngine(t)
	department := createDepartment(t, e, "Service")
	employee := createEmployee(t, e, department.ID, "Amira", true)
	_, cycle := seedCycle(t, e, Models.ScopeIndividual, 1, nil, Models.AggregationSum)

	assignment, err := e.Assign(testCompany, cycle.ID, employee.ID)
	require.NoError(t, err)
	assert.Equal(t, Models.StatusPending, assignment.Status)

	_, err = e.Assign(testCompany, cycle.ID, employee.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestAssignUnknownEmployee(t *testing.T) {
	e := newTestEngine(t)
	_, cycle := seedCycle(t, e, Models.ScopeIndividual, 1, nil, Models.AggregationSum)

	_, err := e.Assign(testCompany, cycle.ID, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAssignEmployeesExplicitList(t *testing.T) {
	e := newTestEngine(t)
	department := createDepartment(t, e, "Service")
	first := createEmployee(t, e, department.ID, "Amira", true)
	second := createEmployee(t, e, department.ID, "Basel", true)
	third := createEmployee(t, e, department.ID, "Chen", true)
	_, cycle := seedCycle(t, e, Models.ScopeIndividual, 1, nil, Models.AggregationSum)

	assigned, skipped, err := e.AssignEmployees(testCompany, cycle.ID, []uint{first.ID, second.ID}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, assigned)
	assert.Zero(t, skipped)

	// Re-running with one overlap only creates the new binding.
	assigned, skipped, err = e.AssignEmployees(testCompany, cycle.ID, []uint{second.ID, third.ID}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, assigned)
	assert.Equal(t, 1, skipped)

	// Everyone already assigned: the whole call is a conflict.
	_, _, err = e.AssignEmployees(testCompany, cycle.ID, []uint{first.ID, second.ID, third.ID}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestAssignEmployeesByDepartment(t *testing.T) {
	e := newTestEngine(t)
	service := createDepartment(t, e, "Service")
	warehouse := createDepartment(t, e, "Warehouse")
	createEmployee(t, e, service.ID, "Amira", true)
	createEmployee(t, e, service.ID, "Basel", true)
	createEmployee(t, e, service.ID, "Dina", false) // inactive
	createEmployee(t, e, warehouse.ID, "Chen", true)
	_, cycle := seedCycle(t, e, Models.ScopeIndividual, 1, nil, Models.AggregationSum)

	assigned, skipped, err := e.AssignEmployees(testCompany, cycle.ID, nil, &service.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, assigned)
	assert.Zero(t, skipped)

	assignments, err := e.ListAssignments(testCompany, cycle.ID, nil, "")
	require.NoError(t, err)
	assert.Len(t, assignments, 2)
}

func TestAssignEmployeesTemplateDepartmentFallback(t *testing.T) {
	e := newTestEngine(t)
	service := createDepartment(t, e, "Service")
	warehouse := createDepartment(t, e, "Warehouse")
	createEmployee(t, e, service.ID, "Amira", true)
	createEmployee(t, e, warehouse.ID, "Chen", true)

	template := createTemplate(t, e, Models.ScopeIndividual, 1, nil, Models.AggregationSum)
	require.NoError(t, e.DB.Model(&template).Update("department_id", service.ID).Error)
	end := testBase.AddDate(0, 0, 7)
	schedule := createSchedule(t, e, template.ID, Models.FrequencyWeekly, 1, testBase, &end)
	cycles, err := e.GenerateCycles(testCompany, schedule.ID)
	require.NoError(t, err)

	// No explicit list, no department: the template's own department wins.
	assigned, _, err := e.AssignEmployees(testCompany, cycles[0].ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, assigned)

	assignments, err := e.ListAssignments(testCompany, cycles[0].ID, nil, "")
	require.NoError(t, err)
	require.Len(t, assignments, 1)
}

func TestAssignEmployeesCompanyWideFallback(t *testing.T) {
	e := newTestEngine(t)
	service := createDepartment(t, e, "Service")
	warehouse := createDepartment(t, e, "Warehouse")
	createEmployee(t, e, service.ID, "Amira", true)
	createEmployee(t, e, warehouse.ID, "Chen", true)
	_, cycle := seedCycle(t, e, Models.ScopeIndividual, 1, nil, Models.AggregationSum)

	// Template has no owning department: every active employee is bound.
	assigned, _, err := e.AssignEmployees(testCompany, cycle.ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, assigned)
}

func TestCompleteAssignmentTimeGate(t *testing.T) {
	e := newTestEngine(t)
	department := createDepartment(t, e, "Service")
	employee := createEmployee(t, e, department.ID, "Amira", true)

	template := createTemplate(t, e, Models.ScopeIndividual, 1, nil, Models.AggregationSum)
	futureStart := testBase.AddDate(0, 0, 3)
	end := futureStart.AddDate(0, 0, 7)
	schedule := createSchedule(t, e, template.ID, Models.FrequencyWeekly, 1, futureStart, &end)
	cycles, err := e.GenerateCycles(testCompany, schedule.ID)
	require.NoError(t, err)
	require.Len(t, cycles, 1)

	assignment, err := e.Assign(testCompany, cycles[0].ID, employee.ID)
	require.NoError(t, err)

	// The period has not begun yet.
	_, err = e.CompleteAssignment(testCompany, assignment.ID, employee.ID, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)

	e.Now = func() time.Time { return futureStart }
	completed, err := e.CompleteAssignment(testCompany, assignment.ID, employee.ID, "done early")
	require.NoError(t, err)
	assert.Equal(t, Models.StatusCompleted, completed.Status)
	assert.Equal(t, "done early", completed.CompletionNote)
}

func TestAssignmentApproveRejectRoundTrip(t *testing.T) {
	e := newTestEngine(t)
	department := createDepartment(t, e, "Service")
	employee := createEmployee(t, e, department.ID, "Amira", true)
	_, cycle := seedCycle(t, e, Models.ScopeIndividual, 1, nil, Models.AggregationSum)

	assignment, err := e.Assign(testCompany, cycle.ID, employee.ID)
	require.NoError(t, err)

	// Approve before completion is illegal.
	_, err = e.ApproveAssignment(testCompany, assignment.ID, 9)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = e.CompleteAssignment(testCompany, assignment.ID, employee.ID, "")
	require.NoError(t, err)

	// Reject needs a reason.
	_, err = e.RejectAssignment(testCompany, assignment.ID, 9, "")
	assert.ErrorIs(t, err, ErrValidation)

	rejected, err := e.RejectAssignment(testCompany, assignment.ID, 9, "incomplete")
	require.NoError(t, err)
	assert.Equal(t, Models.StatusRejected, rejected.Status)

	// Rejected work can be redone and then approved.
	_, err = e.CompleteAssignment(testCompany, assignment.ID, employee.ID, "second try")
	require.NoError(t, err)
	approved, err := e.ApproveAssignment(testCompany, assignment.ID, 9)
	require.NoError(t, err)
	assert.Equal(t, Models.StatusApproved, approved.Status)
	assert.Nil(t, approved.RejectedBy)
	assert.Empty(t, approved.RejectReason)
}
