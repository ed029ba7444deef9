package Tasks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Taskforce/Models"
)

// seedCycle builds a template+schedule+cycle chain and returns the pieces.
func seedCycle(t *testing.T, e *Engine, scope string, level int, tgt *float64, rule string) (Models.TaskTemplate, Models.TaskCycle) {
	t.Helper()
	template := createTemplate(t, e, scope, level, tgt, rule)
	end := testBase.AddDate(0, 0, 7)
	schedule := createSchedule(t, e, template.ID, Models.FrequencyWeekly, 1, testBase, &end)
	cycles, err := e.GenerateCycles(testCompany, schedule.ID)
	require.NoError(t, err)
	require.Len(t, cycles, 1)
	return template, cycles[0]
}

func TestGenerateInstancesIndividual(t *testing.T) {
	e := newTestEngine(t)
	department := createDepartment(t, e, "Service")
	createEmployee(t, e, department.ID, "Amira", true)
	createEmployee(t, e, department.ID, "Basel", true)
	createEmployee(t, e, department.ID, "Chen", true)
	createEmployee(t, e, department.ID, "Dina", false) // inactive, skipped

	template, cycle := seedCycle(t, e, Models.ScopeIndividual, 1, target(50), Models.AggregationSum)

	instances, err := e.GenerateInstances(testCompany, cycle.ID)
	require.NoError(t, err)
	require.Len(t, instances, 3)

	for _, instance := range instances {
		assert.Equal(t, Models.StatusPending, instance.Status)
		assert.Equal(t, Models.ScopeIndividual, instance.Scope)
		assert.Equal(t, 1, instance.Level)
		assert.Equal(t, template.Title, instance.Title)
		assert.Equal(t, template.Unit, instance.Unit)
		require.NotNil(t, instance.Target)
		assert.Equal(t, 50.0, *instance.Target)
		require.NotNil(t, instance.EmployeeID)
		require.NotNil(t, instance.DepartmentID)
		assert.Equal(t, department.ID, *instance.DepartmentID)
		assert.Zero(t, instance.Quantity)
	}
}

func TestInactiveDirectoryRecordsPersistInactive(t *testing.T) {
	e := newTestEngine(t)
	department := createDepartment(t, e, "Service")
	employee := createEmployee(t, e, department.ID, "Dina", false)

	// The false flag must survive the INSERT; a schema-side default would
	// swallow it and inactive staff would re-enter fan-out and bulk assign.
	var stored Models.Employee
	require.NoError(t, e.DB.First(&stored, employee.ID).Error)
	assert.False(t, stored.Active)

	closed := Models.Department{CompanyID: testCompany, Name: "Legacy", Active: false}
	require.NoError(t, e.DB.Create(&closed).Error)
	var storedDept Models.Department
	require.NoError(t, e.DB.First(&storedDept, closed.ID).Error)
	assert.False(t, storedDept.Active)

	inactive := Models.TaskTemplate{
		CompanyID:       testCompany,
		Title:           "Retired checklist",
		Scope:           Models.ScopeIndividual,
		Level:           1,
		AggregationRule: Models.AggregationSum,
		Active:          false,
	}
	require.NoError(t, e.DB.Create(&inactive).Error)
	var storedTemplate Models.TaskTemplate
	require.NoError(t, e.DB.First(&storedTemplate, inactive.ID).Error)
	assert.False(t, storedTemplate.Active)
}

func TestGenerateInstancesDepartment(t *testing.T) {
	e := newTestEngine(t)
	createDepartment(t, e, "Service")
	createDepartment(t, e, "Warehouse")
	inactive := createDepartment(t, e, "Legacy")
	require.NoError(t, e.DB.Model(&inactive).Update("active", false).Error)

	template, cycle := seedCycle(t, e, Models.ScopeDepartment, 2, nil, Models.AggregationSum)

	instances, err := e.GenerateInstances(testCompany, cycle.ID)
	require.NoError(t, err)
	require.Len(t, instances, 2)

	for _, instance := range instances {
		assert.Equal(t, Models.ScopeDepartment, instance.Scope)
		assert.Equal(t, template.Level, instance.Level)
		assert.Nil(t, instance.EmployeeID)
		require.NotNil(t, instance.DepartmentID)
	}
}

func TestGenerateInstancesTwiceFails(t *testing.T) {
	e := newTestEngine(t)
	department := createDepartment(t, e, "Service")
	createEmployee(t, e, department.ID, "Amira", true)
	_, cycle := seedCycle(t, e, Models.ScopeIndividual, 1, nil, Models.AggregationSum)

	_, err := e.GenerateInstances(testCompany, cycle.ID)
	require.NoError(t, err)

	_, err = e.GenerateInstances(testCompany, cycle.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "already generated")
}

func TestCreateInstanceScopeValidation(t *testing.T) {
	e := newTestEngine(t)
	department := createDepartment(t, e, "Service")
	employee := createEmployee(t, e, department.ID, "Amira", true)
	template, cycle := seedCycle(t, e, Models.ScopeIndividual, 1, nil, Models.AggregationSum)

	missing := Models.TaskInstance{
		TemplateID: template.ID,
		CycleID:    cycle.ID,
		Scope:      Models.ScopeIndividual,
	}
	err := e.CreateInstance(testCompany, &missing)
	assert.ErrorIs(t, err, ErrValidation)

	both := Models.TaskInstance{
		TemplateID:   template.ID,
		CycleID:      cycle.ID,
		Scope:        Models.ScopeDepartment,
		EmployeeID:   &employee.ID,
		DepartmentID: &department.ID,
	}
	err = e.CreateInstance(testCompany, &both)
	assert.ErrorIs(t, err, ErrValidation)

	parent := Models.TaskInstance{
		TemplateID:   template.ID,
		CycleID:      cycle.ID,
		Scope:        Models.ScopeDepartment,
		DepartmentID: &department.ID,
		Level:        2,
	}
	require.NoError(t, e.CreateInstance(testCompany, &parent))
	assert.Equal(t, Models.StatusPending, parent.Status)
}

func TestUpdateProgressLedgerConsistency(t *testing.T) {
	e := newTestEngine(t)
	department := createDepartment(t, e, "Service")
	createEmployee(t, e, department.ID, "Amira", true)
	_, cycle := seedCycle(t, e, Models.ScopeIndividual, 1, nil, Models.AggregationSum)

	instances, err := e.GenerateInstances(testCompany, cycle.ID)
	require.NoError(t, err)
	instance := instances[0]

	deltas := []float64{10, 5.5, -3, 7.5}
	for _, delta := range deltas {
		_, err := e.UpdateProgress(testCompany, instance.ID, 1, delta, "manual", "", nil)
		require.NoError(t, err)
	}

	updated, err := e.GetInstance(testCompany, instance.ID)
	require.NoError(t, err)
	assert.Equal(t, 20.0, updated.Quantity)
	assert.Equal(t, Models.StatusInProgress, updated.Status)

	// The cached quantity must equal the sum of all logged deltas.
	var sum float64
	require.NoError(t, e.DB.Model(&Models.TaskProgressEvent{}).
		Where("instance_id = ?", instance.ID).
		Select("COALESCE(SUM(delta), 0)").Scan(&sum).Error)
	assert.Equal(t, updated.Quantity, sum)

	events, err := e.ListProgress(testCompany, instance.ID)
	require.NoError(t, err)
	assert.Len(t, events, len(deltas))
}

func TestUpdateProgressFirstDeltaStartsInstance(t *testing.T) {
	e := newTestEngine(t)
	department := createDepartment(t, e, "Service")
	createEmployee(t, e, department.ID, "Amira", true)
	_, cycle := seedCycle(t, e, Models.ScopeIndividual, 1, nil, Models.AggregationSum)

	instances, err := e.GenerateInstances(testCompany, cycle.ID)
	require.NoError(t, err)
	require.Equal(t, Models.StatusPending, instances[0].Status)

	updated, err := e.UpdateProgress(testCompany, instances[0].ID, 1, 1, "webhook", "", nil)
	require.NoError(t, err)
	assert.Equal(t, Models.StatusInProgress, updated.Status)
}

func TestUpdateProgressRejectsNegativeTotal(t *testing.T) {
	e := newTestEngine(t)
	department := createDepartment(t, e, "Service")
	createEmployee(t, e, department.ID, "Amira", true)
	_, cycle := seedCycle(t, e, Models.ScopeIndividual, 1, nil, Models.AggregationSum)

	instances, err := e.GenerateInstances(testCompany, cycle.ID)
	require.NoError(t, err)
	instance := instances[0]

	_, err = e.UpdateProgress(testCompany, instance.ID, 1, 10, "manual", "", nil)
	require.NoError(t, err)

	_, err = e.UpdateProgress(testCompany, instance.ID, 1, -15, "manual", "", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)

	// Rejected delta leaves both the projection and the log untouched.
	updated, err := e.GetInstance(testCompany, instance.ID)
	require.NoError(t, err)
	assert.Equal(t, 10.0, updated.Quantity)

	events, err := e.ListProgress(testCompany, instance.ID)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestUpdateProgressUnknownInstance(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.UpdateProgress(testCompany, 12345, 1, 1, "", "", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListInstancesFilters(t *testing.T) {
	e := newTestEngine(t)
	department := createDepartment(t, e, "Service")
	other := createDepartment(t, e, "Warehouse")
	createEmployee(t, e, department.ID, "Amira", true)
	createEmployee(t, e, other.ID, "Basel", true)
	_, cycle := seedCycle(t, e, Models.ScopeIndividual, 1, nil, Models.AggregationSum)

	_, err := e.GenerateInstances(testCompany, cycle.ID)
	require.NoError(t, err)

	all, err := e.ListInstances(testCompany, InstanceFilter{CycleID: &cycle.ID})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byDept, err := e.ListInstances(testCompany, InstanceFilter{CycleID: &cycle.ID, DepartmentID: &department.ID})
	require.NoError(t, err)
	assert.Len(t, byDept, 1)

	byStatus, err := e.ListInstances(testCompany, InstanceFilter{Status: Models.StatusApproved})
	require.NoError(t, err)
	assert.Empty(t, byStatus)

	// Other tenants never see these rows.
	foreign, err := e.ListInstances(testCompany+1, InstanceFilter{})
	require.NoError(t, err)
	assert.Empty(t, foreign)
}
