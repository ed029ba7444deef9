package Tasks

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"Taskforce/Models"
)

const testCompany uint = 1

var testBase = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Models.Migrate(db))

	engine := NewEngine(db)
	engine.Now = func() time.Time { return testBase }
	return engine
}

func createDepartment(t *testing.T, e *Engine, name string) Models.Department {
	t.Helper()
	department := Models.Department{CompanyID: testCompany, Name: name, Active: true}
	require.NoError(t, e.DB.Create(&department).Error)
	return department
}

func createEmployee(t *testing.T, e *Engine, departmentID uint, name string, active bool) Models.Employee {
	t.Helper()
	employee := Models.Employee{
		CompanyID:    testCompany,
		DepartmentID: departmentID,
		Name:         name,
		Active:       active,
	}
	require.NoError(t, e.DB.Create(&employee).Error)
	return employee
}

func createTemplate(t *testing.T, e *Engine, scope string, level int, target *float64, rule string) Models.TaskTemplate {
	t.Helper()
	template := Models.TaskTemplate{
		CompanyID:       testCompany,
		Title:           "Safety inspection",
		Description:     "Weekly safety walkthrough",
		Scope:           scope,
		Level:           level,
		Unit:            "checks",
		DefaultTarget:   target,
		AggregationRule: rule,
		Active:          true,
	}
	require.NoError(t, e.DB.Create(&template).Error)
	return template
}

func createSchedule(t *testing.T, e *Engine, templateID uint, frequency string, interval int, start time.Time, end *time.Time) Models.TaskSchedule {
	t.Helper()
	schedule := Models.TaskSchedule{
		TemplateID: templateID,
		Frequency:  frequency,
		Interval:   interval,
		StartDate:  start,
		EndDate:    end,
	}
	require.NoError(t, e.CreateSchedule(testCompany, &schedule))
	return schedule
}

func target(v float64) *float64 {
	return &v
}

func timePtr(v time.Time) *time.Time {
	return &v
}
