package Controllers

import (
	"bytes"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"Taskforce/Tasks"
	"Taskforce/middleware"
)

// TaskStatisticsController serves per-status counts, completion rates and the
// Excel export of filtered instances.
type TaskStatisticsController struct {
	DB     *gorm.DB
	Engine *Tasks.Engine
}

func NewTaskStatisticsController(db *gorm.DB, engine *Tasks.Engine) *TaskStatisticsController {
	return &TaskStatisticsController{DB: db, Engine: engine}
}

func (c *TaskStatisticsController) GetStatistics(ctx *fiber.Ctx) error {
	user := middleware.CurrentUser(ctx)
	stats, err := c.Engine.Statistics(user.CompanyID, instanceFilterFromQuery(ctx))
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(stats)
}

// ExportInstances writes the filtered instances to a spreadsheet.
func (c *TaskStatisticsController) ExportInstances(ctx *fiber.Ctx) error {
	user := middleware.CurrentUser(ctx)
	instances, err := c.Engine.ListInstances(user.CompanyID, instanceFilterFromQuery(ctx))
	if err != nil {
		return respondError(ctx, err)
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := "Instances"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to build report"})
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"ID", "Title", "Cycle", "Scope", "Employee", "Department", "Level", "Target", "Quantity", "Unit", "Status", "Completed At", "Approved At"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for row, instance := range instances {
		values := []interface{}{
			instance.ID,
			instance.Title,
			instance.CycleID,
			instance.Scope,
			uintOrEmpty(instance.EmployeeID),
			uintOrEmpty(instance.DepartmentID),
			instance.Level,
			floatOrEmpty(instance.Target),
			instance.Quantity,
			instance.Unit,
			instance.Status,
			timeOrEmpty(instance.CompletedAt),
			timeOrEmpty(instance.ApprovedAt),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to write report"})
	}

	filename := fmt.Sprintf("task_instances_%s.xlsx", time.Now().Format("2006-01-02"))
	ctx.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return ctx.Send(buf.Bytes())
}

func uintOrEmpty(v *uint) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func floatOrEmpty(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func timeOrEmpty(v *time.Time) interface{} {
	if v == nil {
		return ""
	}
	return v.Format(time.RFC3339)
}
