package Controllers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"Taskforce/Models"
	"Taskforce/Tasks"
	"Taskforce/middleware"
)

// TaskCycleController exposes generated periods and the cycle-level
// operations: instance fan-out and the expiry sweep.
type TaskCycleController struct {
	DB     *gorm.DB
	Engine *Tasks.Engine
}

func NewTaskCycleController(db *gorm.DB, engine *Tasks.Engine) *TaskCycleController {
	return &TaskCycleController{DB: db, Engine: engine}
}

type cycleView struct {
	Models.TaskCycle
	Status string `json:"status"`
}

func (c *TaskCycleController) GetCycles(ctx *fiber.Ctx) error {
	user := middleware.CurrentUser(ctx)
	q := c.DB.Model(&Models.TaskCycle{}).
		Joins("JOIN task_schedules ON task_schedules.id = task_cycles.schedule_id").
		Joins("JOIN task_templates ON task_templates.id = task_schedules.template_id").
		Where("task_templates.company_id = ?", user.CompanyID)
	if scheduleID := queryUint(ctx, "schedule_id"); scheduleID != nil {
		q = q.Where("task_cycles.schedule_id = ?", *scheduleID)
	}
	if templateID := queryUint(ctx, "template_id"); templateID != nil {
		q = q.Where("task_schedules.template_id = ?", *templateID)
	}

	var cycles []Models.TaskCycle
	if err := q.Order("task_cycles.period_start ASC").Find(&cycles).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve cycles"})
	}

	now := c.Engine.Now()
	views := make([]cycleView, 0, len(cycles))
	for i := range cycles {
		views = append(views, cycleView{TaskCycle: cycles[i], Status: cycles[i].StatusAt(now)})
	}
	return ctx.JSON(views)
}

func (c *TaskCycleController) GetCycle(ctx *fiber.Ctx) error {
	user := middleware.CurrentUser(ctx)
	id, err := paramID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid cycle ID"})
	}

	var cycle Models.TaskCycle
	err = c.DB.
		Joins("JOIN task_schedules ON task_schedules.id = task_cycles.schedule_id").
		Joins("JOIN task_templates ON task_templates.id = task_schedules.template_id").
		Where("task_templates.company_id = ?", user.CompanyID).
		First(&cycle, "task_cycles.id = ?", id).Error
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Cycle not found"})
	}
	return ctx.JSON(cycleView{TaskCycle: cycle, Status: cycle.StatusAt(c.Engine.Now())})
}

// GenerateInstances fans the cycle out into per-employee or per-department
// work items. One-shot: repeating the call is a 400.
func (c *TaskCycleController) GenerateInstances(ctx *fiber.Ctx) error {
	user := middleware.CurrentUser(ctx)
	id, err := paramID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid cycle ID"})
	}

	instances, err := c.Engine.GenerateInstances(user.CompanyID, id)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{"generated": len(instances), "instances": instances})
}

// MarkExpired sweeps a closed cycle's unfinished instances to EXPIRED.
func (c *TaskCycleController) MarkExpired(ctx *fiber.Ctx) error {
	user := middleware.CurrentUser(ctx)
	id, err := paramID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid cycle ID"})
	}

	affected, err := c.Engine.MarkExpired(user.CompanyID, id)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(fiber.Map{"expired": affected})
}
