package Controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"Taskforce/Models"
	"Taskforce/Tasks"
	"Taskforce/middleware"
)

// TaskScheduleController handles recurrence rules and cycle generation.
type TaskScheduleController struct {
	DB     *gorm.DB
	Engine *Tasks.Engine
}

func NewTaskScheduleController(db *gorm.DB, engine *Tasks.Engine) *TaskScheduleController {
	return &TaskScheduleController{DB: db, Engine: engine}
}

type TaskScheduleInput struct {
	TemplateID uint       `json:"template_id" validate:"required"`
	Frequency  string     `json:"frequency" validate:"required,oneof=NONE DAILY WEEKLY MONTHLY QUARTERLY YEARLY"`
	Interval   int        `json:"interval" validate:"omitempty,min=1"`
	DayOfMonth int        `json:"day_of_month" validate:"omitempty,min=1,max=31"`
	StartDate  time.Time  `json:"start_date" validate:"required"`
	EndDate    *time.Time `json:"end_date"`
}

func (c *TaskScheduleController) GetSchedules(ctx *fiber.Ctx) error {
	user := middleware.CurrentUser(ctx)
	q := c.DB.
		Joins("JOIN task_templates ON task_templates.id = task_schedules.template_id").
		Where("task_templates.company_id = ?", user.CompanyID)
	if templateID := queryUint(ctx, "template_id"); templateID != nil {
		q = q.Where("task_schedules.template_id = ?", *templateID)
	}

	var schedules []Models.TaskSchedule
	if err := q.Find(&schedules).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve schedules"})
	}
	return ctx.JSON(schedules)
}

func (c *TaskScheduleController) GetSchedule(ctx *fiber.Ctx) error {
	user := middleware.CurrentUser(ctx)
	id, err := paramID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid schedule ID"})
	}

	var schedule Models.TaskSchedule
	err = c.DB.
		Joins("JOIN task_templates ON task_templates.id = task_schedules.template_id").
		Where("task_templates.company_id = ?", user.CompanyID).
		Preload("Cycles").
		First(&schedule, "task_schedules.id = ?", id).Error
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Schedule not found"})
	}
	return ctx.JSON(schedule)
}

func (c *TaskScheduleController) CreateSchedule(ctx *fiber.Ctx) error {
	user := middleware.CurrentUser(ctx)
	var input TaskScheduleInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if messages := validateStruct(input); messages != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": messages})
	}

	schedule := Models.TaskSchedule{
		TemplateID: input.TemplateID,
		Frequency:  input.Frequency,
		Interval:   input.Interval,
		DayOfMonth: input.DayOfMonth,
		StartDate:  input.StartDate,
		EndDate:    input.EndDate,
	}
	if schedule.Interval < 1 {
		schedule.Interval = 1
	}
	if err := c.Engine.CreateSchedule(user.CompanyID, &schedule); err != nil {
		return respondError(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(schedule)
}

func (c *TaskScheduleController) DeleteSchedule(ctx *fiber.Ctx) error {
	user := middleware.CurrentUser(ctx)
	id, err := paramID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid schedule ID"})
	}

	var schedule Models.TaskSchedule
	err = c.DB.
		Joins("JOIN task_templates ON task_templates.id = task_schedules.template_id").
		Where("task_templates.company_id = ?", user.CompanyID).
		First(&schedule, "task_schedules.id = ?", id).Error
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Schedule not found"})
	}
	c.DB.Delete(&schedule)
	return ctx.JSON(fiber.Map{"message": "Schedule deleted successfully"})
}

// GenerateCycles materializes due periods for one schedule.
func (c *TaskScheduleController) GenerateCycles(ctx *fiber.Ctx) error {
	user := middleware.CurrentUser(ctx)
	id, err := paramID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid schedule ID"})
	}

	cycles, err := c.Engine.GenerateCycles(user.CompanyID, id)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(fiber.Map{"generated": len(cycles), "cycles": cycles})
}

// GenerateAllActive sweeps every open schedule of an active template.
func (c *TaskScheduleController) GenerateAllActive(ctx *fiber.Ctx) error {
	total, err := c.Engine.GenerateAllActive()
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(fiber.Map{"generated": total})
}
