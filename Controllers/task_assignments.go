package Controllers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"Taskforce/Models"
	"Taskforce/Tasks"
	"Taskforce/email"
	"Taskforce/middleware"
)

// TaskAssignmentController handles the lean cycle-employee binding track.
type TaskAssignmentController struct {
	DB     *gorm.DB
	Engine *Tasks.Engine
}

func NewTaskAssignmentController(db *gorm.DB, engine *Tasks.Engine) *TaskAssignmentController {
	return &TaskAssignmentController{DB: db, Engine: engine}
}

func (c *TaskAssignmentController) GetAssignments(ctx *fiber.Ctx) error {
	user := middleware.CurrentUser(ctx)
	cycleID, err := paramID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid cycle ID"})
	}

	assignments, err := c.Engine.ListAssignments(user.CompanyID, cycleID, queryUint(ctx, "employee_id"), ctx.Query("status"))
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(assignments)
}

type AssignInput struct {
	EmployeeID uint `json:"employee_id" validate:"required"`
}

// Assign binds one employee to the cycle.
func (c *TaskAssignmentController) Assign(ctx *fiber.Ctx) error {
	user := middleware.CurrentUser(ctx)
	cycleID, err := paramID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid cycle ID"})
	}

	var input AssignInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if messages := validateStruct(input); messages != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": messages})
	}

	assignment, err := c.Engine.Assign(user.CompanyID, cycleID, input.EmployeeID)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(assignment)
}

type AssignBulkInput struct {
	EmployeeIDs  []uint `json:"employee_ids"`
	DepartmentID *uint  `json:"department_id"`
}

// AssignBulk binds a batch of employees to the cycle, skipping pairs that
// already exist.
func (c *TaskAssignmentController) AssignBulk(ctx *fiber.Ctx) error {
	user := middleware.CurrentUser(ctx)
	cycleID, err := paramID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid cycle ID"})
	}

	var input AssignBulkInput
	if err := ctx.BodyParser(&input); err != nil && len(ctx.Body()) > 0 {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	assigned, skipped, err := c.Engine.AssignEmployees(user.CompanyID, cycleID, input.EmployeeIDs, input.DepartmentID)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{"assigned": assigned, "skipped": skipped})
}

func (c *TaskAssignmentController) Complete(ctx *fiber.Ctx) error {
	user := middleware.CurrentUser(ctx)
	id, err := paramID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid assignment ID"})
	}

	var input CompleteInput
	if err := ctx.BodyParser(&input); err != nil && len(ctx.Body()) > 0 {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	assignment, err := c.Engine.CompleteAssignment(user.CompanyID, id, user.ID, input.Note)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(assignment)
}

func (c *TaskAssignmentController) Approve(ctx *fiber.Ctx) error {
	user := middleware.CurrentUser(ctx)
	id, err := paramID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid assignment ID"})
	}

	assignment, err := c.Engine.ApproveAssignment(user.CompanyID, id, user.ID)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(assignment)
}

func (c *TaskAssignmentController) Reject(ctx *fiber.Ctx) error {
	user := middleware.CurrentUser(ctx)
	id, err := paramID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid assignment ID"})
	}

	var input RejectInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if messages := validateStruct(input); messages != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": messages})
	}

	assignment, err := c.Engine.RejectAssignment(user.CompanyID, id, user.ID, input.Reason)
	if err != nil {
		return respondError(ctx, err)
	}

	var employee Models.Employee
	if err := c.DB.Where("company_id = ?", user.CompanyID).First(&employee, assignment.EmployeeID).Error; err == nil {
		var title string
		c.DB.Model(&Models.TaskTemplate{}).
			Joins("JOIN task_schedules ON task_schedules.template_id = task_templates.id").
			Joins("JOIN task_cycles ON task_cycles.schedule_id = task_schedules.id").
			Where("task_cycles.id = ?", assignment.CycleID).
			Select("task_templates.title").
			Scan(&title)
		email.NotifyRejection(employee.Email, title, input.Reason)
	}
	return ctx.JSON(assignment)
}
