package Controllers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"Taskforce/Models"
	"Taskforce/Tasks"
	"Taskforce/email"
	"Taskforce/middleware"
)

// TaskInstanceController exposes work items, their progress ledger and the
// completion/approval state machine.
type TaskInstanceController struct {
	DB     *gorm.DB
	Engine *Tasks.Engine
}

func NewTaskInstanceController(db *gorm.DB, engine *Tasks.Engine) *TaskInstanceController {
	return &TaskInstanceController{DB: db, Engine: engine}
}

func (c *TaskInstanceController) GetInstances(ctx *fiber.Ctx) error {
	user := middleware.CurrentUser(ctx)
	instances, err := c.Engine.ListInstances(user.CompanyID, instanceFilterFromQuery(ctx))
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(instances)
}

func (c *TaskInstanceController) GetInstance(ctx *fiber.Ctx) error {
	user := middleware.CurrentUser(ctx)
	id, err := paramID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid instance ID"})
	}

	instance, err := c.Engine.GetInstance(user.CompanyID, id)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(instance)
}

type TaskInstanceInput struct {
	TemplateID   uint     `json:"template_id" validate:"required"`
	CycleID      uint     `json:"cycle_id" validate:"required"`
	Scope        string   `json:"scope" validate:"required,oneof=INDIVIDUAL DEPARTMENT"`
	EmployeeID   *uint    `json:"employee_id"`
	DepartmentID *uint    `json:"department_id"`
	Level        int      `json:"level" validate:"omitempty,min=1"`
	Required     bool     `json:"required"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Target       *float64 `json:"target" validate:"omitempty,gt=0"`
	Unit         string   `json:"unit"`
}

// CreateInstance registers a single work item directly; used to pre-seed the
// department-level parents that approval rolls results into.
func (c *TaskInstanceController) CreateInstance(ctx *fiber.Ctx) error {
	user := middleware.CurrentUser(ctx)
	var input TaskInstanceInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if messages := validateStruct(input); messages != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": messages})
	}

	instance := Models.TaskInstance{
		TemplateID:   input.TemplateID,
		CycleID:      input.CycleID,
		Scope:        input.Scope,
		EmployeeID:   input.EmployeeID,
		DepartmentID: input.DepartmentID,
		Level:        input.Level,
		Required:     input.Required,
		Title:        input.Title,
		Description:  input.Description,
		Target:       input.Target,
		Unit:         input.Unit,
	}
	if err := c.Engine.CreateInstance(user.CompanyID, &instance); err != nil {
		return respondError(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(instance)
}

// DeleteInstance is the explicit administrative removal path; nothing else
// ever deletes an instance.
func (c *TaskInstanceController) DeleteInstance(ctx *fiber.Ctx) error {
	user := middleware.CurrentUser(ctx)
	id, err := paramID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid instance ID"})
	}

	instance, err := c.Engine.GetInstance(user.CompanyID, id)
	if err != nil {
		return respondError(ctx, err)
	}
	c.DB.Delete(instance)
	return ctx.JSON(fiber.Map{"message": "Instance deleted successfully"})
}

type ProgressInput struct {
	Delta  float64        `json:"delta" validate:"required"`
	Source string         `json:"source"`
	Note   string         `json:"note"`
	Meta   datatypes.JSON `json:"meta"`
}

// UpdateProgress appends one signed delta to the instance's ledger.
func (c *TaskInstanceController) UpdateProgress(ctx *fiber.Ctx) error {
	user := middleware.CurrentUser(ctx)
	id, err := paramID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid instance ID"})
	}

	var input ProgressInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if messages := validateStruct(input); messages != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": messages})
	}

	instance, err := c.Engine.UpdateProgress(user.CompanyID, id, user.ID, input.Delta, input.Source, input.Note, input.Meta)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(instance)
}

// GetProgress returns the append-only event log for one instance.
func (c *TaskInstanceController) GetProgress(ctx *fiber.Ctx) error {
	user := middleware.CurrentUser(ctx)
	id, err := paramID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid instance ID"})
	}

	events, err := c.Engine.ListProgress(user.CompanyID, id)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(events)
}

type CompleteInput struct {
	Note string `json:"note"`
}

func (c *TaskInstanceController) Complete(ctx *fiber.Ctx) error {
	user := middleware.CurrentUser(ctx)
	id, err := paramID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid instance ID"})
	}

	var input CompleteInput
	if err := ctx.BodyParser(&input); err != nil && len(ctx.Body()) > 0 {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	instance, err := c.Engine.Complete(user.CompanyID, id, user.ID, input.Note)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(instance)
}

func (c *TaskInstanceController) Approve(ctx *fiber.Ctx) error {
	user := middleware.CurrentUser(ctx)
	id, err := paramID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid instance ID"})
	}

	instance, err := c.Engine.Approve(user.CompanyID, id, user.ID)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(instance)
}

type RejectInput struct {
	Reason string `json:"reason" validate:"required"`
}

func (c *TaskInstanceController) Reject(ctx *fiber.Ctx) error {
	user := middleware.CurrentUser(ctx)
	id, err := paramID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid instance ID"})
	}

	var input RejectInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if messages := validateStruct(input); messages != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": messages})
	}

	instance, err := c.Engine.Reject(user.CompanyID, id, user.ID, input.Reason)
	if err != nil {
		return respondError(ctx, err)
	}

	if instance.EmployeeID != nil {
		var employee Models.Employee
		if err := c.DB.Where("company_id = ?", user.CompanyID).First(&employee, *instance.EmployeeID).Error; err == nil {
			email.NotifyRejection(employee.Email, instance.Title, input.Reason)
		}
	}
	return ctx.JSON(instance)
}

// GetApprovals returns the approve/reject audit trail for one instance.
func (c *TaskInstanceController) GetApprovals(ctx *fiber.Ctx) error {
	user := middleware.CurrentUser(ctx)
	id, err := paramID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid instance ID"})
	}

	approvals, err := c.Engine.ListApprovals(user.CompanyID, id)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(approvals)
}
