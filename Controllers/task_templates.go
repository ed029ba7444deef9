package Controllers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"Taskforce/Models"
	"Taskforce/Tasks"
	"Taskforce/middleware"
)

// TaskTemplateController handles the reusable definitions of recurring work.
type TaskTemplateController struct {
	DB     *gorm.DB
	Engine *Tasks.Engine
}

func NewTaskTemplateController(db *gorm.DB, engine *Tasks.Engine) *TaskTemplateController {
	return &TaskTemplateController{DB: db, Engine: engine}
}

type TaskTemplateInput struct {
	Title           string   `json:"title" validate:"required"`
	Description     string   `json:"description"`
	Scope           string   `json:"scope" validate:"required,oneof=INDIVIDUAL DEPARTMENT"`
	Level           int      `json:"level" validate:"omitempty,min=1"`
	Unit            string   `json:"unit"`
	DefaultTarget   *float64 `json:"default_target" validate:"omitempty,gt=0"`
	AggregationRule string   `json:"aggregation_rule" validate:"omitempty,oneof=SUM AVERAGE MAX MIN COUNT"`
	DepartmentID    *uint    `json:"department_id"`
}

func (c *TaskTemplateController) GetTemplates(ctx *fiber.Ctx) error {
	user := middleware.CurrentUser(ctx)
	q := c.DB.Where("company_id = ?", user.CompanyID)
	if scope := ctx.Query("scope"); scope != "" {
		q = q.Where("scope = ?", scope)
	}
	if active := ctx.Query("active"); active != "" {
		q = q.Where("active = ?", active == "true")
	}

	var templates []Models.TaskTemplate
	if err := q.Find(&templates).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve templates"})
	}
	return ctx.JSON(templates)
}

func (c *TaskTemplateController) GetTemplate(ctx *fiber.Ctx) error {
	user := middleware.CurrentUser(ctx)
	id, err := paramID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid template ID"})
	}

	var template Models.TaskTemplate
	err = c.DB.Where("company_id = ?", user.CompanyID).
		Preload("Schedules").
		First(&template, id).Error
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Template not found"})
	}
	return ctx.JSON(template)
}

func (c *TaskTemplateController) CreateTemplate(ctx *fiber.Ctx) error {
	user := middleware.CurrentUser(ctx)
	var input TaskTemplateInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if messages := validateStruct(input); messages != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": messages})
	}

	template := Models.TaskTemplate{
		CompanyID:       user.CompanyID,
		DepartmentID:    input.DepartmentID,
		Title:           input.Title,
		Description:     input.Description,
		Scope:           input.Scope,
		Level:           input.Level,
		Unit:            input.Unit,
		DefaultTarget:   input.DefaultTarget,
		AggregationRule: input.AggregationRule,
		Active:          true,
	}
	if template.Level < 1 {
		template.Level = 1
	}
	if template.AggregationRule == "" {
		template.AggregationRule = Models.AggregationSum
	}
	if err := c.DB.Create(&template).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create template"})
	}
	return ctx.Status(fiber.StatusCreated).JSON(template)
}

func (c *TaskTemplateController) UpdateTemplate(ctx *fiber.Ctx) error {
	user := middleware.CurrentUser(ctx)
	id, err := paramID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid template ID"})
	}

	var template Models.TaskTemplate
	if err := c.DB.Where("company_id = ?", user.CompanyID).First(&template, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Template not found"})
	}

	var input TaskTemplateInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	updates := map[string]interface{}{}
	if input.Title != "" {
		updates["title"] = input.Title
	}
	if input.Description != "" {
		updates["description"] = input.Description
	}
	if input.Unit != "" {
		updates["unit"] = input.Unit
	}
	if input.Level >= 1 {
		updates["level"] = input.Level
	}
	if input.DefaultTarget != nil {
		updates["default_target"] = *input.DefaultTarget
	}
	if input.AggregationRule != "" {
		updates["aggregation_rule"] = input.AggregationRule
	}
	if input.DepartmentID != nil {
		updates["department_id"] = *input.DepartmentID
	}
	c.DB.Model(&template).Updates(updates)
	return ctx.JSON(template)
}

func (c *TaskTemplateController) ToggleTemplate(ctx *fiber.Ctx) error {
	user := middleware.CurrentUser(ctx)
	id, err := paramID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid template ID"})
	}

	template, err := c.Engine.ToggleTemplate(user.CompanyID, id)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(template)
}

func (c *TaskTemplateController) DeleteTemplate(ctx *fiber.Ctx) error {
	user := middleware.CurrentUser(ctx)
	id, err := paramID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid template ID"})
	}

	if err := c.Engine.DeleteTemplate(user.CompanyID, id); err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(fiber.Map{"message": "Template deleted successfully"})
}
