package Controllers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"Taskforce/Models"
	"Taskforce/middleware"
)

// DirectoryController handles the department/employee directory the task
// engine reads during fan-out and bulk assignment.
type DirectoryController struct {
	DB *gorm.DB
}

func NewDirectoryController(db *gorm.DB) *DirectoryController {
	return &DirectoryController{DB: db}
}

type DepartmentInput struct {
	Name   string `json:"name" validate:"required"`
	Active *bool  `json:"active"`
}

func (c *DirectoryController) GetDepartments(ctx *fiber.Ctx) error {
	user := middleware.CurrentUser(ctx)
	var departments []Models.Department
	if err := c.DB.Where("company_id = ?", user.CompanyID).Find(&departments).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve departments"})
	}
	return ctx.JSON(departments)
}

func (c *DirectoryController) CreateDepartment(ctx *fiber.Ctx) error {
	user := middleware.CurrentUser(ctx)
	var input DepartmentInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if messages := validateStruct(input); messages != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": messages})
	}

	department := Models.Department{
		CompanyID: user.CompanyID,
		Name:      input.Name,
		Active:    true,
	}
	if input.Active != nil {
		department.Active = *input.Active
	}
	if err := c.DB.Create(&department).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create department"})
	}
	return ctx.Status(fiber.StatusCreated).JSON(department)
}

func (c *DirectoryController) UpdateDepartment(ctx *fiber.Ctx) error {
	user := middleware.CurrentUser(ctx)
	id, err := paramID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid department ID"})
	}

	var department Models.Department
	if err := c.DB.Where("company_id = ?", user.CompanyID).First(&department, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Department not found"})
	}

	var input DepartmentInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	updates := map[string]interface{}{}
	if input.Name != "" {
		updates["name"] = input.Name
	}
	if input.Active != nil {
		updates["active"] = *input.Active
	}
	c.DB.Model(&department).Updates(updates)
	return ctx.JSON(department)
}

type EmployeeInput struct {
	DepartmentID uint   `json:"department_id" validate:"required"`
	Name         string `json:"name" validate:"required"`
	Email        string `json:"email" validate:"omitempty,email"`
	Active       *bool  `json:"active"`
}

func (c *DirectoryController) GetEmployees(ctx *fiber.Ctx) error {
	user := middleware.CurrentUser(ctx)
	q := c.DB.Where("company_id = ?", user.CompanyID)
	if departmentID := queryUint(ctx, "department_id"); departmentID != nil {
		q = q.Where("department_id = ?", *departmentID)
	}
	var employees []Models.Employee
	if err := q.Find(&employees).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve employees"})
	}
	return ctx.JSON(employees)
}

func (c *DirectoryController) CreateEmployee(ctx *fiber.Ctx) error {
	user := middleware.CurrentUser(ctx)
	var input EmployeeInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if messages := validateStruct(input); messages != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": messages})
	}

	var department Models.Department
	if err := c.DB.Where("company_id = ?", user.CompanyID).First(&department, input.DepartmentID).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Department not found"})
	}

	employee := Models.Employee{
		CompanyID:    user.CompanyID,
		DepartmentID: department.ID,
		Name:         input.Name,
		Email:        input.Email,
		Active:       true,
	}
	if input.Active != nil {
		employee.Active = *input.Active
	}
	if err := c.DB.Create(&employee).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create employee"})
	}
	return ctx.Status(fiber.StatusCreated).JSON(employee)
}

func (c *DirectoryController) UpdateEmployee(ctx *fiber.Ctx) error {
	user := middleware.CurrentUser(ctx)
	id, err := paramID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid employee ID"})
	}

	var employee Models.Employee
	if err := c.DB.Where("company_id = ?", user.CompanyID).First(&employee, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Employee not found"})
	}

	var input EmployeeInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	updates := map[string]interface{}{}
	if input.Name != "" {
		updates["name"] = input.Name
	}
	if input.Email != "" {
		updates["email"] = input.Email
	}
	if input.DepartmentID != 0 {
		updates["department_id"] = input.DepartmentID
	}
	if input.Active != nil {
		updates["active"] = *input.Active
	}
	c.DB.Model(&employee).Updates(updates)
	return ctx.JSON(employee)
}
