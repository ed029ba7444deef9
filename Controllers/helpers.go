package Controllers

import (
	"errors"
	"strconv"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/gofiber/fiber/v2"

	"Taskforce/Tasks"
)

var (
	validate   *validator.Validate
	translator ut.Translator
)

func init() {
	validate = validator.New()
	english := en.New()
	uni := ut.New(english, english)
	translator, _ = uni.GetTranslator("en")
	_ = entranslations.RegisterDefaultTranslations(validate, translator)
}

// validateStruct runs validator tags and returns translated messages.
func validateStruct(input interface{}) []string {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}
	var messages []string
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, ve := range verrs {
			messages = append(messages, ve.Translate(translator))
		}
	} else {
		messages = append(messages, err.Error())
	}
	return messages
}

// respondError maps the engine's error taxonomy onto HTTP statuses.
func respondError(ctx *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, Tasks.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, Tasks.ErrValidation):
		status = fiber.StatusBadRequest
	case errors.Is(err, Tasks.ErrConflict):
		status = fiber.StatusConflict
	}
	return ctx.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func paramID(ctx *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.Atoi(ctx.Params(name))
	if err != nil || id < 1 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}

// queryUint reads an optional uint query parameter, nil when absent.
func queryUint(ctx *fiber.Ctx, name string) *uint {
	raw := ctx.Query(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return nil
	}
	u := uint(v)
	return &u
}

func queryInt(ctx *fiber.Ctx, name string) *int {
	raw := ctx.Query(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &v
}

// instanceFilterFromQuery builds the shared list filter from query params.
func instanceFilterFromQuery(ctx *fiber.Ctx) Tasks.InstanceFilter {
	return Tasks.InstanceFilter{
		CycleID:      queryUint(ctx, "cycle_id"),
		TemplateID:   queryUint(ctx, "template_id"),
		EmployeeID:   queryUint(ctx, "employee_id"),
		DepartmentID: queryUint(ctx, "department_id"),
		Scope:        ctx.Query("scope"),
		Status:       ctx.Query("status"),
		Level:        queryInt(ctx, "level"),
	}
}
