package FiberConfig

import (
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"Taskforce/Controllers"
	"Taskforce/Models"
	"Taskforce/Tasks"
	"Taskforce/middleware"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, engine *Tasks.Engine) {
	// Initialize handlers
	directoryController := Controllers.NewDirectoryController(db)
	templateController := Controllers.NewTaskTemplateController(db, engine)
	scheduleController := Controllers.NewTaskScheduleController(db, engine)
	cycleController := Controllers.NewTaskCycleController(db, engine)
	instanceController := Controllers.NewTaskInstanceController(db, engine)
	assignmentController := Controllers.NewTaskAssignmentController(db, engine)
	statisticsController := Controllers.NewTaskStatisticsController(db, engine)

	// API group
	api := app.Group("/api")

	// Auth
	api.Post("/login", Controllers.Login)
	api.Post("/logout", Controllers.Logout)
	api.Post("/users", middleware.Verify(4), Controllers.RegisterUser)
	api.Get("/user", middleware.Verify(1), Controllers.User)

	// Directory
	departments := api.Group("/departments", middleware.Verify(3))
	departments.Get("/", directoryController.GetDepartments)
	departments.Post("/", directoryController.CreateDepartment)
	departments.Put("/:id", directoryController.UpdateDepartment)

	employees := api.Group("/employees", middleware.Verify(3))
	employees.Get("/", directoryController.GetEmployees)
	employees.Post("/", directoryController.CreateEmployee)
	employees.Put("/:id", directoryController.UpdateEmployee)

	// Task templates
	templates := api.Group("/task-templates", middleware.Verify(3))
	templates.Get("/", templateController.GetTemplates)
	templates.Post("/", templateController.CreateTemplate)
	templates.Get("/:id", templateController.GetTemplate)
	templates.Put("/:id", templateController.UpdateTemplate)
	templates.Patch("/:id/toggle", templateController.ToggleTemplate)
	templates.Delete("/:id", templateController.DeleteTemplate)

	// Schedules and cycle generation
	schedules := api.Group("/task-schedules", middleware.Verify(3))
	schedules.Get("/", scheduleController.GetSchedules)
	schedules.Post("/", scheduleController.CreateSchedule)
	schedules.Get("/:id", scheduleController.GetSchedule)
	schedules.Delete("/:id", scheduleController.DeleteSchedule)
	schedules.Post("/:id/generate-cycles", scheduleController.GenerateCycles)
	api.Post("/task-schedules/generate-all", middleware.Verify(4), scheduleController.GenerateAllActive)

	// Cycles: fan-out, expiry sweep and the assignment track
	cycles := api.Group("/task-cycles", middleware.Verify(2))
	cycles.Get("/", cycleController.GetCycles)
	cycles.Get("/:id", cycleController.GetCycle)
	cycles.Post("/:id/generate-instances", middleware.Verify(3), cycleController.GenerateInstances)
	cycles.Post("/:id/mark-expired", middleware.Verify(3), cycleController.MarkExpired)
	cycles.Get("/:id/assignments", assignmentController.GetAssignments)
	cycles.Post("/:id/assignments", middleware.Verify(3), assignmentController.Assign)
	cycles.Post("/:id/assignments/bulk", middleware.Verify(3), assignmentController.AssignBulk)

	// Instances: progress ledger and approval state machine
	instances := api.Group("/task-instances", middleware.Verify(2))
	instances.Get("/", instanceController.GetInstances)
	instances.Post("/", middleware.Verify(3), instanceController.CreateInstance)
	instances.Get("/:id", instanceController.GetInstance)
	instances.Delete("/:id", middleware.Verify(4), instanceController.DeleteInstance)
	instances.Post("/:id/progress", instanceController.UpdateProgress)
	instances.Get("/:id/progress", instanceController.GetProgress)
	instances.Post("/:id/complete", instanceController.Complete)
	instances.Post("/:id/approve", middleware.Verify(3), instanceController.Approve)
	instances.Post("/:id/reject", middleware.Verify(3), instanceController.Reject)
	instances.Get("/:id/approvals", instanceController.GetApprovals)

	// Assignment state machine
	assignments := api.Group("/task-assignments", middleware.Verify(2))
	assignments.Post("/:id/complete", assignmentController.Complete)
	assignments.Post("/:id/approve", middleware.Verify(3), assignmentController.Approve)
	assignments.Post("/:id/reject", middleware.Verify(3), assignmentController.Reject)

	// Reporting
	stats := api.Group("/task-statistics", middleware.Verify(2))
	stats.Get("/", statisticsController.GetStatistics)
	stats.Get("/export", middleware.Verify(3), statisticsController.ExportInstances)
}

func FiberConfig(engine *Tasks.Engine) {
	app := fiber.New()

	app.Use(middleware.RequestLogger())
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestCompression,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With",
		AllowCredentials: true,
		MaxAge:           300,
	}))

	SetupRoutes(app, Models.DB, engine)

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":3001"
	}
	log.Info().Str("addr", addr).Msg("server up")
	if err := app.Listen(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
