package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"Taskforce/CronJobs"
	"Taskforce/FiberConfig"
	"Taskforce/Models"
	"Taskforce/Tasks"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Debug().Msg("no .env file, using environment")
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("LOG_PRETTY") == "true" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	Models.Connect()
	engine := Tasks.NewEngine(Models.DB)

	runner := CronJobs.NewCycleRunner(engine, true)
	if err := runner.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start cycle runner")
	}
	defer runner.Stop()

	FiberConfig.FiberConfig(engine)
}
