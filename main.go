package main

import (
	"log"

	"github.com/joho/godotenv"

	"ebilling/cmd"
	"ebilling/internal/config"
	"ebilling/internal/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	loggerCfg := logger.DefaultConfig()
	if cfg, err := config.Load(); err != nil {
		log.Printf("Warning: Could not load configuration: %v", err)
	} else {
		loggerCfg = cfg.GetLoggerConfig()
	}
	if err := logger.Setup(loggerCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	mainLog := logger.WithComponent("main")
	mainLog.Debug().Msg("Starting ebilling")

	cmd.Execute()
}
