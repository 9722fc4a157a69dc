package main

import (
	"log"

	"github.com/joho/godotenv"
	"ordersync/cmd"
	"ordersync/internal/config"
	"ordersync/internal/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Configuration may be incomplete at this point (e.g. when only
	// --help is requested); commands that need it validate on their own.
	if cfg, err := config.Load(); err != nil {
		if err := logger.Setup(logger.DefaultConfig()); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	} else {
		if err := logger.Setup(cfg.LoggerConfig()); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	}

	cmd.Execute()
}
