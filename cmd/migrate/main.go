package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/nhankey2000/auto-post/internal/config"
	"github.com/nhankey2000/auto-post/internal/database"
	"github.com/nhankey2000/auto-post/internal/logger"
)

func main() {
	configPath := flag.String("config", os.Getenv("AUTOPOST_CONFIG"), "path to a TOML config file")
	flag.Parse()

	command := "up"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	switch command {
	case "up":
		runMigrationsUp(*configPath)
	default:
		fmt.Println("Usage: migrate [-config file] [up]")
		fmt.Println("  up     - Create or update the schema")
		os.Exit(1)
	}
}

func runMigrationsUp(configPath string) {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("Connecting to %s database...", cfg.Database.Driver)
	if err := database.Initialize(database.Config(cfg.Database), logger.Log); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	log.Println("Running migrations...")
	if err := database.Migrate(database.DB); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("All migrations completed successfully")
}
