package main

import (
	"log"
	"time"

	"github.com/oggyb/crush-connector/internal/config"
	"github.com/oggyb/crush-connector/internal/db"
)

func main() {
	// Load configuration
	cfg := config.New()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	database, err := db.NewDB(cfg)
	if err != nil {
		log.Fatalf("failed to init db: %v", err)
	}

	if err := db.SeedTestData(database, time.Now()); err != nil {
		log.Fatalf("failed to seed: %v", err)
	}

	log.Println("Seeding completed.")
}
