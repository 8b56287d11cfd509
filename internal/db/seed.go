package db

import (
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
)

// SeedTestData resets the database and populates it with demo people and
// refresh checkpoints.
//
// Behavior:
//  1. Clears every crush table.
//  2. Creates 20 registered people (person1..person20@example.com).
//  3. Provisions checkpoints on the first day of the next six months so
//     submissions always have a future refresh date.
//
// No crushes are seeded; digests depend on the server key.
// Compatible with both MySQL and SQLite.
func SeedTestData(db *gorm.DB, now time.Time) error {
	// --- Fresh start ---
	tables := []string{
		"mutual_matches", "crush_relations", "crush_tokens",
		"notified_records", "refresh_checkpoints", "people",
	}
	for _, table := range tables {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	// Reset auto-increment sequences
	switch db.Dialector.Name() {
	case "mysql":
		for _, table := range tables {
			db.Exec("ALTER TABLE " + table + " AUTO_INCREMENT = 1")
		}
	case "sqlite":
		for _, table := range tables {
			db.Exec("DELETE FROM sqlite_sequence WHERE name = ?", table)
		}
	}

	log.Println("Cleared existing data")

	// --- Seed People ---
	people := make([]Person, 0, 20)
	for i := 1; i <= 20; i++ {
		people = append(people, Person{
			Email:             fmt.Sprintf("person%d@example.com", i),
			Name:              fmt.Sprintf("Person Number%d", i),
			NumAllowedCrushes: -1,
		})
	}
	if err := db.Create(&people).Error; err != nil {
		return fmt.Errorf("failed to seed people: %w", err)
	}
	log.Printf("Seeded %d people.", len(people))

	// --- Seed Checkpoints ---
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	checkpoints := make([]RefreshCheckpoint, 0, 6)
	for i := 1; i <= 6; i++ {
		checkpoints = append(checkpoints, RefreshCheckpoint{Date: first.AddDate(0, i, 0)})
	}
	if err := db.Create(&checkpoints).Error; err != nil {
		return fmt.Errorf("failed to seed checkpoints: %w", err)
	}
	log.Printf("Seeded %d refresh checkpoints.", len(checkpoints))

	return nil
}
