package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeedTestData resets the catalog tables and populates demo content.
//
// Behavior:
//  1. Clears mapping, like, entity and user tables (child tables first).
//  2. Creates 1 admin + 9 regular users with hashed passwords.
//  3. Creates 12 public categories, 8 mechanics and 30 games, maps every
//     game into 1-3 categories and 1-2 mechanics, and sprinkles likes.
//
// Compatible with both MySQL and SQLite (AUTO_INCREMENT reset skipped for SQLite).
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	// --- Fresh start ---
	tables := []string{
		"game_categories", "game_mechanics",
		"category_likes", "mechanic_likes",
		"entity_histories",
		"rules", "videos", "images",
		"games", "categories", "mechanics", "users",
	}
	for _, t := range tables {
		if err := db.Exec("DELETE FROM " + t).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", t, err)
		}
	}

	switch db.Dialector.Name() {
	case "mysql":
		for _, t := range tables {
			db.Exec("ALTER TABLE " + t + " AUTO_INCREMENT = 1")
		}
	case "sqlite":
		for _, t := range tables {
			db.Exec("DELETE FROM sqlite_sequence WHERE name = ?", t)
		}
	}

	log.Println("Cleared existing data")

	// --- Seed users (user1 is the admin) ---
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	for i := 1; i <= 10; i++ {
		role := RoleUser
		if i == 1 {
			role = RoleAdmin
		}
		user := User{
			Username:     fmt.Sprintf("user%d", i),
			Email:        fmt.Sprintf("user%d@example.com", i),
			PasswordHash: string(hash),
			Role:         role,
		}
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}
	}
	log.Println("Seeded 10 users.")

	// --- Seed categories and mechanics ---
	categoryNames := []string{
		"Strategy", "Family", "Party", "Cooperative", "Deck Building",
		"Worker Placement", "Area Control", "Abstract", "Dexterity",
		"Roll and Write", "Trick Taking", "Legacy",
	}
	for i, name := range categoryNames {
		cat := Category{
			OwnerID:     uint64(r.Intn(10) + 1),
			Name:        name,
			Description: fmt.Sprintf("Games in the %s category", name),
			Status:      StatusPublic,
		}
		if err := db.Create(&cat).Error; err != nil {
			return fmt.Errorf("failed to seed category %d: %w", i+1, err)
		}
	}

	mechanicNames := []string{
		"Drafting", "Set Collection", "Tile Placement", "Hand Management",
		"Push Your Luck", "Auction", "Hidden Roles", "Engine Building",
	}
	for i, name := range mechanicNames {
		m := Mechanic{
			OwnerID:     uint64(r.Intn(10) + 1),
			Name:        name,
			Description: fmt.Sprintf("Games using the %s mechanic", name),
			Status:      StatusPublic,
		}
		if err := db.Create(&m).Error; err != nil {
			return fmt.Errorf("failed to seed mechanic %d: %w", i+1, err)
		}
	}
	log.Printf("Seeded %d categories and %d mechanics.", len(categoryNames), len(mechanicNames))

	// --- Seed games with mappings and likes ---
	for i := 1; i <= 30; i++ {
		game := Game{
			OwnerID: uint64(r.Intn(10) + 1),
			Name:    fmt.Sprintf("Demo Game %d", i),
			BGGURL:  fmt.Sprintf("https://boardgamegeek.com/boardgame/%d", 100000+i),
			Status:  StatusPublic,
		}
		if err := db.Create(&game).Error; err != nil {
			return fmt.Errorf("failed to seed game: %w", err)
		}

		for j := 0; j < r.Intn(3)+1; j++ {
			db.Clauses(clause.OnConflict{DoNothing: true}).Create(&GameCategory{
				GameID:     game.ID,
				CategoryID: uint64(r.Intn(len(categoryNames)) + 1),
			})
		}
		for j := 0; j < r.Intn(2)+1; j++ {
			db.Clauses(clause.OnConflict{DoNothing: true}).Create(&GameMechanic{
				GameID:     game.ID,
				MechanicID: uint64(r.Intn(len(mechanicNames)) + 1),
			})
		}
	}

	for userID := 1; userID <= 10; userID++ {
		for j := 0; j < 4; j++ {
			db.Clauses(clause.OnConflict{DoNothing: true}).Create(&CategoryLike{
				UserID:     uint64(userID),
				CategoryID: uint64(r.Intn(len(categoryNames)) + 1),
			})
		}
		for j := 0; j < 2; j++ {
			db.Clauses(clause.OnConflict{DoNothing: true}).Create(&MechanicLike{
				UserID:     uint64(userID),
				MechanicID: uint64(r.Intn(len(mechanicNames)) + 1),
			})
		}
	}
	log.Println("Seeded 30 games with mappings and likes.")

	return nil
}
