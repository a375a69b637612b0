package db

import (
	"time"
)

// Entity visibility states. New content starts as pending until an admin
// publishes it; public entities can be hidden again without deletion.
const (
	StatusPending = "pending"
	StatusPublic  = "public"
	StatusHide    = "hide"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User table
type User struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"uniqueIndex;size:64;not null"`
	Email        string `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	Role         string `gorm:"size:16;not null;default:user"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Game is the central catalog entity. OwnerID is the contributing user;
// the owner mapping is mirrored into the cache store on creation.
type Game struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement"`
	OwnerID     uint64 `gorm:"not null;index"`
	Name        string `gorm:"size:255;not null"`
	Description string `gorm:"type:text"`
	BGGURL      string `gorm:"size:512"`
	Status      string `gorm:"size:16;not null;default:pending"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Category struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement"`
	OwnerID     uint64 `gorm:"not null;index"`
	Name        string `gorm:"size:128;not null"`
	Description string `gorm:"size:1024"`
	ImgURL      string `gorm:"size:512"`
	Status      string `gorm:"size:16;not null;default:pending"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Mechanic struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement"`
	OwnerID     uint64 `gorm:"not null;index"`
	Name        string `gorm:"size:128;not null"`
	Description string `gorm:"size:1024"`
	ImgURL      string `gorm:"size:512"`
	Status      string `gorm:"size:16;not null;default:pending"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Rule struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	GameID    uint64 `gorm:"not null;index"`
	OwnerID   uint64 `gorm:"not null;index"`
	Title     string `gorm:"size:255;not null"`
	Content   string `gorm:"type:text"`
	Status    string `gorm:"size:16;not null;default:pending"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Video struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	GameID    uint64 `gorm:"not null;index"`
	OwnerID   uint64 `gorm:"not null;index"`
	Title     string `gorm:"size:255;not null"`
	URL       string `gorm:"size:512;not null"`
	Status    string `gorm:"size:16;not null;default:pending"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Image struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	GameID    uint64 `gorm:"not null;index"`
	OwnerID   uint64 `gorm:"not null;index"`
	URL       string `gorm:"size:512;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CategoryLike is the like relation for categories.
//
// Composite PK (UserID, CategoryID): a duplicate like collapses into the
// existing row, which is what makes the like operation idempotent.
type CategoryLike struct {
	UserID     uint64 `gorm:"primaryKey"`
	CategoryID uint64 `gorm:"primaryKey;index"`
	CreatedAt  time.Time
}

// MechanicLike mirrors CategoryLike for mechanics.
type MechanicLike struct {
	UserID     uint64 `gorm:"primaryKey"`
	MechanicID uint64 `gorm:"primaryKey;index"`
	CreatedAt  time.Time
}

// GameCategory maps a game into a category. The composite PK gives the
// same idempotent-insert guarantee as the like tables.
type GameCategory struct {
	GameID     uint64 `gorm:"primaryKey"`
	CategoryID uint64 `gorm:"primaryKey;index"`
	CreatedAt  time.Time
}

type GameMechanic struct {
	GameID     uint64 `gorm:"primaryKey"`
	MechanicID uint64 `gorm:"primaryKey;index"`
	CreatedAt  time.Time
}
