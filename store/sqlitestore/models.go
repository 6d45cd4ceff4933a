package sqlitestore

import (
	"time"

	"github.com/pulseboard/pulseboard/fitness"
	"github.com/pulseboard/pulseboard/store"
)

// userRow maps the users table.
type userRow struct {
	ID           string `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex;not null;size:50"`
	Email        string `gorm:"uniqueIndex;not null;size:100"`
	PasswordHash string `gorm:"not null;size:255"`
	WeightGoal   *float64
	Language     string `gorm:"size:10;default:en"`
	DarkMode     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (userRow) TableName() string { return "users" }

// activityRow maps the activities table.
type activityRow struct {
	ID          string `gorm:"primaryKey"`
	UserID      string `gorm:"index;not null"`
	User        userRow
	Type        string `gorm:"not null;size:50"`
	Duration    int    `gorm:"not null"`
	Intensity   string `gorm:"not null;size:20"`
	Date        time.Time
	Description string `gorm:"type:text"`
	Adaptation  string `gorm:"size:100"`
	CreatedAt   time.Time
}

func (activityRow) TableName() string { return "activities" }

// weightEntryRow maps the weight_entries table.
type weightEntryRow struct {
	ID        string `gorm:"primaryKey"`
	UserID    string `gorm:"index;not null"`
	User      userRow
	Weight    float64 `gorm:"not null"`
	Date      time.Time
	CreatedAt time.Time
}

func (weightEntryRow) TableName() string { return "weight_entries" }

// friendshipRow maps the friendships table. Both directions of a friendship
// are stored so visibility queries stay single-sided.
type friendshipRow struct {
	UserID   string `gorm:"primaryKey"`
	FriendID string `gorm:"primaryKey"`
}

func (friendshipRow) TableName() string { return "friendships" }

// recordVersion is the monotonic per-user per-category write counter that
// serves as the cache invalidation marker for the database backend.
type recordVersion struct {
	UserID   string `gorm:"primaryKey"`
	Category string `gorm:"primaryKey"`
	Version  int64  `gorm:"not null"`
}

func (recordVersion) TableName() string { return "record_versions" }

func toActivity(r activityRow) fitness.Activity {
	return fitness.Activity{
		ID:          r.ID,
		UserID:      r.UserID,
		Type:        r.Type,
		Duration:    r.Duration,
		Intensity:   fitness.Intensity(r.Intensity),
		Date:        r.Date,
		Description: r.Description,
		Adaptation:  r.Adaptation,
		CreatedAt:   r.CreatedAt,
	}
}

func toWeightEntry(r weightEntryRow) fitness.WeightEntry {
	return fitness.WeightEntry{
		ID:        r.ID,
		UserID:    r.UserID,
		Weight:    r.Weight,
		Date:      r.Date,
		CreatedAt: r.CreatedAt,
	}
}

func toUser(r userRow) store.User {
	return store.User{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		WeightGoal:   r.WeightGoal,
		Language:     r.Language,
		DarkMode:     r.DarkMode,
		CreatedAt:    r.CreatedAt,
	}
}
