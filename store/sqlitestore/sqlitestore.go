// Package sqlitestore implements the record store on a SQLite database via
// gorm. Writes run in transactions, and each write bumps a monotonic
// per-user version counter that serves as the cache invalidation marker.
package sqlitestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/pulseboard/pulseboard/fitness"
	"github.com/pulseboard/pulseboard/store"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store is a SQLite-backed record store.
type Store struct {
	db *gorm.DB
}

// New opens (or creates) the database at path and migrates the schema.
func New(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := db.AutoMigrate(
		&userRow{},
		&activityRow{},
		&weightEntryRow{},
		&friendshipRow{},
		&recordVersion{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// bumpVersion increments the write counter for (userID, category) inside tx.
func bumpVersion(tx *gorm.DB, userID string, category store.Category) error {
	var rv recordVersion
	err := tx.Where("user_id = ? AND category = ?", userID, string(category)).First(&rv).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		rv = recordVersion{UserID: userID, Category: string(category), Version: 1}
		return tx.Create(&rv).Error
	case err != nil:
		return err
	}
	return tx.Model(&recordVersion{}).
		Where("user_id = ? AND category = ?", userID, string(category)).
		Update("version", rv.Version+1).Error
}

// Marker returns the monotonic version counter for the user's category, or
// 0 if the category has never been written.
func (s *Store) Marker(ctx context.Context, userID string, category store.Category) (int64, error) {
	var rv recordVersion
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND category = ?", userID, string(category)).
		First(&rv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, store.Storagef("read version marker", err)
	}
	return rv.Version, nil
}

// SaveActivity validates the record, assigns an id and inserts it together
// with the version bump in one transaction.
func (s *Store) SaveActivity(ctx context.Context, activity *fitness.Activity) (string, error) {
	if err := activity.Validate(); err != nil {
		return "", err
	}

	activity.ID = uuid.NewString()
	activity.CreatedAt = time.Now().UTC()
	row := activityRow{
		ID:          activity.ID,
		UserID:      activity.UserID,
		Type:        activity.Type,
		Duration:    activity.Duration,
		Intensity:   string(activity.Intensity),
		Date:        activity.Date,
		Description: activity.Description,
		Adaptation:  activity.Adaptation,
		CreatedAt:   activity.CreatedAt,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		return bumpVersion(tx, activity.UserID, store.CategoryActivities)
	})
	if err != nil {
		return "", store.Storagef("save activity", err)
	}
	return activity.ID, nil
}

// ListActivities returns every activity owned by the user, newest first.
func (s *Store) ListActivities(ctx context.Context, userID string) ([]fitness.Activity, error) {
	var rows []activityRow
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC").
		Find(&rows).Error
	if err != nil {
		return nil, store.Storagef("list activities", err)
	}

	activities := make([]fitness.Activity, 0, len(rows))
	for _, r := range rows {
		activities = append(activities, toActivity(r))
	}
	return activities, nil
}

// UpdateActivity replaces the mutable fields of an activity owned by the
// user.
func (s *Store) UpdateActivity(ctx context.Context, userID string, activity *fitness.Activity) error {
	if err := activity.Validate(); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&activityRow{}).
			Where("id = ? AND user_id = ?", activity.ID, userID).
			Updates(map[string]any{
				"type":        activity.Type,
				"duration":    activity.Duration,
				"intensity":   string(activity.Intensity),
				"date":        activity.Date,
				"description": activity.Description,
				"adaptation":  activity.Adaptation,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return store.ErrNotFound
		}
		return bumpVersion(tx, userID, store.CategoryActivities)
	})
	if errors.Is(err, store.ErrNotFound) {
		return store.ErrNotFound
	}
	if err != nil {
		return store.Storagef("update activity", err)
	}
	return nil
}

// DeleteActivity removes a record only if owned by the requesting user.
func (s *Store) DeleteActivity(ctx context.Context, id, userID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&activityRow{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return store.ErrNotFound
		}
		return bumpVersion(tx, userID, store.CategoryActivities)
	})
	if errors.Is(err, store.ErrNotFound) {
		return store.ErrNotFound
	}
	if err != nil {
		return store.Storagef("delete activity", err)
	}
	return nil
}

// ClearActivities removes every activity owned by the user.
func (s *Store) ClearActivities(ctx context.Context, userID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&activityRow{}).Error; err != nil {
			return err
		}
		return bumpVersion(tx, userID, store.CategoryActivities)
	})
	if err != nil {
		return store.Storagef("clear activities", err)
	}
	return nil
}

// SaveWeightEntry validates the entry, assigns an id and inserts it with
// the version bump in one transaction.
func (s *Store) SaveWeightEntry(ctx context.Context, entry *fitness.WeightEntry) (string, error) {
	if err := entry.Validate(); err != nil {
		return "", err
	}

	entry.ID = uuid.NewString()
	entry.CreatedAt = time.Now().UTC()
	row := weightEntryRow{
		ID:        entry.ID,
		UserID:    entry.UserID,
		Weight:    entry.Weight,
		Date:      entry.Date,
		CreatedAt: entry.CreatedAt,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		return bumpVersion(tx, entry.UserID, store.CategoryWeight)
	})
	if err != nil {
		return "", store.Storagef("save weight entry", err)
	}
	return entry.ID, nil
}

// ListWeightEntries returns every weight entry owned by the user, oldest
// first.
func (s *Store) ListWeightEntries(ctx context.Context, userID string) ([]fitness.WeightEntry, error) {
	var rows []weightEntryRow
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, store.Storagef("list weight entries", err)
	}

	entries := make([]fitness.WeightEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, toWeightEntry(r))
	}
	return entries, nil
}

// UpdateWeightEntry replaces the weight and date of an entry owned by the
// user.
func (s *Store) UpdateWeightEntry(ctx context.Context, userID string, entry *fitness.WeightEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&weightEntryRow{}).
			Where("id = ? AND user_id = ?", entry.ID, userID).
			Updates(map[string]any{
				"weight": entry.Weight,
				"date":   entry.Date,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return store.ErrNotFound
		}
		return bumpVersion(tx, userID, store.CategoryWeight)
	})
	if errors.Is(err, store.ErrNotFound) {
		return store.ErrNotFound
	}
	if err != nil {
		return store.Storagef("update weight entry", err)
	}
	return nil
}

// DeleteWeightEntry removes an entry only if owned by the requesting user.
func (s *Store) DeleteWeightEntry(ctx context.Context, id, userID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&weightEntryRow{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return store.ErrNotFound
		}
		return bumpVersion(tx, userID, store.CategoryWeight)
	})
	if errors.Is(err, store.ErrNotFound) {
		return store.ErrNotFound
	}
	if err != nil {
		return store.Storagef("delete weight entry", err)
	}
	return nil
}

// ClearWeightEntries removes every weight entry owned by the user.
func (s *Store) ClearWeightEntries(ctx context.Context, userID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&weightEntryRow{}).Error; err != nil {
			return err
		}
		return bumpVersion(tx, userID, store.CategoryWeight)
	})
	if err != nil {
		return store.Storagef("clear weight entries", err)
	}
	return nil
}

// Stats returns record counts across all tables.
func (s *Store) Stats(ctx context.Context) (*store.Stats, error) {
	var stats store.Stats
	db := s.db.WithContext(ctx)

	if err := db.Model(&userRow{}).Count(&stats.Users).Error; err != nil {
		return nil, store.Storagef("count users", err)
	}
	if err := db.Model(&activityRow{}).Count(&stats.Activities).Error; err != nil {
		return nil, store.Storagef("count activities", err)
	}
	if err := db.Model(&weightEntryRow{}).Count(&stats.WeightEntries).Error; err != nil {
		return nil, store.Storagef("count weight entries", err)
	}
	var friendRows int64
	if err := db.Model(&friendshipRow{}).Count(&friendRows).Error; err != nil {
		return nil, store.Storagef("count friendships", err)
	}
	// Both directions are stored; report pairs.
	stats.Friendships = friendRows / 2

	return &stats, nil
}
