package sqlitestore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pulseboard/pulseboard/store"
	"gorm.io/gorm"
)

// CreateUser assigns an id and inserts the account. Username and email must
// be unique.
func (s *Store) CreateUser(ctx context.Context, user *store.User) error {
	var count int64
	err := s.db.WithContext(ctx).Model(&userRow{}).
		Where("username = ? OR email = ?", user.Username, user.Email).
		Count(&count).Error
	if err != nil {
		return store.Storagef("check user uniqueness", err)
	}
	if count > 0 {
		return store.ErrUserExists
	}

	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()
	row := userRow{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		WeightGoal:   user.WeightGoal,
		Language:     user.Language,
		DarkMode:     user.DarkMode,
		CreatedAt:    user.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return store.Storagef("create user", err)
	}
	return nil
}

// GetUser returns the account with the given id.
func (s *Store) GetUser(ctx context.Context, id string) (*store.User, error) {
	var row userRow
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, store.Storagef("get user", err)
	}
	user := toUser(row)
	return &user, nil
}

// GetUserByUsername returns the account with the given username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	var row userRow
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, store.Storagef("get user by username", err)
	}
	user := toUser(row)
	return &user, nil
}

// UpdateUser replaces the stored account matching user.ID.
func (s *Store) UpdateUser(ctx context.Context, user *store.User) error {
	result := s.db.WithContext(ctx).Model(&userRow{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"email":         user.Email,
			"password_hash": user.PasswordHash,
			"weight_goal":   user.WeightGoal,
			"language":      user.Language,
			"dark_mode":     user.DarkMode,
		})
	if result.Error != nil {
		return store.Storagef("update user", result.Error)
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// AddFriend records the symmetric friendship, both directions in one
// transaction.
func (s *Store) AddFriend(ctx context.Context, userID, friendID string) error {
	var count int64
	err := s.db.WithContext(ctx).Model(&friendshipRow{}).
		Where("user_id = ? AND friend_id = ?", userID, friendID).
		Count(&count).Error
	if err != nil {
		return store.Storagef("check friendship", err)
	}
	if count > 0 {
		return store.ErrAlreadyFriends
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&friendshipRow{UserID: userID, FriendID: friendID}).Error; err != nil {
			return err
		}
		return tx.Create(&friendshipRow{UserID: friendID, FriendID: userID}).Error
	})
	if err != nil {
		return store.Storagef("add friend", err)
	}
	return nil
}

// ListFriends returns the accounts the user is friends with.
func (s *Store) ListFriends(ctx context.Context, userID string) ([]store.User, error) {
	var rows []userRow
	err := s.db.WithContext(ctx).
		Joins("JOIN friendships ON friendships.friend_id = users.id").
		Where("friendships.user_id = ?", userID).
		Find(&rows).Error
	if err != nil {
		return nil, store.Storagef("list friends", err)
	}

	friends := make([]store.User, 0, len(rows))
	for _, r := range rows {
		friends = append(friends, toUser(r))
	}
	return friends, nil
}
