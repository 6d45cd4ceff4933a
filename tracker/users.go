package tracker

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pulseboard/pulseboard/fitness"
	"github.com/pulseboard/pulseboard/store"
	"golang.org/x/crypto/bcrypt"
)

// Account constraints.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 50
	MinPasswordLength = 6
)

// ErrInvalidCredentials is returned when a login fails. Unknown usernames
// and wrong passwords are deliberately indistinguishable.
var ErrInvalidCredentials = errors.New("invalid username or password")

// Register creates a new account with a bcrypt password hash.
func (t *Tracker) Register(ctx context.Context, username, email, password string) (*store.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if len(username) < MinUsernameLength || len(username) > MaxUsernameLength {
		return nil, &fitness.ValidationError{Field: "username", Message: "username must be between 3 and 50 characters"}
	}
	if len(password) < MinPasswordLength {
		return nil, &fitness.ValidationError{Field: "password", Message: "password must be at least 6 characters"}
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, &fitness.ValidationError{Field: "email", Message: "a valid email address is required"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &store.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Language:     t.cfg.DefaultLanguage,
	}
	if err := t.st.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	log.Info("registered user", "username", username)
	return user, nil
}

// Authenticate checks the credentials and returns the matching user.
func (t *Tracker) Authenticate(ctx context.Context, username, password string) (*store.User, error) {
	user, err := t.st.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// GetUser returns the account with the given id.
func (t *Tracker) GetUser(ctx context.Context, id string) (*store.User, error) {
	return t.st.GetUser(ctx, id)
}

// Preferences are the account settings a user may change after signup.
type Preferences struct {
	Language   *string
	DarkMode   *bool
	WeightGoal *float64
}

// UpdatePreferences applies the non-nil preference fields to the account.
func (t *Tracker) UpdatePreferences(ctx context.Context, userID string, prefs Preferences) (*store.User, error) {
	user, err := t.st.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if prefs.Language != nil {
		user.Language = *prefs.Language
	}
	if prefs.DarkMode != nil {
		user.DarkMode = *prefs.DarkMode
	}
	if prefs.WeightGoal != nil {
		goal := *prefs.WeightGoal
		if goal <= fitness.MinWeight || goal > fitness.MaxWeight {
			return nil, &fitness.ValidationError{Field: "weight_goal", Message: "weight goal must be between 20 and 500"}
		}
		user.WeightGoal = &goal
	}

	if err := t.st.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	// The goal feeds into the cached progress figures.
	if t.metrics != nil {
		if err := t.metrics.WeightProgressCache.Delete(ctx, userID); err != nil {
			log.Debug("failed to drop weight progress cache", "user", userID, "error", err)
		}
	}
	return user, nil
}

// AddFriend creates a friendship between the user and the account with the
// given username.
func (t *Tracker) AddFriend(ctx context.Context, userID, friendUsername string) (*store.User, error) {
	friend, err := t.st.GetUserByUsername(ctx, strings.TrimSpace(friendUsername))
	if err != nil {
		return nil, err
	}
	if friend.ID == userID {
		return nil, &fitness.ValidationError{Field: "username", Message: "cannot add yourself as a friend"}
	}
	if err := t.st.AddFriend(ctx, userID, friend.ID); err != nil {
		return nil, err
	}
	log.Info("added friend", "user", userID, "friend", friend.Username)
	return friend, nil
}

// ListFriends returns the user's friends.
func (t *Tracker) ListFriends(ctx context.Context, userID string) ([]store.User, error) {
	return t.st.ListFriends(ctx, userID)
}

// FriendActivity is a friend's recent activity with the owner attached.
type FriendActivity struct {
	Username string           `json:"username"`
	Activity fitness.Activity `json:"activity"`
}

// friendFeedWindow and friendFeedLimit bound the activity feed: only the
// last week is shown, with at most a handful of entries per friend.
const (
	friendFeedWindow = 7 * 24 * time.Hour
	friendFeedLimit  = 5
)

// FriendActivities returns recent activities of all friends, newest first
// per friend.
func (t *Tracker) FriendActivities(ctx context.Context, userID string) ([]FriendActivity, error) {
	friends, err := t.st.ListFriends(ctx, userID)
	if err != nil {
		return nil, err
	}

	since := time.Now().Add(-friendFeedWindow)
	feed := make([]FriendActivity, 0, len(friends)*friendFeedLimit)
	for _, friend := range friends {
		records, _, err := t.activities.Get(ctx, friend.ID)
		if err != nil {
			return nil, err
		}
		recent := fitness.FilterActivities(records, since, time.Time{}, nil)
		if len(recent) > friendFeedLimit {
			recent = recent[:friendFeedLimit]
		}
		for _, activity := range recent {
			feed = append(feed, FriendActivity{Username: friend.Username, Activity: activity})
		}
	}
	return feed, nil
}
