// Package store defines the record-store contract shared by the JSON file
// backend and the SQLite backend, plus the error taxonomy surfaced to
// callers. Writes validate at this boundary; the query and aggregation
// layers assume validated input.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pulseboard/pulseboard/fitness"
)

// Category identifies a record category for cache-marker purposes.
type Category string

const (
	CategoryActivities Category = "activities"
	CategoryWeight     Category = "weight"
)

var (
	// ErrNotFound is returned for operations on a nonexistent record, or a
	// record not owned by the requesting user. Ownership failures are not
	// distinguishable from missing records on purpose.
	ErrNotFound = errors.New("record not found")

	// ErrUserExists is returned when a username or email is already taken.
	ErrUserExists = errors.New("username or email already exists")

	// ErrAlreadyFriends is returned when a friendship already exists.
	ErrAlreadyFriends = errors.New("already friends")
)

// StorageError wraps an underlying I/O failure. It is surfaced to the
// caller and never retried automatically.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Storagef wraps err in a StorageError for the given operation.
func Storagef(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// User is an account. The password is stored only as a bcrypt hash.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	WeightGoal   *float64  `json:"weight_goal,omitempty"`
	Language     string    `json:"language"`
	DarkMode     bool      `json:"dark_mode"`
	CreatedAt    time.Time `json:"created_at"`
}

// Friendship is a symmetric relation between two users. Both directions are
// persisted so visibility queries stay single-sided.
type Friendship struct {
	UserID   string `json:"user_id"`
	FriendID string `json:"friend_id"`
}

// Stats holds record counts across the whole store.
type Stats struct {
	Users         int64
	Activities    int64
	WeightEntries int64
	Friendships   int64
}

// RecordStore is the durable CRUD contract. Every record belongs to exactly
// one user and queries never return another user's records. Writes are
// crash-safe: fully visible or not visible at all.
type RecordStore interface {
	ActivityStore
	WeightStore
	UserStore

	// Marker returns the backend's last-modified marker for a user's record
	// category: the data file's mtime in nanoseconds for the JSON backend,
	// a monotonic version counter for the database backend. A category that
	// has never been written reports 0.
	Marker(ctx context.Context, userID string, category Category) (int64, error)

	// Stats returns record counts across all users.
	Stats(ctx context.Context) (*Stats, error)

	Close() error
}

// ActivityStore persists activity records.
type ActivityStore interface {
	// SaveActivity validates, assigns an id and persists the record,
	// returning the assigned id.
	SaveActivity(ctx context.Context, activity *fitness.Activity) (string, error)
	ListActivities(ctx context.Context, userID string) ([]fitness.Activity, error)
	UpdateActivity(ctx context.Context, userID string, activity *fitness.Activity) error
	DeleteActivity(ctx context.Context, id, userID string) error
	ClearActivities(ctx context.Context, userID string) error
}

// WeightStore persists weight entries.
type WeightStore interface {
	SaveWeightEntry(ctx context.Context, entry *fitness.WeightEntry) (string, error)
	ListWeightEntries(ctx context.Context, userID string) ([]fitness.WeightEntry, error)
	UpdateWeightEntry(ctx context.Context, userID string, entry *fitness.WeightEntry) error
	DeleteWeightEntry(ctx context.Context, id, userID string) error
	ClearWeightEntries(ctx context.Context, userID string) error
}

// UserStore persists accounts and friendships.
type UserStore interface {
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	UpdateUser(ctx context.Context, user *User) error
	AddFriend(ctx context.Context, userID, friendID string) error
	ListFriends(ctx context.Context, userID string) ([]User, error)
}
