package jsonstore

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pulseboard/pulseboard/store"
)

func (s *Store) usersPath() string {
	return filepath.Join(s.dir, usersFile)
}

func (s *Store) friendshipsPath() string {
	return filepath.Join(s.dir, friendshipsFile)
}

func (s *Store) readUsers() ([]store.User, error) {
	users := []store.User{}
	if err := readJSON(s.usersPath(), &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) readFriendships() ([]store.Friendship, error) {
	friendships := []store.Friendship{}
	if err := readJSON(s.friendshipsPath(), &friendships); err != nil {
		return nil, err
	}
	return friendships, nil
}

// CreateUser assigns an id and persists the account. Username and email
// must be unique.
func (s *Store) CreateUser(_ context.Context, user *store.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.readUsers()
	if err != nil {
		return err
	}
	for _, u := range users {
		if u.Username == user.Username || u.Email == user.Email {
			return store.ErrUserExists
		}
	}

	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()
	users = append(users, *user)
	return writeJSON(s.usersPath(), users)
}

// GetUser returns the account with the given id.
func (s *Store) GetUser(_ context.Context, id string) (*store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.readUsers()
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

// GetUserByUsername returns the account with the given username.
func (s *Store) GetUserByUsername(_ context.Context, username string) (*store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.readUsers()
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

// UpdateUser replaces the stored account matching user.ID.
func (s *Store) UpdateUser(_ context.Context, user *store.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.readUsers()
	if err != nil {
		return err
	}
	for i := range users {
		if users[i].ID == user.ID {
			users[i] = *user
			return writeJSON(s.usersPath(), users)
		}
	}
	return store.ErrNotFound
}

// AddFriend records the symmetric friendship, both directions at once.
func (s *Store) AddFriend(_ context.Context, userID, friendID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	friendships, err := s.readFriendships()
	if err != nil {
		return err
	}
	for _, f := range friendships {
		if f.UserID == userID && f.FriendID == friendID {
			return store.ErrAlreadyFriends
		}
	}

	friendships = append(friendships,
		store.Friendship{UserID: userID, FriendID: friendID},
		store.Friendship{UserID: friendID, FriendID: userID},
	)
	return writeJSON(s.friendshipsPath(), friendships)
}

// ListFriends returns the accounts the user is friends with.
func (s *Store) ListFriends(_ context.Context, userID string) ([]store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	friendships, err := s.readFriendships()
	if err != nil {
		return nil, err
	}
	users, err := s.readUsers()
	if err != nil {
		return nil, err
	}

	byID := make(map[string]store.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	friends := []store.User{}
	for _, f := range friendships {
		if f.UserID != userID {
			continue
		}
		if friend, ok := byID[f.FriendID]; ok {
			friends = append(friends, friend)
		}
	}
	return friends, nil
}
