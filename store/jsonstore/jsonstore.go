// Package jsonstore implements the record store on flat JSON files: one
// document per record category per user under the data directory. Writes go
// through a temp file and an atomic rename, so a write is either fully
// visible or not visible at all.
package jsonstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"
	"github.com/pulseboard/pulseboard/fitness"
	"github.com/pulseboard/pulseboard/store"
)

const (
	usersFile       = "users.json"
	friendshipsFile = "friendships.json"
)

// Store is a flat-file record store rooted at a data directory.
type Store struct {
	dir string

	// One lock for the whole store. Requests are short-lived and the
	// expected write volume is a single user or a small friend group.
	mu sync.Mutex
}

// New creates the data directory if needed and returns a store rooted there.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, store.Storagef("create data directory", err)
	}
	return &Store{dir: dir}, nil
}

// Close implements store.RecordStore. Flat files hold no open handles.
func (s *Store) Close() error {
	return nil
}

func (s *Store) activitiesPath(userID string) string {
	return filepath.Join(s.dir, fmt.Sprintf("activities_%s.json", userID))
}

func (s *Store) weightPath(userID string) string {
	return filepath.Join(s.dir, fmt.Sprintf("weight_%s.json", userID))
}

func (s *Store) categoryPath(userID string, category store.Category) string {
	if category == store.CategoryWeight {
		return s.weightPath(userID)
	}
	return s.activitiesPath(userID)
}

// writeJSON serializes v and atomically replaces the target file.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return store.Storagef("encode "+filepath.Base(path), err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return store.Storagef("write "+filepath.Base(path), err)
	}
	return nil
}

// readJSON decodes the file into v. A missing file leaves v untouched.
func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return store.Storagef("read "+filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return store.Storagef("decode "+filepath.Base(path), err)
	}
	return nil
}

// Marker returns the record file's mtime in nanoseconds, or 0 if the user
// has never written that category.
func (s *Store) Marker(_ context.Context, userID string, category store.Category) (int64, error) {
	info, err := os.Stat(s.categoryPath(userID, category))
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, store.Storagef("stat "+string(category), err)
	}
	return info.ModTime().UnixNano(), nil
}

func (s *Store) readActivities(userID string) ([]fitness.Activity, error) {
	activities := []fitness.Activity{}
	if err := readJSON(s.activitiesPath(userID), &activities); err != nil {
		return nil, err
	}
	return activities, nil
}

// SaveActivity validates the record, assigns an id and appends it to the
// user's activity file.
func (s *Store) SaveActivity(_ context.Context, activity *fitness.Activity) (string, error) {
	if err := activity.Validate(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	activities, err := s.readActivities(activity.UserID)
	if err != nil {
		return "", err
	}

	activity.ID = uuid.NewString()
	activity.CreatedAt = time.Now().UTC()
	activities = append(activities, *activity)
	sortActivities(activities)

	if err := writeJSON(s.activitiesPath(activity.UserID), activities); err != nil {
		return "", err
	}
	return activity.ID, nil
}

// ListActivities returns every activity owned by the user, newest first.
func (s *Store) ListActivities(_ context.Context, userID string) ([]fitness.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readActivities(userID)
}

// UpdateActivity replaces the mutable fields of an existing activity owned
// by the user.
func (s *Store) UpdateActivity(_ context.Context, userID string, activity *fitness.Activity) error {
	if err := activity.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	activities, err := s.readActivities(userID)
	if err != nil {
		return err
	}

	found := false
	for i := range activities {
		if activities[i].ID == activity.ID {
			activities[i].Type = activity.Type
			activities[i].Duration = activity.Duration
			activities[i].Intensity = activity.Intensity
			activities[i].Date = activity.Date
			activities[i].Description = activity.Description
			activities[i].Adaptation = activity.Adaptation
			found = true
			break
		}
	}
	if !found {
		return store.ErrNotFound
	}

	sortActivities(activities)
	return writeJSON(s.activitiesPath(userID), activities)
}

// DeleteActivity removes a record if it exists in the requesting user's
// file, else fails with ErrNotFound.
func (s *Store) DeleteActivity(_ context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	activities, err := s.readActivities(userID)
	if err != nil {
		return err
	}

	kept := activities[:0]
	for _, a := range activities {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	if len(kept) == len(activities) {
		return store.ErrNotFound
	}
	return writeJSON(s.activitiesPath(userID), kept)
}

// ClearActivities removes every activity owned by the user.
func (s *Store) ClearActivities(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSON(s.activitiesPath(userID), []fitness.Activity{})
}

func (s *Store) readWeightEntries(userID string) ([]fitness.WeightEntry, error) {
	entries := []fitness.WeightEntry{}
	if err := readJSON(s.weightPath(userID), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// SaveWeightEntry validates the entry, assigns an id and appends it to the
// user's weight file.
func (s *Store) SaveWeightEntry(_ context.Context, entry *fitness.WeightEntry) (string, error) {
	if err := entry.Validate(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readWeightEntries(entry.UserID)
	if err != nil {
		return "", err
	}

	entry.ID = uuid.NewString()
	entry.CreatedAt = time.Now().UTC()
	entries = append(entries, *entry)
	sortWeightEntries(entries)

	if err := writeJSON(s.weightPath(entry.UserID), entries); err != nil {
		return "", err
	}
	return entry.ID, nil
}

// ListWeightEntries returns every weight entry owned by the user, oldest
// first.
func (s *Store) ListWeightEntries(_ context.Context, userID string) ([]fitness.WeightEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readWeightEntries(userID)
}

// UpdateWeightEntry replaces the weight and date of an existing entry.
func (s *Store) UpdateWeightEntry(_ context.Context, userID string, entry *fitness.WeightEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readWeightEntries(userID)
	if err != nil {
		return err
	}

	found := false
	for i := range entries {
		if entries[i].ID == entry.ID {
			entries[i].Weight = entry.Weight
			entries[i].Date = entry.Date
			found = true
			break
		}
	}
	if !found {
		return store.ErrNotFound
	}

	sortWeightEntries(entries)
	return writeJSON(s.weightPath(userID), entries)
}

// DeleteWeightEntry removes an entry if owned by the requesting user.
func (s *Store) DeleteWeightEntry(_ context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readWeightEntries(userID)
	if err != nil {
		return err
	}

	kept := entries[:0]
	for _, e := range entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(entries) {
		return store.ErrNotFound
	}
	return writeJSON(s.weightPath(userID), kept)
}

// ClearWeightEntries removes every weight entry owned by the user.
func (s *Store) ClearWeightEntries(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSON(s.weightPath(userID), []fitness.WeightEntry{})
}

// Stats counts records across all users by scanning the data directory.
func (s *Store) Stats(_ context.Context) (*store.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.readUsers()
	if err != nil {
		return nil, err
	}
	friendships, err := s.readFriendships()
	if err != nil {
		return nil, err
	}

	stats := &store.Stats{
		Users: int64(len(users)),
		// Friendships are stored in both directions; report pairs.
		Friendships: int64(len(friendships) / 2),
	}
	for _, u := range users {
		activities, err := s.readActivities(u.ID)
		if err != nil {
			return nil, err
		}
		entries, err := s.readWeightEntries(u.ID)
		if err != nil {
			return nil, err
		}
		stats.Activities += int64(len(activities))
		stats.WeightEntries += int64(len(entries))
	}
	return stats, nil
}

// Activities are kept newest first, matching the dashboard's default view.
func sortActivities(activities []fitness.Activity) {
	sort.SliceStable(activities, func(i, j int) bool {
		return activities[i].Date.After(activities[j].Date)
	})
}

// Weight entries are kept oldest first so progress reads left to right.
func sortWeightEntries(entries []fitness.WeightEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.Before(entries[j].Date)
	})
}
