package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/pulseboard/pulseboard/config"
	"github.com/pulseboard/pulseboard/fitness"
	"github.com/pulseboard/pulseboard/store"
	"github.com/pulseboard/pulseboard/store/jsonstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()

	st, err := jsonstore.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = st.Close()
	})

	cfg := &config.Config{
		DefaultLanguage: "en",
		Cache: &config.CacheConfig{
			SnapshotTTL:    300,
			SummaryTTL:     300,
			SummaryEnabled: true,
			Type:           config.CacheTypeMemory,
		},
	}
	return New(cfg, st)
}

func registerTestUser(t *testing.T, tr *Tracker, username string) *store.User {
	t.Helper()
	user, err := tr.Register(context.Background(), username, username+"@example.com", "secret123")
	require.NoError(t, err)
	return user
}

func TestRegisterAndAuthenticate(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()

	user := registerTestUser(t, tr, "alice")
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "en", user.Language)
	// The raw password is never stored.
	assert.NotEqual(t, "secret123", user.PasswordHash)

	got, err := tr.Authenticate(ctx, "alice", "secret123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = tr.Authenticate(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Unknown usernames fail the same way as wrong passwords.
	_, err = tr.Authenticate(ctx, "nobody", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		username  string
		email     string
		password  string
		wantField string
	}{
		{"username too short", "ab", "a@example.com", "secret123", "username"},
		{"password too short", "alice", "a@example.com", "12345", "password"},
		{"bad email", "alice", "not-an-email", "secret123", "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tr.Register(ctx, tt.username, tt.email, tt.password)
			var validationErr *fitness.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.wantField, validationErr.Field)
		})
	}

	registerTestUser(t, tr, "alice")
	_, err := tr.Register(ctx, "alice", "other@example.com", "secret123")
	assert.ErrorIs(t, err, store.ErrUserExists)
}

func TestActivityLifecycle(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()
	user := registerTestUser(t, tr, "alice")

	created, err := tr.AddActivity(ctx, user.ID, fitness.Activity{
		Type:      "Running",
		Duration:  30,
		Intensity: fitness.IntensityHigh,
		Date:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	got, err := tr.ListActivities(ctx, user.ID, ListOptions{})
	require.NoError(t, err)
	require.Len(t, got, 1)

	// The write invalidated the snapshot, so the update is visible right away.
	created.Duration = 45
	require.NoError(t, tr.UpdateActivity(ctx, user.ID, *created))

	got, err = tr.ListActivities(ctx, user.ID, ListOptions{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 45, got[0].Duration)

	require.NoError(t, tr.DeleteActivity(ctx, created.ID, user.ID))

	got, err = tr.ListActivities(ctx, user.ID, ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListActivitiesFilters(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()
	user := registerTestUser(t, tr, "alice")

	_, err := tr.AddActivity(ctx, user.ID, fitness.Activity{
		Type: "Running", Duration: 30, Intensity: fitness.IntensityHigh,
		Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	_, err = tr.AddActivity(ctx, user.ID, fitness.Activity{
		Type: "Cycling", Duration: 60, Intensity: fitness.IntensityLow,
		Date: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	got, err := tr.ListActivities(ctx, user.ID, ListOptions{
		From: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Running", got[0].Type)

	got, err = tr.ListActivities(ctx, user.ID, ListOptions{Types: []string{"Cycling"}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Cycling", got[0].Type)

	got, err = tr.ListActivities(ctx, user.ID, ListOptions{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestGetSummary(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()
	user := registerTestUser(t, tr, "alice")

	_, err := tr.AddActivity(ctx, user.ID, fitness.Activity{
		Type: "Running", Duration: 30, Intensity: fitness.IntensityHigh,
		Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	_, err = tr.AddActivity(ctx, user.ID, fitness.Activity{
		Type: "Cycling", Duration: 60, Intensity: fitness.IntensityLow,
		Date: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	summary, err := tr.GetSummary(ctx, user.ID, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Count)
	assert.Equal(t, 90, summary.TotalDuration)
	assert.Equal(t, 852, summary.EstimatedCalories)

	// A second read comes from the metric cache and agrees.
	cached, err := tr.GetSummary(ctx, user.ID, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, summary, cached)

	// A new write clears the cached summary.
	_, err = tr.AddActivity(ctx, user.ID, fitness.Activity{
		Type: "Yoga", Duration: 45, Intensity: fitness.IntensityMedium,
		Date: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	summary, err = tr.GetSummary(ctx, user.ID, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Count)
	assert.Equal(t, 135, summary.TotalDuration)

	distribution, err := tr.GetTypeDistribution(ctx, user.ID, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Running": 1, "Cycling": 1, "Yoga": 1}, distribution)
}

func TestWeightProgress(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()
	user := registerTestUser(t, tr, "alice")

	_, err := tr.AddWeightEntry(ctx, user.ID, fitness.WeightEntry{
		Weight: 82, Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	_, err = tr.AddWeightEntry(ctx, user.ID, fitness.WeightEntry{
		Weight: 79, Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	goal := 75.0
	_, err = tr.UpdatePreferences(ctx, user.ID, Preferences{WeightGoal: &goal})
	require.NoError(t, err)

	progress, err := tr.GetWeightProgress(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, progress.Current)
	assert.InDelta(t, 79, *progress.Current, 0.001)
	require.NotNil(t, progress.Change)
	assert.InDelta(t, -3, *progress.Change, 0.001)
	require.NotNil(t, progress.ToGoal)
	assert.InDelta(t, 4, *progress.ToGoal, 0.001)
}

func TestUpdatePreferences(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()
	user := registerTestUser(t, tr, "alice")

	lang := "de"
	dark := true
	updated, err := tr.UpdatePreferences(ctx, user.ID, Preferences{Language: &lang, DarkMode: &dark})
	require.NoError(t, err)
	assert.Equal(t, "de", updated.Language)
	assert.True(t, updated.DarkMode)

	badGoal := 10.0
	_, err = tr.UpdatePreferences(ctx, user.ID, Preferences{WeightGoal: &badGoal})
	var validationErr *fitness.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "weight_goal", validationErr.Field)
}

func TestFriends(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()
	alice := registerTestUser(t, tr, "alice")
	bob := registerTestUser(t, tr, "bobby")

	friend, err := tr.AddFriend(ctx, alice.ID, "bobby")
	require.NoError(t, err)
	assert.Equal(t, bob.ID, friend.ID)

	// Self-friendship is rejected.
	_, err = tr.AddFriend(ctx, alice.ID, "alice")
	var validationErr *fitness.ValidationError
	assert.ErrorAs(t, err, &validationErr)

	// Unknown usernames surface not found.
	_, err = tr.AddFriend(ctx, alice.ID, "nobody")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = tr.AddFriend(ctx, alice.ID, "bobby")
	assert.ErrorIs(t, err, store.ErrAlreadyFriends)

	friends, err := tr.ListFriends(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, alice.ID, friends[0].ID)
}

func TestFriendActivities(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()
	alice := registerTestUser(t, tr, "alice")
	bob := registerTestUser(t, tr, "bobby")

	_, err := tr.AddFriend(ctx, alice.ID, "bobby")
	require.NoError(t, err)

	// One recent activity and one outside the feed window.
	_, err = tr.AddActivity(ctx, bob.ID, fitness.Activity{
		Type: "Running", Duration: 30, Intensity: fitness.IntensityHigh,
		Date: time.Now().AddDate(0, 0, -1),
	})
	require.NoError(t, err)
	_, err = tr.AddActivity(ctx, bob.ID, fitness.Activity{
		Type: "Cycling", Duration: 60, Intensity: fitness.IntensityLow,
		Date: time.Now().AddDate(0, 0, -30),
	})
	require.NoError(t, err)

	feed, err := tr.FriendActivities(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "bobby", feed[0].Username)
	assert.Equal(t, "Running", feed[0].Activity.Type)

	// Alice's own activities never appear in her feed.
	_, err = tr.AddActivity(ctx, alice.ID, fitness.Activity{
		Type: "Yoga", Duration: 20, Intensity: fitness.IntensityLow,
		Date: time.Now(),
	})
	require.NoError(t, err)

	feed, err = tr.FriendActivities(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, feed, 1)
}

func TestCacheStatsAndPrune(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()
	user := registerTestUser(t, tr, "alice")

	_, err := tr.ListActivities(ctx, user.ID, ListOptions{})
	require.NoError(t, err)
	_, err = tr.ListActivities(ctx, user.ID, ListOptions{})
	require.NoError(t, err)

	stats := tr.GetCacheStats()
	assert.Equal(t, uint64(1), stats.Activities.Misses)
	assert.Equal(t, uint64(1), stats.Activities.Hits)
	assert.NotEmpty(t, stats.Metrics)

	// Nothing is past the TTL yet.
	assert.Zero(t, tr.PruneSnapshots())
}
