package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron/v2"
	"github.com/pulseboard/pulseboard/config"
	"github.com/pulseboard/pulseboard/scheduler"
	"github.com/pulseboard/pulseboard/store/jsonstore"
	"github.com/pulseboard/pulseboard/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newServer builds a server without routes, so tests can either drive the
// gin engine directly or exercise Run.
func newServer(t *testing.T, ctx context.Context) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := jsonstore.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = st.Close()
	})

	sched, err := scheduler.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sched.Stop()
	})

	cfg := &config.Config{
		Listen:          "127.0.0.1:0",
		SessionKey:      "test-session-key",
		SessionMaxAge:   3600,
		DefaultLanguage: "en",
		Storage: &config.StorageConfig{
			Backend: config.StorageBackendJSON,
		},
		Cache: &config.CacheConfig{
			SnapshotTTL:    300,
			SummaryTTL:     300,
			SummaryEnabled: true,
			Type:           config.CacheTypeMemory,
		},
	}

	s, err := New(ctx, cfg, tracker.New(cfg, st), sched)
	require.NoError(t, err)
	return s
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s := newServer(t, context.Background())
	s.setupRoutes()
	return s
}

// client drives the API carrying session cookies between requests.
type client struct {
	t       *testing.T
	server  *Server
	cookies []*http.Cookie
}

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	c.server.ginEngine.ServeHTTP(w, req)

	if cookies := w.Result().Cookies(); len(cookies) > 0 {
		c.cookies = cookies
	}
	return w
}

func (c *client) register(username string) {
	c.t.Helper()
	w := c.do(http.MethodPost, "/api/auth/register", gin.H{
		"username": username,
		"email":    username + "@example.com",
		"password": "secret123",
	})
	require.Equal(c.t, http.StatusCreated, w.Code, w.Body.String())
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)
	c := &client{t: t, server: s}

	// Unauthenticated requests are rejected.
	w := c.do(http.MethodGet, "/api/activities", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	c.register("alice")

	w = c.do(http.MethodGet, "/api/auth/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me userResponse
	decode(t, w, &me)
	assert.Equal(t, "alice", me.Username)

	// Logout drops the session.
	w = c.do(http.MethodPost, "/api/auth/logout", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = c.do(http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Login works again with the right password only.
	w = c.do(http.MethodPost, "/api/auth/login", gin.H{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = c.do(http.MethodPost, "/api/auth/login", gin.H{"username": "alice", "password": "secret123"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterConflicts(t *testing.T) {
	s := newTestServer(t)
	c := &client{t: t, server: s}
	c.register("alice")

	w := c.do(http.MethodPost, "/api/auth/register", gin.H{
		"username": "alice",
		"email":    "other@example.com",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = c.do(http.MethodPost, "/api/auth/register", gin.H{
		"username": "ab",
		"email":    "ab@example.com",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body map[string]string
	decode(t, w, &body)
	assert.Equal(t, "username", body["field"])
}

func TestActivityEndpoints(t *testing.T) {
	s := newTestServer(t)
	c := &client{t: t, server: s}
	c.register("alice")

	w := c.do(http.MethodPost, "/api/activities", gin.H{
		"type":      "Running",
		"duration":  30,
		"intensity": "High",
		"date":      "2024-01-01",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID string `json:"id"`
	}
	decode(t, w, &created)
	require.NotEmpty(t, created.ID)

	w = c.do(http.MethodPost, "/api/activities", gin.H{
		"type":      "Cycling",
		"duration":  60,
		"intensity": "Low",
		"date":      "2024-01-05",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// Range filter keeps only the first day.
	w = c.do(http.MethodGet, "/api/activities?from=2024-01-01&to=2024-01-01", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listing struct {
		Activities []struct {
			Type string `json:"type"`
		} `json:"activities"`
	}
	decode(t, w, &listing)
	require.Len(t, listing.Activities, 1)
	assert.Equal(t, "Running", listing.Activities[0].Type)

	// Validation failures report the field.
	w = c.do(http.MethodPost, "/api/activities", gin.H{
		"type":      "Running",
		"duration":  0,
		"intensity": "High",
		"date":      "2024-01-01",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var errBody map[string]string
	decode(t, w, &errBody)
	assert.Equal(t, "duration", errBody["field"])

	// Update and delete.
	w = c.do(http.MethodPut, "/api/activities/"+created.ID, gin.H{
		"type":      "Running",
		"duration":  45,
		"intensity": "Medium",
		"date":      "2024-01-01",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = c.do(http.MethodDelete, "/api/activities/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = c.do(http.MethodDelete, "/api/activities/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSummaryEndpoint(t *testing.T) {
	s := newTestServer(t)
	c := &client{t: t, server: s}
	c.register("alice")

	w := c.do(http.MethodPost, "/api/activities", gin.H{
		"type":      "Running",
		"duration":  30,
		"intensity": "High",
		"date":      "2024-01-01",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = c.do(http.MethodGet, "/api/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Summary struct {
			Count             int `json:"count"`
			TotalDuration     int `json:"total_duration"`
			EstimatedCalories int `json:"estimated_calories"`
		} `json:"summary"`
		TypeDistribution  map[string]int `json:"type_distribution"`
		FormattedDuration string         `json:"formatted_duration"`
	}
	decode(t, w, &body)
	assert.Equal(t, 1, body.Summary.Count)
	assert.Equal(t, 30, body.Summary.TotalDuration)
	assert.Equal(t, 468, body.Summary.EstimatedCalories)
	assert.Equal(t, map[string]int{"Running": 1}, body.TypeDistribution)
	assert.Equal(t, "30m", body.FormattedDuration)
}

func TestWeightEndpoints(t *testing.T) {
	s := newTestServer(t)
	c := &client{t: t, server: s}
	c.register("alice")

	w := c.do(http.MethodPost, "/api/weight", gin.H{"weight": 82.0, "date": "2024-01-01"})
	require.Equal(t, http.StatusCreated, w.Code)
	w = c.do(http.MethodPost, "/api/weight", gin.H{"weight": 79.0, "date": "2024-03-01"})
	require.Equal(t, http.StatusCreated, w.Code)

	// Goal feeds the progress numbers.
	w = c.do(http.MethodPut, "/api/profile", gin.H{"weightGoal": 75.0})
	require.Equal(t, http.StatusOK, w.Code)

	w = c.do(http.MethodGet, "/api/weight/progress", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var progress struct {
		Current *float64 `json:"current"`
		Change  *float64 `json:"change"`
		ToGoal  *float64 `json:"to_goal"`
	}
	decode(t, w, &progress)
	require.NotNil(t, progress.Current)
	assert.InDelta(t, 79, *progress.Current, 0.001)
	require.NotNil(t, progress.Change)
	assert.InDelta(t, -3, *progress.Change, 0.001)
	require.NotNil(t, progress.ToGoal)
	assert.InDelta(t, 4, *progress.ToGoal, 0.001)

	// Out-of-range weight is rejected.
	w = c.do(http.MethodPost, "/api/weight", gin.H{"weight": 10.0, "date": "2024-01-01"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFriendEndpoints(t *testing.T) {
	s := newTestServer(t)
	alice := &client{t: t, server: s}
	bob := &client{t: t, server: s}
	alice.register("alice")
	bob.register("bobby")

	w := alice.do(http.MethodPost, "/api/friends", gin.H{"username": "bobby"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = alice.do(http.MethodPost, "/api/friends", gin.H{"username": "bobby"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = alice.do(http.MethodPost, "/api/friends", gin.H{"username": "nobody"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Symmetric: bob sees alice without acting.
	w = bob.do(http.MethodGet, "/api/friends", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var friends struct {
		Friends []userResponse `json:"friends"`
	}
	decode(t, w, &friends)
	require.Len(t, friends.Friends, 1)
	assert.Equal(t, "alice", friends.Friends[0].Username)
}

func TestCacheStatsEndpoint(t *testing.T) {
	s := newTestServer(t)
	c := &client{t: t, server: s}
	c.register("alice")

	w := c.do(http.MethodGet, "/api/stats/cache", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats tracker.CacheStats
	decode(t, w, &stats)
	assert.NotEmpty(t, stats.Metrics)
}

func TestJobStatsEndpoint(t *testing.T) {
	s := newTestServer(t)
	c := &client{t: t, server: s}
	c.register("alice")

	err := s.sched.AddJob(
		"snapshot-sweep",
		"Snapshot cache sweep",
		"10m",
		gocron.DurationJob(10*time.Minute),
		func(_ context.Context) error { return nil },
	)
	require.NoError(t, err)

	w := c.do(http.MethodGet, "/api/stats/jobs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Jobs map[string]scheduler.JobInfo `json:"jobs"`
	}
	decode(t, w, &body)
	require.Contains(t, body.Jobs, "snapshot-sweep")
	assert.Equal(t, "Snapshot cache sweep", body.Jobs["snapshot-sweep"].Name)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := newServer(t, ctx)

	done := make(chan error, 1)
	go func() {
		done <- s.Run()
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down after context cancellation")
	}
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)
	c := &client{t: t, server: s}

	w := c.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
