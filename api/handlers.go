package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pulseboard/pulseboard/fitness"
	"github.com/pulseboard/pulseboard/tracker"
)

func (s *Server) listActivities(c *gin.Context) {
	from, to, err := parseDateRange(c)
	if err != nil {
		respondError(c, err)
		return
	}

	opts := tracker.ListOptions{
		From:   from,
		To:     to,
		Types:  c.QueryArray("type"),
		Period: fitness.Period(c.Query("period")),
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			respondError(c, &fitness.ValidationError{Field: "limit", Message: "limit must be a non-negative integer"})
			return
		}
		opts.Limit = limit
	}

	activities, err := s.tracker.ListActivities(c.Request.Context(), currentUserID(c), opts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activities": activities})
}

func (s *Server) createActivity(c *gin.Context) {
	var req activityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	activity, err := req.toActivity()
	if err != nil {
		respondError(c, err)
		return
	}

	created, err := s.tracker.AddActivity(c.Request.Context(), currentUserID(c), activity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) updateActivity(c *gin.Context) {
	var req activityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	activity, err := req.toActivity()
	if err != nil {
		respondError(c, err)
		return
	}
	activity.ID = c.Param("id")

	if err := s.tracker.UpdateActivity(c.Request.Context(), currentUserID(c), activity); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (s *Server) deleteActivity(c *gin.Context) {
	if err := s.tracker.DeleteActivity(c.Request.Context(), c.Param("id"), currentUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (s *Server) activityTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"types":       fitness.ActivityTypes(),
		"adaptations": fitness.Adaptations(),
		"intensities": fitness.Intensities(),
		"periods":     fitness.Periods(),
	})
}

func (s *Server) listWeightEntries(c *gin.Context) {
	from, to, err := parseDateRange(c)
	if err != nil {
		respondError(c, err)
		return
	}

	entries, err := s.tracker.ListWeightEntries(c.Request.Context(), currentUserID(c), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (s *Server) createWeightEntry(c *gin.Context) {
	var req weightEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	entry, err := req.toWeightEntry()
	if err != nil {
		respondError(c, err)
		return
	}

	created, err := s.tracker.AddWeightEntry(c.Request.Context(), currentUserID(c), entry)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) updateWeightEntry(c *gin.Context) {
	var req weightEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	entry, err := req.toWeightEntry()
	if err != nil {
		respondError(c, err)
		return
	}
	entry.ID = c.Param("id")

	if err := s.tracker.UpdateWeightEntry(c.Request.Context(), currentUserID(c), entry); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (s *Server) deleteWeightEntry(c *gin.Context) {
	if err := s.tracker.DeleteWeightEntry(c.Request.Context(), c.Param("id"), currentUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (s *Server) weightProgress(c *gin.Context) {
	progress, err := s.tracker.GetWeightProgress(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

func (s *Server) summary(c *gin.Context) {
	from, to, err := parseDateRange(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if period := fitness.Period(c.Query("period")); period != "" {
		if start, ok := period.Start(time.Now()); ok {
			from, to = start, time.Time{}
		} else {
			from, to = time.Time{}, time.Time{}
		}
	}

	summary, err := s.tracker.GetSummary(c.Request.Context(), currentUserID(c), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	distribution, err := s.tracker.GetTypeDistribution(c.Request.Context(), currentUserID(c), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"summary":            summary,
		"type_distribution":  distribution,
		"formatted_duration": fitness.FormatDuration(summary.TotalDuration),
	})
}

func (s *Server) listFriends(c *gin.Context) {
	friends, err := s.tracker.ListFriends(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	responses := make([]userResponse, 0, len(friends))
	for i := range friends {
		responses = append(responses, toUserResponse(&friends[i]))
	}
	c.JSON(http.StatusOK, gin.H{"friends": responses})
}

type addFriendRequest struct {
	Username string `json:"username"`
}

func (s *Server) addFriend(c *gin.Context) {
	var req addFriendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	friend, err := s.tracker.AddFriend(c.Request.Context(), currentUserID(c), req.Username)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toUserResponse(friend))
}

func (s *Server) friendActivities(c *gin.Context) {
	feed, err := s.tracker.FriendActivities(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activities": feed})
}

func (s *Server) profile(c *gin.Context) {
	user, err := s.tracker.GetUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

type updateProfileRequest struct {
	Language   *string  `json:"language"`
	DarkMode   *bool    `json:"darkMode"`
	WeightGoal *float64 `json:"weightGoal"`
}

func (s *Server) updateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := s.tracker.UpdatePreferences(c.Request.Context(), currentUserID(c), tracker.Preferences{
		Language:   req.Language,
		DarkMode:   req.DarkMode,
		WeightGoal: req.WeightGoal,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

func (s *Server) cacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.tracker.GetCacheStats())
}

func (s *Server) jobStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"jobs": s.sched.GetJobs()})
}
