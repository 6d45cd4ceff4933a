package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/pulseboard/pulseboard/fitness"
	"github.com/pulseboard/pulseboard/store"
	"github.com/pulseboard/pulseboard/tracker"
)

// dateLayout is the wire format for dates in query parameters and request
// bodies.
const dateLayout = "2006-01-02"

type userResponse struct {
	ID         string   `json:"id"`
	Username   string   `json:"username"`
	Email      string   `json:"email"`
	WeightGoal *float64 `json:"weightGoal,omitempty"`
	Language   string   `json:"language"`
	DarkMode   bool     `json:"darkMode"`
}

func toUserResponse(user *store.User) userResponse {
	return userResponse{
		ID:         user.ID,
		Username:   user.Username,
		Email:      user.Email,
		WeightGoal: user.WeightGoal,
		Language:   user.Language,
		DarkMode:   user.DarkMode,
	}
}

type activityRequest struct {
	Type        string `json:"type"`
	Duration    int    `json:"duration"`
	Intensity   string `json:"intensity"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Adaptation  string `json:"adaptation"`
}

func (r activityRequest) toActivity() (fitness.Activity, error) {
	date, err := time.Parse(dateLayout, r.Date)
	if err != nil {
		return fitness.Activity{}, &fitness.ValidationError{Field: "date", Message: "date must be formatted as YYYY-MM-DD"}
	}
	return fitness.Activity{
		Type:        r.Type,
		Duration:    r.Duration,
		Intensity:   fitness.Intensity(r.Intensity),
		Date:        date,
		Description: r.Description,
		Adaptation:  r.Adaptation,
	}, nil
}

type weightEntryRequest struct {
	Weight float64 `json:"weight"`
	Date   string  `json:"date"`
}

func (r weightEntryRequest) toWeightEntry() (fitness.WeightEntry, error) {
	date, err := time.Parse(dateLayout, r.Date)
	if err != nil {
		return fitness.WeightEntry{}, &fitness.ValidationError{Field: "date", Message: "date must be formatted as YYYY-MM-DD"}
	}
	return fitness.WeightEntry{
		Weight: r.Weight,
		Date:   date,
	}, nil
}

// parseDateRange reads the optional from/to query parameters. Missing
// parameters leave the corresponding bound open.
func parseDateRange(c *gin.Context) (time.Time, time.Time, error) {
	var from, to time.Time
	var err error

	if raw := c.Query("from"); raw != "" {
		if from, err = time.Parse(dateLayout, raw); err != nil {
			return from, to, &fitness.ValidationError{Field: "from", Message: "from must be formatted as YYYY-MM-DD"}
		}
	}
	if raw := c.Query("to"); raw != "" {
		if to, err = time.Parse(dateLayout, raw); err != nil {
			return from, to, &fitness.ValidationError{Field: "to", Message: "to must be formatted as YYYY-MM-DD"}
		}
	}
	return from, to, nil
}

// respondError maps domain errors onto HTTP statuses. Validation failures
// carry the offending field; everything unexpected is logged and hidden
// behind a 500.
func respondError(c *gin.Context, err error) {
	var validationErr *fitness.ValidationError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": validationErr.Message,
			"field": validationErr.Field,
		})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, store.ErrUserExists):
		c.JSON(http.StatusConflict, gin.H{"error": "username or email already exists"})
	case errors.Is(err, store.ErrAlreadyFriends):
		c.JSON(http.StatusConflict, gin.H{"error": "already friends"})
	case errors.Is(err, tracker.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
	default:
		log.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
