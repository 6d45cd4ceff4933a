package fitness

import (
	"fmt"

	"github.com/samber/lo"
)

// Summary holds the derived metrics over a filtered activity set.
type Summary struct {
	Count             int     `json:"count"`
	TotalDuration     int     `json:"total_duration"` // minutes
	AverageIntensity  float64 `json:"average_intensity"`
	EstimatedCalories int     `json:"estimated_calories"`
}

// Summarize computes the summary metrics for a set of activities. An empty
// input yields the zero summary, never an error.
func Summarize(activities []Activity) Summary {
	if len(activities) == 0 {
		return Summary{}
	}

	var s Summary
	var intensitySum int
	for _, a := range activities {
		s.Count++
		s.TotalDuration += a.Duration
		intensitySum += a.Intensity.Level()
		s.EstimatedCalories += EstimateCalories(a.Type, a.Duration, a.Intensity)
	}
	s.AverageIntensity = float64(intensitySum) / float64(s.Count)
	return s
}

// TypeDistribution counts activities per type.
func TypeDistribution(activities []Activity) map[string]int {
	return lo.CountValuesBy(activities, func(a Activity) string { return a.Type })
}

// WeightProgress holds derived metrics over a user's weight history.
type WeightProgress struct {
	Current *float64 `json:"current,omitempty"`
	Start   *float64 `json:"start,omitempty"`
	Change  *float64 `json:"change,omitempty"`
	ToGoal  *float64 `json:"to_goal,omitempty"`
}

// SummarizeWeight computes progress metrics from weight entries ordered by
// date ascending. A nil goal leaves ToGoal unset; an empty history yields the
// zero progress.
func SummarizeWeight(entries []WeightEntry, goal *float64) WeightProgress {
	if len(entries) == 0 {
		return WeightProgress{}
	}

	start := entries[0].Weight
	current := entries[len(entries)-1].Weight
	change := current - start

	p := WeightProgress{
		Current: &current,
		Start:   &start,
		Change:  &change,
	}
	if goal != nil {
		toGoal := current - *goal
		p.ToGoal = &toGoal
	}
	return p
}

// FormatDuration renders a minute count as a compact human string, e.g.
// "45m", "2h" or "1h 30m".
func FormatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	hours := minutes / 60
	mins := minutes % 60
	if mins == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh %dm", hours, mins)
}
