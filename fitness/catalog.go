// Package fitness holds the activity domain: the fixed activity catalog,
// intensity and adaptation scales, record types, validation, filtering and
// aggregation. Everything in here is pure computation; persistence lives in
// the store packages.
package fitness

// Intensity is the ordinal effort level of an activity.
type Intensity string

const (
	IntensityLow    Intensity = "Low"
	IntensityMedium Intensity = "Medium"
	IntensityHigh   Intensity = "High"
)

// Intensities lists all valid intensity levels in ascending order.
func Intensities() []Intensity {
	return []Intensity{IntensityLow, IntensityMedium, IntensityHigh}
}

// Valid reports whether the intensity is one of the fixed levels.
func (i Intensity) Valid() bool {
	switch i {
	case IntensityLow, IntensityMedium, IntensityHigh:
		return true
	}
	return false
}

// Level maps the ordinal scale to a numeric value (Low=1, Medium=2, High=3).
// Unknown intensities map to 0.
func (i Intensity) Level() int {
	switch i {
	case IntensityLow:
		return 1
	case IntensityMedium:
		return 2
	case IntensityHigh:
		return 3
	}
	return 0
}

// Multiplier returns the calorie multiplier for the intensity. Unknown
// intensities fall back to the medium multiplier.
func (i Intensity) Multiplier() float64 {
	switch i {
	case IntensityLow:
		return 0.8
	case IntensityHigh:
		return 1.3
	}
	return 1.0
}

// activityTypes is the fixed activity catalog.
var activityTypes = []string{
	"Running", "Walking", "Cycling", "Swimming", "Hiking", "Weightlifting",
	"Skiing", "Back-country Skiing", "Yoga", "Rock Climbing", "Boxing",
	"Basketball", "Soccer", "Tennis", "CrossFit", "Pilates", "Dancing",
	"Martial Arts", "Rowing", "Bodyweight", "Other",
}

// caloriesPerMinute holds the base calorie coefficient per activity type.
// The values are a static lookup table, not a model.
var caloriesPerMinute = map[string]int{
	"Running":             12,
	"Walking":             4,
	"Cycling":             8,
	"Swimming":            11,
	"Hiking":              6,
	"Weightlifting":       6,
	"Skiing":              10,
	"Back-country Skiing": 12,
	"Yoga":                3,
	"Rock Climbing":       8,
	"Boxing":              10,
	"Basketball":          8,
	"Soccer":              9,
	"Tennis":              7,
	"CrossFit":            9,
	"Pilates":             4,
	"Dancing":             5,
	"Martial Arts":        8,
	"Rowing":              9,
	"Bodyweight":          4,
	"Other":               5,
}

const defaultCaloriesPerMinute = 5

// ActivityTypes returns the fixed activity catalog.
func ActivityTypes() []string {
	types := make([]string, len(activityTypes))
	copy(types, activityTypes)
	return types
}

// KnownType reports whether the activity type is part of the catalog.
func KnownType(activityType string) bool {
	_, ok := caloriesPerMinute[activityType]
	return ok
}

// adaptations is the fixed set of physiological training-response categories.
var adaptations = []string{
	"Aerobic Base",
	"Aerobic Capacity",
	"Lactate Threshold",
	"Anaerobic Capacity",
	"Speed",
	"Strength",
	"Hypertrophy",
	"Power",
	"Mobility",
}

// Adaptations returns the nine fixed adaptation categories.
func Adaptations() []string {
	out := make([]string, len(adaptations))
	copy(out, adaptations)
	return out
}

// KnownAdaptation reports whether the adaptation is one of the fixed categories.
func KnownAdaptation(adaptation string) bool {
	for _, a := range adaptations {
		if a == adaptation {
			return true
		}
	}
	return false
}

// EstimateCalories computes the calorie estimate for an activity as
// base coefficient x duration x intensity multiplier, truncated to an int.
// Types outside the catalog use a conservative default coefficient; writes
// never produce such records, but historical data may.
func EstimateCalories(activityType string, durationMinutes int, intensity Intensity) int {
	base, ok := caloriesPerMinute[activityType]
	if !ok {
		base = defaultCaloriesPerMinute
	}
	return int(float64(base) * float64(durationMinutes) * intensity.Multiplier())
}
