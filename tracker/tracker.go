// Package tracker is the service layer of Pulseboard. It owns the record
// store and the caches, and exposes the operations the presentation layer
// consumes: record CRUD, filtered listings, summaries, accounts and
// friendships.
package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	gostore "github.com/eko/gocache/lib/v4/store"
	"github.com/pulseboard/pulseboard/cache"
	"github.com/pulseboard/pulseboard/config"
	"github.com/pulseboard/pulseboard/fitness"
	"github.com/pulseboard/pulseboard/store"
)

// Tracker wires the record store, the snapshot caches and the metric cache.
// It is constructed once per process and passed explicitly to its callers;
// there is no hidden package-level state.
type Tracker struct {
	cfg *config.Config
	st  store.RecordStore

	activities *cache.SnapshotCache[fitness.Activity]
	weights    *cache.SnapshotCache[fitness.WeightEntry]

	// metrics is nil when the summary cache is disabled.
	metrics *cache.MetricsCache
}

// New creates a tracker over the given record store.
func New(cfg *config.Config, st store.RecordStore) *Tracker {
	t := &Tracker{
		cfg: cfg,
		st:  st,
	}

	ttl := cfg.Cache.SnapshotTTLDuration()
	t.activities = cache.NewSnapshotCache(ttl,
		func(ctx context.Context, userID string) (int64, error) {
			return st.Marker(ctx, userID, store.CategoryActivities)
		},
		st.ListActivities,
	)
	t.weights = cache.NewSnapshotCache(ttl,
		func(ctx context.Context, userID string) (int64, error) {
			return st.Marker(ctx, userID, store.CategoryWeight)
		},
		st.ListWeightEntries,
	)

	if cfg.Cache.SummaryEnabled {
		t.metrics = cache.NewMetricsCache(cfg.Cache)
	}

	return t
}

// Store exposes the underlying record store, mainly for CLI commands.
func (t *Tracker) Store() store.RecordStore {
	return t.st
}

// ListOptions narrow an activity listing. A Period takes precedence over an
// explicit From; both bounds are inclusive.
type ListOptions struct {
	From   time.Time
	To     time.Time
	Types  []string
	Period fitness.Period
	Limit  int
}

func (o ListOptions) bounds(now time.Time) (time.Time, time.Time) {
	from, to := o.From, o.To
	if o.Period != "" {
		if start, ok := o.Period.Start(now); ok {
			from = start
			to = time.Time{}
		} else {
			from, to = time.Time{}, time.Time{}
		}
	}
	return from, to
}

// ListActivities returns the user's activities matching the options, newest
// first, served through the snapshot cache.
func (t *Tracker) ListActivities(ctx context.Context, userID string, opts ListOptions) ([]fitness.Activity, error) {
	records, hit, err := t.activities.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	log.Debug("listed activities", "user", userID, "cacheHit", hit, "records", len(records))

	from, to := opts.bounds(time.Now())
	filtered := fitness.FilterActivities(records, from, to, opts.Types)
	if opts.Limit > 0 && len(filtered) > opts.Limit {
		filtered = filtered[:opts.Limit]
	}
	return filtered, nil
}

// AddActivity validates and persists a new activity for the user and
// returns it with its assigned id.
func (t *Tracker) AddActivity(ctx context.Context, userID string, activity fitness.Activity) (*fitness.Activity, error) {
	activity.UserID = userID
	if _, err := t.st.SaveActivity(ctx, &activity); err != nil {
		return nil, err
	}
	t.invalidate(ctx, userID)
	return &activity, nil
}

// UpdateActivity replaces the mutable fields of an activity owned by the
// user.
func (t *Tracker) UpdateActivity(ctx context.Context, userID string, activity fitness.Activity) error {
	activity.UserID = userID
	if err := t.st.UpdateActivity(ctx, userID, &activity); err != nil {
		return err
	}
	t.invalidate(ctx, userID)
	return nil
}

// DeleteActivity removes an activity owned by the user.
func (t *Tracker) DeleteActivity(ctx context.Context, id, userID string) error {
	if err := t.st.DeleteActivity(ctx, id, userID); err != nil {
		return err
	}
	t.invalidate(ctx, userID)
	return nil
}

// ListWeightEntries returns the user's weight entries in the given range,
// oldest first, served through the snapshot cache.
func (t *Tracker) ListWeightEntries(ctx context.Context, userID string, from, to time.Time) ([]fitness.WeightEntry, error) {
	records, hit, err := t.weights.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	log.Debug("listed weight entries", "user", userID, "cacheHit", hit, "records", len(records))
	return fitness.FilterWeightEntries(records, from, to), nil
}

// AddWeightEntry validates and persists a new weight entry for the user.
func (t *Tracker) AddWeightEntry(ctx context.Context, userID string, entry fitness.WeightEntry) (*fitness.WeightEntry, error) {
	entry.UserID = userID
	if _, err := t.st.SaveWeightEntry(ctx, &entry); err != nil {
		return nil, err
	}
	t.invalidate(ctx, userID)
	return &entry, nil
}

// UpdateWeightEntry replaces the weight and date of an entry owned by the
// user.
func (t *Tracker) UpdateWeightEntry(ctx context.Context, userID string, entry fitness.WeightEntry) error {
	entry.UserID = userID
	if err := t.st.UpdateWeightEntry(ctx, userID, &entry); err != nil {
		return err
	}
	t.invalidate(ctx, userID)
	return nil
}

// DeleteWeightEntry removes a weight entry owned by the user.
func (t *Tracker) DeleteWeightEntry(ctx context.Context, id, userID string) error {
	if err := t.st.DeleteWeightEntry(ctx, id, userID); err != nil {
		return err
	}
	t.invalidate(ctx, userID)
	return nil
}

// GetSummary computes the activity summary for the user over the inclusive
// date range, using the metric cache when enabled.
func (t *Tracker) GetSummary(ctx context.Context, userID string, from, to time.Time) (fitness.Summary, error) {
	key := summaryKey(userID, from, to)
	if t.metrics != nil {
		if summary, err := t.metrics.SummaryCache.Get(ctx, key); err == nil {
			return summary, nil
		}
	}

	records, _, err := t.activities.Get(ctx, userID)
	if err != nil {
		return fitness.Summary{}, err
	}
	summary := fitness.Summarize(fitness.FilterActivities(records, from, to, nil))

	if t.metrics != nil {
		if err := t.metrics.SummaryCache.Set(ctx, key, summary,
			gostore.WithExpiration(t.cfg.Cache.SummaryTTLDuration())); err != nil {
			log.Debug("failed to cache summary", "user", userID, "error", err)
		}
	}
	return summary, nil
}

// GetTypeDistribution counts the user's activities per type over the
// inclusive date range.
func (t *Tracker) GetTypeDistribution(ctx context.Context, userID string, from, to time.Time) (map[string]int, error) {
	records, _, err := t.activities.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return fitness.TypeDistribution(fitness.FilterActivities(records, from, to, nil)), nil
}

// GetWeightProgress computes the user's weight progress against their goal.
func (t *Tracker) GetWeightProgress(ctx context.Context, userID string) (fitness.WeightProgress, error) {
	if t.metrics != nil {
		if progress, err := t.metrics.WeightProgressCache.Get(ctx, userID); err == nil {
			return progress, nil
		}
	}

	user, err := t.st.GetUser(ctx, userID)
	if err != nil {
		return fitness.WeightProgress{}, err
	}
	entries, _, err := t.weights.Get(ctx, userID)
	if err != nil {
		return fitness.WeightProgress{}, err
	}
	progress := fitness.SummarizeWeight(entries, user.WeightGoal)

	if t.metrics != nil {
		if err := t.metrics.WeightProgressCache.Set(ctx, userID, progress,
			gostore.WithExpiration(t.cfg.Cache.SummaryTTLDuration())); err != nil {
			log.Debug("failed to cache weight progress", "user", userID, "error", err)
		}
	}
	return progress, nil
}

func summaryKey(userID string, from, to time.Time) string {
	return fmt.Sprintf("%s:%d:%d", userID, from.Unix(), to.Unix())
}

// invalidate drops the user's snapshots and the computed metrics after a
// write. Metric keys embed date ranges and cannot be enumerated per user, so
// the metric caches are cleared wholesale; they are tiny and rebuilt on
// demand.
func (t *Tracker) invalidate(ctx context.Context, userID string) {
	t.activities.Invalidate(userID)
	t.weights.Invalidate(userID)
	if t.metrics != nil {
		if err := t.metrics.SummaryCache.Clear(ctx); err != nil {
			log.Debug("failed to clear summary cache", "error", err)
		}
		if err := t.metrics.WeightProgressCache.Clear(ctx); err != nil {
			log.Debug("failed to clear weight progress cache", "error", err)
		}
	}
}

// PruneSnapshots drops snapshots older than the TTL. Called periodically by
// the scheduler.
func (t *Tracker) PruneSnapshots() int {
	return t.activities.Prune() + t.weights.Prune()
}

// CacheStats reports the state of all caches.
type CacheStats struct {
	Activities cache.SnapshotStats `json:"activities"`
	Weights    cache.SnapshotStats `json:"weights"`
	Metrics    []*cache.Stats      `json:"metrics,omitempty"`
}

// GetCacheStats returns hit and miss counters for all caches.
func (t *Tracker) GetCacheStats() CacheStats {
	stats := CacheStats{
		Activities: t.activities.Stats(),
		Weights:    t.weights.Stats(),
	}
	if t.metrics != nil {
		stats.Metrics = t.metrics.GetStats()
	}
	return stats
}
