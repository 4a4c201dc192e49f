package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	errx "github.com/medlama/server/internal/core/error"
	logx "github.com/medlama/server/pkg/logger"
)

const (
	symptomsKey = "triage:analytics:symptoms"
	dailyKey    = "triage:analytics:daily"
	severityKey = "triage:analytics:severity:%s"
)

// Snapshot is the aggregate view served by the analytics endpoints.
type Snapshot struct {
	Symptoms map[string]int64 `json:"symptoms"`
	Daily    map[string]int64 `json:"daily"`
	Total    int64            `json:"total_consultations"`
}

// Tracker records consultation counters in Redis hashes. Counters survive
// restarts; a tracking failure never fails the turn that produced it.
type Tracker struct {
	client redis.Cmdable
}

func NewTracker(client redis.Cmdable) *Tracker {
	return &Tracker{client: client}
}

// Track bumps the per-topic, per-day, and per-severity counters for one
// completed consultation. Errors are logged and swallowed.
func (t *Tracker) Track(ctx context.Context, topic, severity string) {
	if severity == "" {
		severity = "moderate"
	}
	day := time.Now().UTC().Format("2006-01-02")

	pipe := t.client.Pipeline()
	pipe.HIncrBy(ctx, symptomsKey, topic, 1)
	pipe.HIncrBy(ctx, dailyKey, day, 1)
	pipe.HIncrBy(ctx, fmt.Sprintf(severityKey, topic), severity, 1)
	if _, err := pipe.Exec(ctx); err != nil {
		logx.Warn().Err(err).Str("topic", topic).Msg("failed to record consultation analytics")
	}
}

// SymptomCounts reads the per-topic counters.
func (t *Tracker) SymptomCounts(ctx context.Context) (map[string]int64, error) {
	raw, err := t.client.HGetAll(ctx, symptomsKey).Result()
	if err != nil {
		return nil, errx.WrapRedis(err)
	}
	return parseCounts(raw), nil
}

// Overview reads every counter into one snapshot.
func (t *Tracker) Overview(ctx context.Context) (*Snapshot, error) {
	symptoms, err := t.SymptomCounts(ctx)
	if err != nil {
		return nil, err
	}
	rawDaily, err := t.client.HGetAll(ctx, dailyKey).Result()
	if err != nil {
		return nil, errx.WrapRedis(err)
	}
	daily := parseCounts(rawDaily)

	var total int64
	for _, n := range symptoms {
		total += n
	}
	return &Snapshot{Symptoms: symptoms, Daily: daily, Total: total}, nil
}

// Insights summarizes the counters into a short human-readable report.
func (t *Tracker) Insights(ctx context.Context) (string, error) {
	symptoms, err := t.SymptomCounts(ctx)
	if err != nil {
		return "", err
	}
	if len(symptoms) == 0 {
		return "No symptom data available yet.", nil
	}
	var topTopic string
	var topCount int64 = -1
	var total int64
	for topic, n := range symptoms {
		total += n
		if n > topCount || (n == topCount && topic < topTopic) {
			topTopic, topCount = topic, n
		}
	}
	return fmt.Sprintf("Most common topic: %s (%d of %d consultations)", topTopic, topCount, total), nil
}

func parseCounts(raw map[string]string) map[string]int64 {
	out := make(map[string]int64, len(raw))
	for k, v := range raw {
		var n int64
		if _, err := fmt.Sscan(v, &n); err == nil {
			out[k] = n
		}
	}
	return out
}
