package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// QueueAssets is the Redis list key for orphaned asset cleanup jobs.
	QueueAssets = "worker:assets"
	// QueueAssetsDelayed holds cleanup jobs that are not due yet, scored by
	// their not-before time in unix milliseconds.
	QueueAssetsDelayed = "worker:assets:delayed"
	// QueueDLQ is the dead-letter queue for failed jobs after retries.
	QueueDLQ = "worker:dlq"
	// MaxRetries is the number of times to retry a job before moving to DLQ.
	MaxRetries = 3
	// RetryBackoff is the delay between retries.
	RetryBackoff = 10 * time.Second
)

// JobType identifies the job kind.
type JobType string

const (
	JobTypeAssetCleanup JobType = "asset_cleanup"
)

// AssetCleanupPayload lists storage keys uploaded for an organization that was never created.
type AssetCleanupPayload struct {
	Keys                 []string  `json:"keys"`
	OrganizationUsername string    `json:"organization_username,omitempty"`
	RequestedBy          uuid.UUID `json:"requested_by"`
}

// Job is a generic job envelope.
type Job struct {
	ID        string          `json:"id"`
	Type      JobType         `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Attempt   int             `json:"attempt"`
	CreatedAt time.Time       `json:"created_at"`
	NotBefore time.Time       `json:"not_before"`
}

// promoteBatch caps how many due jobs one Dequeue moves to the list.
const promoteBatch = 100

// Queue enqueues and dequeues jobs via Redis.
type Queue struct {
	client redis.UniversalClient
	logger *zap.Logger

	cleanupDelay time.Duration
	now          func() time.Time
}

// NewQueue creates a new Redis-backed job queue.
func NewQueue(client redis.UniversalClient, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{client: client, logger: logger, now: time.Now}
}

// WithCleanupDelay makes asset cleanup jobs wait d before a worker can take them.
func (q *Queue) WithCleanupDelay(d time.Duration) *Queue {
	q.cleanupDelay = d
	return q
}

// EnqueueAssetCleanup enqueues deletion of the given storage keys, delayed by the
// configured cleanup delay. An empty key list is a no-op.
func (q *Queue) EnqueueAssetCleanup(ctx context.Context, payload AssetCleanupPayload) error {
	if len(payload.Keys) == 0 {
		return nil
	}
	job, err := newJob(JobTypeAssetCleanup, payload)
	if err != nil {
		return err
	}
	if q.cleanupDelay <= 0 {
		if err := q.push(ctx, QueueAssets, job); err != nil {
			return err
		}
	} else {
		job.NotBefore = q.now().Add(q.cleanupDelay).UTC()
		if err := q.schedule(ctx, job); err != nil {
			return err
		}
	}
	q.logger.Debug("enqueued asset cleanup job",
		zap.String("job_id", job.ID),
		zap.Strings("keys", payload.Keys),
		zap.Time("not_before", job.NotBefore),
	)
	return nil
}

func (q *Queue) schedule(ctx context.Context, job *Job) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	z := redis.Z{Score: float64(job.NotBefore.UnixMilli()), Member: raw}
	if err := q.client.ZAdd(ctx, QueueAssetsDelayed, z).Err(); err != nil {
		return fmt.Errorf("zadd: %w", err)
	}
	return nil
}

// promoteDue moves delayed jobs whose not-before time has passed onto the list.
// ZRem decides ownership when several workers promote at once.
func (q *Queue) promoteDue(ctx context.Context) error {
	due, err := q.client.ZRangeByScore(ctx, QueueAssetsDelayed, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(q.now().UnixMilli(), 10),
		Count: promoteBatch,
	}).Result()
	if err != nil {
		return fmt.Errorf("zrangebyscore: %w", err)
	}
	for _, raw := range due {
		removed, err := q.client.ZRem(ctx, QueueAssetsDelayed, raw).Result()
		if err != nil {
			return fmt.Errorf("zrem: %w", err)
		}
		if removed == 0 {
			continue
		}
		if err := q.client.RPush(ctx, QueueAssets, raw).Err(); err != nil {
			return fmt.Errorf("rpush: %w", err)
		}
	}
	return nil
}

func newJob(typ JobType, payload any) (*Job, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return &Job{
		ID:        uuid.New().String(),
		Type:      typ,
		Payload:   body,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (q *Queue) push(ctx context.Context, key string, job *Job) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.RPush(ctx, key, raw).Err(); err != nil {
		return fmt.Errorf("rpush: %w", err)
	}
	return nil
}

// Dequeue blocks until a job is available, timeout elapses, or ctx is done.
// Due delayed jobs are promoted first. A zero timeout blocks indefinitely.
// Returns nil job when nothing was available or the payload was unreadable.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	if err := q.promoteDue(ctx); err != nil {
		return nil, err
	}
	result, err := q.client.BLPop(ctx, timeout, QueueAssets).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(result) < 2 {
		return nil, nil
	}
	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		q.logger.Warn("invalid job payload", zap.String("raw", result[1]), zap.Error(err))
		return nil, nil
	}
	return &job, nil
}

// Retry re-enqueues a job with incremented attempt. If attempt >= MaxRetries, pushes to DLQ instead.
func (q *Queue) Retry(ctx context.Context, job *Job) error {
	job.Attempt++
	if job.Attempt >= MaxRetries {
		if err := q.push(ctx, QueueDLQ, job); err != nil {
			q.logger.Error("dlq push failed", zap.Error(err), zap.String("job_id", job.ID))
			return err
		}
		q.logger.Warn("job moved to DLQ", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
		return nil
	}
	if err := q.push(ctx, QueueAssets, job); err != nil {
		return err
	}
	q.logger.Info("job retried", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
	return nil
}

// DecodeAssetCleanup unmarshals the payload of an asset cleanup job.
func DecodeAssetCleanup(job *Job) (AssetCleanupPayload, error) {
	var p AssetCleanupPayload
	if job.Type != JobTypeAssetCleanup {
		return p, fmt.Errorf("unexpected job type %q", job.Type)
	}
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		return p, fmt.Errorf("unmarshal asset cleanup payload: %w", err)
	}
	return p, nil
}
