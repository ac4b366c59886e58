// Package worker processes background jobs from the Redis queue.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/campus-orgs/backend/pkg/queue"
)

// AssetReferences reports whether a stored object is still in use.
type AssetReferences interface {
	ReferencesAssetKey(ctx context.Context, key string) (bool, error)
}

// ObjectDeleter removes objects from the assets bucket.
type ObjectDeleter interface {
	DeleteObject(ctx context.Context, key string) error
}

// JobQueue is the part of *queue.Queue the processor consumes.
type JobQueue interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// AssetCleanupProcessor deletes uploaded images that were left behind by a
// failed organization create.
type AssetCleanupProcessor struct {
	refs    AssetReferences
	objects ObjectDeleter
	queue   JobQueue
	logger  *zap.Logger

	pollTimeout time.Duration
	backoff     time.Duration
}

// NewAssetCleanupProcessor creates an asset cleanup processor.
func NewAssetCleanupProcessor(refs AssetReferences, objects ObjectDeleter, q JobQueue, logger *zap.Logger) *AssetCleanupProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssetCleanupProcessor{
		refs:        refs,
		objects:     objects,
		queue:       q,
		logger:      logger,
		pollTimeout: 5 * time.Second,
		backoff:     queue.RetryBackoff,
	}
}

// Process executes one cleanup job. Keys still referenced by an organization are kept.
func (p *AssetCleanupProcessor) Process(ctx context.Context, job *queue.Job) error {
	payload, err := queue.DecodeAssetCleanup(job)
	if err != nil {
		return err
	}

	var errs []error
	for _, key := range payload.Keys {
		used, err := p.refs.ReferencesAssetKey(ctx, key)
		if err != nil {
			errs = append(errs, fmt.Errorf("lookup %s: %w", key, err))
			continue
		}
		if used {
			p.logger.Info("asset still referenced, keeping", zap.String("key", key))
			continue
		}
		if err := p.objects.DeleteObject(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", key, err))
			continue
		}
		p.logger.Info("orphaned asset deleted",
			zap.String("key", key),
			zap.String("organization_username", payload.OrganizationUsername),
		)
	}
	return errors.Join(errs...)
}

// Run starts the worker loop: dequeue, process, retry on error. It returns when ctx is done.
func (p *AssetCleanupProcessor) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			p.logger.Info("asset cleanup worker stopping")
			return
		}

		job, err := p.queue.Dequeue(ctx, p.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
			if reErr := p.queue.Retry(context.WithoutCancel(ctx), job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.sleep(ctx)
		}
	}
}

func (p *AssetCleanupProcessor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
