package replication

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/amyryanmanny/ebertboxd/pkg/domain"
)

const (
	defaultBatchSize = 100
	defaultWorkers   = 5
)

// ReviewReader reads every review held by the source store
type ReviewReader interface {
	GetAllReviews(ctx context.Context) ([]domain.Review, error)
}

// ReviewBatchWriter upserts a batch of reviews into the target store
type ReviewBatchWriter interface {
	SaveReviews(ctx context.Context, reviews []domain.Review) error
}

// Config wires the replication dependencies.
type Config struct {
	Source    ReviewReader
	Target    ReviewBatchWriter
	BatchSize int
	Workers   int
}

// Replicator copies reviews from one store to another, for example from a
// Mongo collection filled by earlier runs into the SQL review table.
// Target rows are upserted, so replaying a replication is harmless.
type Replicator struct {
	source    ReviewReader
	target    ReviewBatchWriter
	batchSize int
	workers   int
}

func NewReplicator(cfg Config) (*Replicator, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("replication source is required")
	}
	if cfg.Target == nil {
		return nil, fmt.Errorf("replication target is required")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	return &Replicator{
		source:    cfg.Source,
		target:    cfg.Target,
		batchSize: cfg.BatchSize,
		workers:   cfg.Workers,
	}, nil
}

// Replicate copies every review and returns how many were written
func (r *Replicator) Replicate(ctx context.Context) (int, error) {
	reviews, err := r.source.GetAllReviews(ctx)
	if err != nil {
		return 0, fmt.Errorf("read source reviews: %w", err)
	}

	log.Printf("Replication: Loaded %d reviews, writing in batches of %d...", len(reviews), r.batchSize)

	written, err := r.processBatches(ctx, reviews)
	if err != nil {
		return written, err
	}

	log.Printf("Replication: Complete, wrote %d reviews", written)
	return written, nil
}

type batchJob struct {
	batch      []domain.Review
	start, end int
}

type batchResult struct {
	written int
	err     error
}

// processBatches writes all batches in parallel and stops at the first failed batch
func (r *Replicator) processBatches(ctx context.Context, reviews []domain.Review) (int, error) {
	numBatches := (len(reviews) + r.batchSize - 1) / r.batchSize
	jobs := make(chan batchJob, numBatches)
	results := make(chan batchResult, numBatches)

	for start := 0; start < len(reviews); start += r.batchSize {
		end := min(start+r.batchSize, len(reviews))
		jobs <- batchJob{batch: reviews[start:end], start: start, end: end}
	}
	close(jobs)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				if ctx.Err() != nil {
					results <- batchResult{err: ctx.Err()}
					continue
				}
				if err := r.target.SaveReviews(ctx, job.batch); err != nil {
					results <- batchResult{err: fmt.Errorf("write batch [%d:%d]: %w", job.start, job.end, err)}
					continue
				}
				results <- batchResult{written: len(job.batch)}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	total := 0
	var firstErr error
	for result := range results {
		if result.err != nil {
			if firstErr == nil {
				firstErr = result.err
				cancel()
			}
			continue
		}
		total += result.written
		if total%1000 == 0 || total == len(reviews) {
			log.Printf("Replication: Progress %d/%d reviews", total, len(reviews))
		}
	}

	return total, firstErr
}
