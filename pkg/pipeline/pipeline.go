package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/amyryanmanny/ebertboxd/pkg/domain"
	"github.com/amyryanmanny/ebertboxd/pkg/review"
)

// LinkSource streams review-detail URLs into out until the listing is exhausted.
// It must not close out.
// Implemented by listing.Crawler.
type LinkSource interface {
	Links(ctx context.Context, out chan<- string) error
}

// ReviewProcessor fetches a review-detail page and extracts the Review
type ReviewProcessor interface {
	ProcessReview(ctx context.Context, url string) (*domain.Review, error)
}

// ReviewSaver persists a Review. Implementations must accept concurrent calls.
type ReviewSaver interface {
	SaveReview(ctx context.Context, review *domain.Review) error
}

// ReviewConsumer is the final step that turns URLs into saved reviews
type ReviewConsumer struct {
	WorkerCount int // Upper bound on review pages fetched at once
	Processor   ReviewProcessor
	Saver       ReviewSaver
}

// Stage names the step a document failed in
type Stage string

const (
	StageFetch   Stage = "fetch"
	StageExtract Stage = "extract"
	StageSave    Stage = "save"
)

// Failure records one document that produced no saved review
type Failure struct {
	URL   string
	Stage Stage
	Err   error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s %s: %v", f.Stage, f.URL, f.Err)
}

// Report summarizes a run
type Report struct {
	Discovered int       // URLs handed to review workers
	Saved      int       // Reviews saved
	Failures   []Failure // Documents that failed, in completion order
	ListingErr error     // Set when the listing crawl ended early on an error
}

// Pipeline runs listing traversal and review workers concurrently
type Pipeline struct {
	source   LinkSource
	consumer ReviewConsumer
}

// NewPipeline creates a new pipeline from a link source and a review consumer
func NewPipeline(source LinkSource, consumer ReviewConsumer) *Pipeline {
	return &Pipeline{
		source:   source,
		consumer: consumer,
	}
}

type result struct {
	url     string
	failure *Failure
}

// Run crawls the listing and processes every discovered URL.
// A failing document is recorded in the report and never stops the others;
// a failing listing page stops discovery but lets in-flight documents finish.
// The returned error is non-nil only for a misconfigured pipeline or a
// cancelled context; the report is valid in both cases it is returned.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	links := make(chan string, p.consumer.WorkerCount*2)
	results := make(chan result, p.consumer.WorkerCount*2)
	report := &Report{}

	var listingErr error
	var sourceWg sync.WaitGroup
	sourceWg.Add(1)
	go func() {
		defer sourceWg.Done()
		defer close(links)
		listingErr = p.source.Links(ctx, links)
	}()

	var workersWg sync.WaitGroup
	for i := 0; i < p.consumer.WorkerCount; i++ {
		workersWg.Add(1)
		go func(workerID int) {
			defer workersWg.Done()
			p.runWorker(ctx, workerID, links, results)
		}(i)
	}

	go func() {
		workersWg.Wait()
		close(results)
	}()

	for res := range results {
		report.Discovered++
		if res.failure != nil {
			report.Failures = append(report.Failures, *res.failure)
			continue
		}
		report.Saved++
	}
	sourceWg.Wait()

	if err := ctx.Err(); err != nil {
		log.Printf("Pipeline: Cancelled after %d saved reviews", report.Saved)
		return report, err
	}
	if listingErr != nil {
		report.ListingErr = listingErr
	}

	log.Printf("Pipeline: Done - discovered %d, saved %d, failed %d", report.Discovered, report.Saved, len(report.Failures))
	return report, nil
}

func (p *Pipeline) validate() error {
	if p.source == nil {
		return fmt.Errorf("link source is not set")
	}
	if p.consumer.Processor == nil {
		return fmt.Errorf("review processor is not set")
	}
	if p.consumer.Saver == nil {
		return fmt.Errorf("review saver is not set")
	}
	if p.consumer.WorkerCount <= 0 {
		return fmt.Errorf("worker count must be positive, got %d", p.consumer.WorkerCount)
	}
	return nil
}

// runWorker processes URLs until the link channel closes or ctx is done
func (p *Pipeline) runWorker(ctx context.Context, workerID int, links <-chan string, results chan<- result) {
	for {
		select {
		case url, ok := <-links:
			if !ok {
				return
			}
			failure := p.processURL(ctx, workerID, url)
			if failure != nil && interrupted(ctx, failure.Err) {
				return
			}
			results <- result{url: url, failure: failure}
			if ctx.Err() != nil {
				return
			}

		case <-ctx.Done():
			log.Printf("Review worker %d: Context cancelled", workerID)
			return
		}
	}
}

// processURL extracts and saves one review, returning the failure if there was one
func (p *Pipeline) processURL(ctx context.Context, workerID int, url string) *Failure {
	log.Printf("Review worker %d: Processing %s", workerID, url)

	r, err := p.consumer.Processor.ProcessReview(ctx, url)
	if err != nil {
		f := &Failure{URL: url, Stage: classify(err), Err: err}
		log.Printf("Review worker %d: ERROR %v", workerID, f)
		return f
	}

	if err := p.consumer.Saver.SaveReview(ctx, r); err != nil {
		f := &Failure{URL: url, Stage: StageSave, Err: err}
		log.Printf("Review worker %d: ERROR %v", workerID, f)
		return f
	}

	log.Printf("Review worker %d: SUCCESS - saved %q (%s)", workerID, r.Title, url)
	return nil
}

// interrupted reports whether err comes from the run's own cancellation
// rather than from the document. Per-request timeouts stay document failures.
func interrupted(ctx context.Context, err error) bool {
	if ctx.Err() == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// classify tells extraction failures apart from transport failures
func classify(err error) Stage {
	var extractErr *review.ExtractionError
	if errors.As(err, &extractErr) {
		return StageExtract
	}
	return StageFetch
}
