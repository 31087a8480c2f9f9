package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/amyryanmanny/ebertboxd/pkg/domain"
	"github.com/amyryanmanny/ebertboxd/pkg/httpclient"
	"github.com/amyryanmanny/ebertboxd/pkg/listing"
	"github.com/amyryanmanny/ebertboxd/pkg/review"
)

// HTTPReviewProcessor implements ReviewProcessor by fetching the review page
// over HTTP and running the review extractor on it
type HTTPReviewProcessor struct {
	fetcher listing.Fetcher
	now     func() time.Time
}

// NewHTTPReviewProcessor creates a processor using the given fetcher
func NewHTTPReviewProcessor(fetcher listing.Fetcher) *HTTPReviewProcessor {
	return &HTTPReviewProcessor{
		fetcher: fetcher,
		now:     time.Now,
	}
}

// ProcessReview fetches the page and extracts the review.
// Extraction failures come back as *review.ExtractionError.
func (p *HTTPReviewProcessor) ProcessReview(ctx context.Context, url string) (*domain.Review, error) {
	page, err := p.fetcher.Fetch(ctx, url, httpclient.AcceptHTML)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch review page: %w", err)
	}
	if len(page) == 0 {
		return nil, fmt.Errorf("failed to fetch review page: empty response from %s", url)
	}

	extraction, err := review.Extract(page, url)
	if err != nil {
		var extractErr *review.ExtractionError
		if errors.As(err, &extractErr) && errors.Is(err, review.ErrMissingElement) {
			if extractErr.Readable {
				log.Printf("Review processor: WARNING %s has article text but no %s, the page layout may have changed", url, extractErr.Field)
			} else {
				log.Printf("Review processor: WARNING %s has no article text, possibly a blocked or placeholder page", url)
			}
		}
		return nil, err
	}

	switch extraction.Rating.Kind {
	case review.RatingStars, review.RatingNone, review.RatingThumbsDown:
	default:
		log.Printf("Review processor: WARNING %s has an unrecognized rating widget (%s, last icon %q)",
			url, extraction.Rating.Kind, extraction.Rating.LastIcon)
	}

	r := extraction.Review
	r.CrawledAt = p.now().UTC()
	return &r, nil
}
