package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/amyryanmanny/ebertboxd/pkg/domain"
)

// MultiSaver fans a review out to every configured sink.
// All sinks are attempted; the review counts as failed if any of them fails.
type MultiSaver []ReviewSaver

// SaveReview saves the review to every sink and joins their errors
func (m MultiSaver) SaveReview(ctx context.Context, review *domain.Review) error {
	var errs []error
	for i, s := range m {
		if err := s.SaveReview(ctx, review); err != nil {
			errs = append(errs, fmt.Errorf("sink %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
