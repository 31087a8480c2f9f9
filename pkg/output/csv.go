package output

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/amyryanmanny/ebertboxd/pkg/domain"
)

// LetterboxdHeader is the column layout of a Letterboxd diary import
var LetterboxdHeader = []string{"tmdbID", "Title", "Rating", "Review", "WatchedDate", "Tags"}

// CSVWriter writes reviews as rows of a Letterboxd import file.
// Each row is flushed as soon as it is written, so an interrupted run leaves
// only whole rows behind.
type CSVWriter struct {
	mu          sync.Mutex
	w           *csv.Writer
	wroteHeader bool
}

// NewCSVWriter creates a writer; the header is written with the first review
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: csv.NewWriter(w)}
}

// SaveReview appends one row
func (c *CSVWriter) SaveReview(ctx context.Context, review *domain.Review) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.wroteHeader {
		if err := c.w.Write(LetterboxdHeader); err != nil {
			return fmt.Errorf("write csv header: %w", err)
		}
		c.wroteHeader = true
	}

	if err := c.w.Write(Row(review)); err != nil {
		return fmt.Errorf("write csv row for %s: %w", review.SourceURL, err)
	}
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		return fmt.Errorf("flush csv row for %s: %w", review.SourceURL, err)
	}
	return nil
}

// WriteHeader writes the header even when no review follows, so an empty run
// still produces a valid import file
func (c *CSVWriter) WriteHeader() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.wroteHeader {
		return nil
	}
	if err := c.w.Write(LetterboxdHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	c.wroteHeader = true
	c.w.Flush()
	return c.w.Error()
}

// Row renders a review in LetterboxdHeader order; absent values are empty cells
func Row(r *domain.Review) []string {
	rating := ""
	if r.Rating != nil {
		rating = strconv.FormatFloat(*r.Rating, 'f', -1, 64)
	}
	return []string{
		deref(r.ExternalMovieID),
		r.Title,
		rating,
		r.ReviewText,
		r.WatchedDate,
		deref(r.Tags),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
