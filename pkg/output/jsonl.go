package output

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/amyryanmanny/ebertboxd/pkg/domain"
)

// JSONLWriter writes one JSON object per review per line
type JSONLWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewJSONLWriter(w io.Writer) *JSONLWriter {
	enc := json.NewEncoder(w)
	// Review text carries <b> markup that must stay readable
	enc.SetEscapeHTML(false)
	return &JSONLWriter{enc: enc}
}

// SaveReview appends one line
func (j *JSONLWriter) SaveReview(ctx context.Context, review *domain.Review) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.enc.Encode(review); err != nil {
		return fmt.Errorf("encode review %s: %w", review.SourceURL, err)
	}
	return nil
}
