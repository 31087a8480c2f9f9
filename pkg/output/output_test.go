package output

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amyryanmanny/ebertboxd/pkg/domain"
)

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func thirdMan() *domain.Review {
	return &domain.Review{
		SourceURL:       "https://www.rogerebert.com/reviews/great-movie-the-third-man-1949",
		ExternalMovieID: strPtr("1092"),
		Title:           "The Third Man",
		Rating:          floatPtr(4),
		ReviewText:      "<b>A haunting portrait</b>\n\nOf all the movies, \"this\" one.",
		WatchedDate:     "1999-07-08",
		Tags:            strPtr(domain.GreatMoviesTag),
	}
}

func TestCSVWriter_Rows(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf)

	require.NoError(t, w.SaveReview(context.Background(), thirdMan()))
	require.NoError(t, w.SaveReview(context.Background(), &domain.Review{
		Title:       "Deuce Bigalow: European Gigolo",
		ReviewText:  "<b>Not funny</b>\n\n",
		WatchedDate: "2005-08-11",
		Rating:      floatPtr(3.5),
	}))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, LetterboxdHeader, records[0])
	assert.Equal(t, []string{"1092", "The Third Man", "4", "<b>A haunting portrait</b>\n\nOf all the movies, \"this\" one.", "1999-07-08", "great movies"}, records[1])
	assert.Equal(t, []string{"", "Deuce Bigalow: European Gigolo", "3.5", "<b>Not funny</b>\n\n", "2005-08-11", ""}, records[2])
}

func TestCSVWriter_HeaderOnlyOnce(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf)

	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.SaveReview(context.Background(), thirdMan()))

	assert.Equal(t, 1, strings.Count(buf.String(), "tmdbID,Title,Rating,Review,WatchedDate,Tags"))
}

func TestCSVWriter_Concurrent(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r := thirdMan()
			r.Title = fmt.Sprintf("Movie %d", i)
			assert.NoError(t, w.SaveReview(context.Background(), r))
		}(i)
	}
	wg.Wait()

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 21)
}

func TestCSVWriter_CancelledContext(t *testing.T) {
	var buf bytes.Buffer
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewCSVWriter(&buf).SaveReview(ctx, thirdMan())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, buf.String())
}

func TestRow_ZeroRating(t *testing.T) {
	row := Row(&domain.Review{Rating: floatPtr(0.5)})
	assert.Equal(t, "0.5", row[2])
}

func TestJSONLWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONLWriter(&buf)

	require.NoError(t, w.SaveReview(context.Background(), thirdMan()))
	require.NoError(t, w.SaveReview(context.Background(), &domain.Review{SourceURL: "https://example.com/x", Title: "X"}))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"review":"<b>A haunting portrait</b>`)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "1092", first["tmdb_id"])
	assert.Equal(t, 4.0, first["rating"])
	assert.Equal(t, "great movies", first["tags"])

	var second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.NotContains(t, second, "rating")
	assert.NotContains(t, second, "tmdb_id")
	assert.NotContains(t, second, "tags")
}
