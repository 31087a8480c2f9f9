package pipeline

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amyryanmanny/ebertboxd/pkg/httpclient"
	"github.com/amyryanmanny/ebertboxd/pkg/listing"
	"github.com/amyryanmanny/ebertboxd/pkg/output"
	"github.com/amyryanmanny/ebertboxd/pkg/review"
)

func reviewFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "review", "testdata", name))
	require.NoError(t, err)
	return data
}

func fixedClock() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

func TestHTTPReviewProcessor_ProcessReview(t *testing.T) {
	page := reviewFixture(t, "review.html")
	var gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		w.Write(page)
	}))
	defer server.Close()

	p := NewHTTPReviewProcessor(httpclient.NewClient(httpclient.BrowserClient))
	p.now = fixedClock

	r, err := p.ProcessReview(context.Background(), server.URL+"/reviews/great-movie-the-third-man-1949")
	require.NoError(t, err)

	assert.Equal(t, httpclient.AcceptHTML, gotAccept)
	assert.Equal(t, "The Third Man", r.Title)
	assert.Equal(t, server.URL+"/reviews/great-movie-the-third-man-1949", r.SourceURL)
	assert.Equal(t, fixedClock(), r.CrawledAt)
}

func TestHTTPReviewProcessor_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	p := NewHTTPReviewProcessor(httpclient.NewClient(httpclient.BrowserClient))

	r, err := p.ProcessReview(context.Background(), server.URL)
	require.Error(t, err)
	assert.Nil(t, r)

	var statusErr *httpclient.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, StageFetch, classify(err))
}

func TestHTTPReviewProcessor_EmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	p := NewHTTPReviewProcessor(httpclient.NewClient(httpclient.BrowserClient))

	_, err := p.ProcessReview(context.Background(), server.URL)
	require.Error(t, err)
	assert.Equal(t, StageFetch, classify(err))
}

func TestHTTPReviewProcessor_ExtractionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><p>Page moved</p></body></html>`))
	}))
	defer server.Close()

	p := NewHTTPReviewProcessor(httpclient.NewClient(httpclient.BrowserClient))

	_, err := p.ProcessReview(context.Background(), server.URL)
	var extractErr *review.ExtractionError
	require.True(t, errors.As(err, &extractErr))
	assert.Equal(t, "title", extractErr.Field)
	assert.Equal(t, StageExtract, classify(err))
}

// TestPipeline_EndToEnd crawls a fake archive with two listing pages and
// writes the reviews to a Letterboxd CSV
func TestPipeline_EndToEnd(t *testing.T) {
	pages := map[string][]byte{
		"/reviews/great-movie-the-third-man-1949":     reviewFixture(t, "review.html"),
		"/reviews/deuce-bigalow-european-gigolo-2005": reviewFixture(t, "thumbsdown.html"),
		"/reviews/the-human-centipede-2010":           reviewFixture(t, "unrated.html"),
	}

	listingPage := func(more bool, hrefs ...string) []byte {
		var html strings.Builder
		for _, h := range hrefs {
			fmt.Fprintf(&html, `<div class="review-stack"><h5><a href="%s">x</a></h5></div>`, h)
		}
		body, err := json.Marshal(map[string]any{"html": html.String(), "more": more})
		require.NoError(t, err)
		return body
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/contributors/roger-ebert", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			w.Write(listingPage(true, "/reviews/great-movie-the-third-man-1949", "/reviews/missing-1990"))
		case "2":
			w.Write(listingPage(false, "/reviews/deuce-bigalow-european-gigolo-2005", "/reviews/the-human-centipede-2010"))
		default:
			http.NotFound(w, r)
		}
	})
	mux.HandleFunc("/reviews/", func(w http.ResponseWriter, r *http.Request) {
		page, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(page)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := httpclient.NewClient(httpclient.BrowserClient)
	query := listing.Query{BaseURL: server.URL, EarliestYear: 1914, LatestYear: 2026}
	crawler := listing.NewCrawler(client, query, 10)

	var buf bytes.Buffer
	csvWriter := output.NewCSVWriter(&buf)

	p := NewPipeline(crawler, ReviewConsumer{
		WorkerCount: 2,
		Processor:   NewHTTPReviewProcessor(client),
		Saver:       csvWriter,
	})

	report, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.NoError(t, report.ListingErr)
	assert.Equal(t, 4, report.Discovered)
	assert.Equal(t, 3, report.Saved)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, server.URL+"/reviews/missing-1990", report.Failures[0].URL)
	assert.Equal(t, StageFetch, report.Failures[0].Stage)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, output.LetterboxdHeader, records[0])

	byTitle := map[string][]string{}
	for _, rec := range records[1:] {
		byTitle[rec[1]] = rec
	}
	assert.Equal(t, []string{"1092", "The Third Man", "4"}, byTitle["The Third Man"][:3])
	assert.Equal(t, "great movies", byTitle["The Third Man"][5])
	assert.Equal(t, "", byTitle["Deuce Bigalow: European Gigolo"][2])
	assert.Equal(t, "2010-04-28", byTitle["The Human Centipede"][4])
}
