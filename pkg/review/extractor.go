package review

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html"

	"github.com/amyryanmanny/ebertboxd/pkg/domain"
)

// Selectors of the review-detail page
const (
	justWatchSelector    = "div[data-jw-widget]"
	movieTitleSelector   = ".cast-and-crew--movie-title"
	datelineSelector     = ".time"
	articleTitleSelector = ".page-content--title"
	greatMovieSelector   = ".gm-drop-cap"
)

// tmdbIDType is the JustWatch widget's identifier type for TMDB ids
const tmdbIDType = "tmdb"

var (
	// ErrMissingElement means a required element is absent or empty
	ErrMissingElement = errors.New("required element not found")
	// ErrDateFormat means the dateline does not read like "April 5, 2002"
	ErrDateFormat = errors.New("dateline does not match \"Month D, YYYY\"")
)

// ExtractionError reports why a review document produced no record
type ExtractionError struct {
	URL   string
	Field string // "document", "title", "date" or "article_title"
	Err   error
	// Readable is set when a required element is missing but the page still
	// holds article-like text, which points at a changed layout rather than a
	// blocked or empty response
	Readable bool
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s from %s: %v", e.Field, e.URL, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Extraction is the result of extracting one review document
type Extraction struct {
	Review domain.Review
	Rating Rating // Classified rating widget, for diagnostics
}

// Extract turns one review-detail page into a Review.
// It depends only on its arguments; CrawledAt is left for the caller to set.
func Extract(page []byte, sourceURL string) (Extraction, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return Extraction{}, &ExtractionError{URL: sourceURL, Field: "document", Err: err}
	}

	missing := func(field string) error {
		return &ExtractionError{URL: sourceURL, Field: field, Err: ErrMissingElement, Readable: readable(doc)}
	}

	title := ownText(doc.Find(movieTitleSelector))
	if title == "" {
		return Extraction{}, missing("title")
	}

	dateline := doc.Find(datelineSelector)
	if dateline.Length() == 0 {
		return Extraction{}, missing("date")
	}
	watched, err := NormalizeDate(ownText(dateline))
	if err != nil {
		return Extraction{}, &ExtractionError{URL: sourceURL, Field: "date", Err: err}
	}

	// The page <title> is not the headline, so there is no fallback
	articleTitle := ownText(doc.Find(articleTitleSelector))
	if articleTitle == "" {
		return Extraction{}, missing("article_title")
	}

	body := ReconstructBody(doc.Find(bodyBlockSelector))
	rating := ParseRating(doc)

	r := domain.Review{
		SourceURL:       sourceURL,
		ExternalMovieID: externalMovieID(doc),
		Title:           title,
		Rating:          rating.Value(),
		ReviewText:      "<b>" + articleTitle + "</b>" + paragraphBreak + body,
		WatchedDate:     watched,
	}
	if doc.Find(greatMovieSelector).Length() > 0 {
		tag := domain.GreatMoviesTag
		r.Tags = &tag
	}

	return Extraction{Review: r, Rating: rating}, nil
}

// externalMovieID reads the TMDB id off the JustWatch widget, if there is one
func externalMovieID(doc *goquery.Document) *string {
	widget := doc.Find(justWatchSelector).First()
	if widget.Length() == 0 {
		return nil
	}
	if idType, _ := widget.Attr("data-id-type"); idType != tmdbIDType {
		return nil
	}
	id, ok := widget.Attr("data-id")
	if !ok {
		return nil
	}
	return &id
}

// ownText returns the trimmed text directly inside the first matched element,
// ignoring text of nested elements
func ownText(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	var b strings.Builder
	for c := sel.Nodes[0].FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return strings.TrimSpace(b.String())
}

// readable reports whether readability would find article content in the page
func readable(doc *goquery.Document) bool {
	if len(doc.Nodes) == 0 {
		return false
	}
	return readability.CheckDocument(doc.Nodes[0])
}
