package domain

import "time"

// GreatMoviesTag is the classification label for reviews that belong to the
// "Great Movies" series.
const GreatMoviesTag = "great movies"

// Review represents one film review extracted from a review-detail page.
//
// Optional values are pointers: nil means absent, which is different from an
// empty string or a zero rating.
type Review struct {
	// SourceURL is the review-detail page the record was extracted from.
	SourceURL string `bson:"source_url" json:"source_url"`

	// ExternalMovieID is the TMDB identifier embedded by the JustWatch widget, when present.
	ExternalMovieID *string `bson:"tmdb_id,omitempty" json:"tmdb_id,omitempty"`

	// Title is the movie's display title.
	Title string `bson:"title" json:"title"`

	// Rating is the star rating in half-star steps from 0 to 4; nil when the
	// page carries no numeric rating (unrated or thumbs-down).
	Rating *float64 `bson:"rating,omitempty" json:"rating,omitempty"`

	// ReviewText is the emphasized article title, a blank line, then the article body.
	ReviewText string `bson:"review" json:"review"`

	// WatchedDate is the review date as YYYY-MM-DD.
	WatchedDate string `bson:"watched_date" json:"watched_date"`

	// Tags holds GreatMoviesTag for Great Movies essays.
	Tags *string `bson:"tags,omitempty" json:"tags,omitempty"`

	CrawledAt time.Time `bson:"crawled_at" json:"crawled_at"`
}
