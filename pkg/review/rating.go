package review

import (
	"github.com/PuerkitoBio/goquery"
)

// ratingIconSelector matches the icons of the star-rating widget
const ratingIconSelector = ".page-content--star-rating > span > i"

// Icon titles used by the rating widget
const (
	iconStarFull   = "star-full"
	iconStarHalf   = "star-half"
	iconThumbsDown = "thumbsdown"
)

// RatingKind classifies what the rating widget showed
type RatingKind int

const (
	// RatingNone means the page has no rating icons at all (unrated review)
	RatingNone RatingKind = iota
	// RatingStars means the widget ended in a full or half star
	RatingStars
	// RatingThumbsDown means the widget shows the below-zero "thumbs down" icon
	RatingThumbsDown
	// RatingUnknownIcon means the last icon has a title the widget does not use for stars
	RatingUnknownIcon
	// RatingMalformed means the last icon carries no title attribute
	RatingMalformed
)

func (k RatingKind) String() string {
	switch k {
	case RatingNone:
		return "none"
	case RatingStars:
		return "stars"
	case RatingThumbsDown:
		return "thumbsdown"
	case RatingUnknownIcon:
		return "unknown-icon"
	case RatingMalformed:
		return "malformed"
	default:
		return "invalid"
	}
}

// Rating is the classified rating widget.
//
// Only RatingStars carries a numeric value. An unrated review and a
// thumbs-down review both end up without a rating in the output; the Kind
// keeps them apart for diagnostics, but a page whose widget failed to render
// its icons still cannot be told apart from a genuinely unrated one.
type Rating struct {
	Kind     RatingKind
	Icons    int     // Number of icons in the widget
	LastIcon string  // Title of the last icon, if any
	Stars    float64 // Valid only when Kind == RatingStars
}

// Value returns the numeric rating, or nil when the review has none
func (r Rating) Value() *float64 {
	if r.Kind != RatingStars {
		return nil
	}
	v := r.Stars
	return &v
}

// ParseRating classifies the rating widget of a review document
func ParseRating(doc *goquery.Document) Rating {
	return RateIcons(doc.Find(ratingIconSelector))
}

// RateIcons classifies a sequence of rating icons.
// The widget draws one icon per star and lets only the last icon express
// the terminal state, so every icon but the last counts as a full star.
func RateIcons(icons *goquery.Selection) Rating {
	n := icons.Length()
	if n == 0 {
		return Rating{Kind: RatingNone}
	}

	last, ok := icons.Last().Attr("title")
	if !ok {
		return Rating{Kind: RatingMalformed, Icons: n}
	}

	r := Rating{Icons: n, LastIcon: last}
	base := float64(n - 1)

	switch last {
	case iconStarFull:
		r.Kind = RatingStars
		r.Stars = base + 1
	case iconStarHalf:
		r.Kind = RatingStars
		r.Stars = base + 0.5
	case iconThumbsDown:
		r.Kind = RatingThumbsDown
	default:
		r.Kind = RatingUnknownIcon
	}
	return r
}
