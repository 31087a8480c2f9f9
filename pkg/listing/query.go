package listing

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the review archive site root
	DefaultBaseURL = "https://www.rogerebert.com"
	// DefaultContributorPath is the listing of every review by Roger Ebert
	DefaultContributorPath = "/contributors/roger-ebert"
	// DefaultEarliestYear is the earliest release year the listing filter accepts
	DefaultEarliestYear = 1914
)

// Query describes the listing endpoint and the fixed filters that select the
// full archive: empty title filter, newest first, every release year, star
// ratings 0.0 to 4.0 and unrated reviews included.
type Query struct {
	BaseURL         string // Site root, e.g. "https://www.rogerebert.com"
	ContributorPath string // Listing path, e.g. "/contributors/roger-ebert"
	EarliestYear    int
	LatestYear      int // Zero means the current calendar year
}

// DefaultQuery returns the query for the whole Roger Ebert archive
func DefaultQuery() Query {
	return Query{
		BaseURL:         DefaultBaseURL,
		ContributorPath: DefaultContributorPath,
		EarliestYear:    DefaultEarliestYear,
	}
}

// PageURL builds the listing URL for the given 1-based page index.
// Parameters are written in a fixed order; the endpoint's result set depends
// on every one of them.
func (q Query) PageURL(page int) string {
	params := []struct{ key, value string }{
		{"filters[title]", ""},
		{"sort[order]", "newest"},
		{"filters[years][]", strconv.Itoa(q.earliestYear())},
		{"filters[years][]", strconv.Itoa(q.latestYear())},
		{"filters[star_rating][]", "0.0"},
		{"filters[star_rating][]", "4.0"},
		{"filters[no_stars]", "1"},
		{"page", strconv.Itoa(page)},
	}

	var b strings.Builder
	b.WriteString(q.listingURL())
	for i, p := range params {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.value))
	}
	return b.String()
}

// ResolveLink resolves a listing href against the site root
func (q Query) ResolveLink(href string) string {
	href = strings.TrimSpace(href)
	base, err := url.Parse(q.siteRoot() + "/")
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

func (q Query) listingURL() string {
	path := q.ContributorPath
	if path == "" {
		path = DefaultContributorPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return q.siteRoot() + path
}

func (q Query) siteRoot() string {
	base := strings.TrimSpace(q.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	return strings.TrimRight(base, "/")
}

func (q Query) earliestYear() int {
	if q.EarliestYear <= 0 {
		return DefaultEarliestYear
	}
	return q.EarliestYear
}

func (q Query) latestYear() int {
	if q.LatestYear <= 0 {
		return time.Now().Year()
	}
	return q.LatestYear
}
