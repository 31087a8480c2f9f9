package listing

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQuery_PageURL(t *testing.T) {
	q := Query{
		BaseURL:         "https://www.rogerebert.com",
		ContributorPath: "/contributors/roger-ebert",
		EarliestYear:    1914,
		LatestYear:      2024,
	}

	want := "https://www.rogerebert.com/contributors/roger-ebert" +
		"?filters%5Btitle%5D=&sort%5Border%5D=newest" +
		"&filters%5Byears%5D%5B%5D=1914&filters%5Byears%5D%5B%5D=2024" +
		"&filters%5Bstar_rating%5D%5B%5D=0.0&filters%5Bstar_rating%5D%5B%5D=4.0" +
		"&filters%5Bno_stars%5D=1&page=3"

	assert.Equal(t, want, q.PageURL(3))
}

func TestQuery_PageURL_Defaults(t *testing.T) {
	got := Query{}.PageURL(1)

	assert.Contains(t, got, "https://www.rogerebert.com/contributors/roger-ebert?")
	assert.Contains(t, got, "filters%5Byears%5D%5B%5D=1914&")
	assert.Contains(t, got, fmt.Sprintf("filters%%5Byears%%5D%%5B%%5D=%d&", time.Now().Year()))
	assert.Contains(t, got, "&page=1")
}

func TestDefaultQuery(t *testing.T) {
	q := DefaultQuery()

	assert.Equal(t, DefaultBaseURL, q.BaseURL)
	assert.Equal(t, DefaultContributorPath, q.ContributorPath)
	assert.Equal(t, DefaultEarliestYear, q.EarliestYear)
	assert.Zero(t, q.LatestYear)
	assert.Equal(t, Query{}.PageURL(2), q.PageURL(2))
}

func TestQuery_ResolveLink(t *testing.T) {
	q := Query{BaseURL: "https://www.rogerebert.com/"}

	tests := []struct {
		href string
		want string
	}{
		{"/reviews/the-godfather-1972", "https://www.rogerebert.com/reviews/the-godfather-1972"},
		{"reviews/jaws-1975", "https://www.rogerebert.com/reviews/jaws-1975"},
		{"https://example.com/reviews/x", "https://example.com/reviews/x"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, q.ResolveLink(tt.href), tt.href)
	}
}
