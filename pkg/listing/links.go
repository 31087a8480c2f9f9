package listing

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// headingLinkSelector matches the per-item title heading anchors of the listing
const headingLinkSelector = "h5 > a"

// ExtractLinks returns the href of every anchor nested directly in an item
// heading, in document order. Hrefs are returned as written; resolving them is
// the caller's job. A fragment without headings yields an empty slice.
func ExtractLinks(fragment string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	links := make([]string, 0)
	doc.Find(headingLinkSelector).Each(func(i int, a *goquery.Selection) {
		href, exists := a.Attr("href")
		if !exists {
			return
		}
		links = append(links, href)
	})

	return links, nil
}
