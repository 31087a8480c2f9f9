package listing

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/amyryanmanny/ebertboxd/pkg/httpclient"
)

// DefaultMaxPages bounds the page loop when the endpoint keeps reporting more
// pages. The archive holds roughly ten thousand reviews, so at any plausible
// page size the real crawl ends far below this.
const DefaultMaxPages = 2000

// Fetcher fetches a URL with the given Accept header and returns the body
type Fetcher interface {
	Fetch(ctx context.Context, url, accept string) ([]byte, error)
}

// Page is one visited listing page
type Page struct {
	Index int      // 1-based page index
	Links []string // Absolute review-detail URLs in document order
	More  bool     // Whether the endpoint reported another page
}

// Crawler walks the listing endpoint page by page
type Crawler struct {
	fetcher  Fetcher
	query    Query
	maxPages int
}

// NewCrawler creates a crawler for the given query.
// maxPages <= 0 falls back to DefaultMaxPages.
func NewCrawler(fetcher Fetcher, query Query, maxPages int) *Crawler {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	return &Crawler{
		fetcher:  fetcher,
		query:    query,
		maxPages: maxPages,
	}
}

// Crawl requests pages 1, 2, ... in order and calls emit for each decoded page.
// It stops when a page reports no more results, when the page ceiling is
// reached, when emit returns an error or when ctx is done.
// A listing page that cannot be fetched or decoded ends the crawl with an
// error; pages emitted before it stay valid.
func (c *Crawler) Crawl(ctx context.Context, emit func(Page) error) error {
	if c.fetcher == nil {
		return fmt.Errorf("listing fetcher is not set")
	}

	for index := 1; ; index++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if index > c.maxPages {
			log.Printf("Listing crawler: Reached max pages limit (%d), stopping pagination", c.maxPages)
			return nil
		}

		page, err := c.fetchPage(ctx, index)
		if err != nil {
			log.Printf("Listing crawler: ERROR on page %d: %v - stopping pagination", index, err)
			return err
		}

		if err := emit(page); err != nil {
			return err
		}

		if !page.More {
			log.Printf("Listing crawler: Page %d reported no more pages, done", index)
			return nil
		}
	}
}

// Links streams the review-detail URLs of every page to out, in crawl order
func (c *Crawler) Links(ctx context.Context, out chan<- string) error {
	return c.Crawl(ctx, func(page Page) error {
		for _, link := range page.Links {
			select {
			case out <- link:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})
}

// fetchPage fetches and decodes one listing page
func (c *Crawler) fetchPage(ctx context.Context, index int) (Page, error) {
	pageURL := c.query.PageURL(index)
	log.Printf("Listing crawler: Fetching page %d: %s", index, pageURL)

	body, err := c.fetcher.Fetch(ctx, pageURL, httpclient.AcceptJSON)
	if err != nil {
		return Page{}, fmt.Errorf("failed to fetch listing page %d: %w", index, err)
	}

	env, err := DecodeEnvelope(index, body)
	if err != nil {
		return Page{}, err
	}

	hrefs, err := ExtractLinks(env.HTML)
	if err != nil {
		return Page{}, &DecodeError{Page: index, Err: err}
	}
	if len(hrefs) == 0 {
		log.Printf("Listing crawler: WARNING page %d contains no review links", index)
	}

	links := make([]string, 0, len(hrefs))
	for _, href := range hrefs {
		if strings.TrimSpace(href) == "" {
			log.Printf("Listing crawler: Skipping empty link on page %d", index)
			continue
		}
		links = append(links, c.query.ResolveLink(href))
	}

	log.Printf("Listing crawler: Page %d yielded %d links (more=%t)", index, len(links), env.More)
	return Page{Index: index, Links: links, More: env.More}, nil
}
