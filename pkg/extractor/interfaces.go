package extractor

import (
	"context"

	"github.com/PuerkitoBio/goquery"
)

// PageFetcher downloads a page and returns its UTF-8 body.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Strategy is one independent heuristic producing keyword candidates from a
// parsed page, in document order. Candidates are raw; acceptance rules are
// applied by the extractor.
type Strategy interface {
	Name() string
	Candidates(doc *goquery.Document) []string
}
