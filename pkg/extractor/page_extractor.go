package extractor

import (
	"bytes"
	"context"

	"github.com/PuerkitoBio/goquery"

	"shoptrend-go/pkg/fetcher"
	"shoptrend-go/pkg/logger"
	"shoptrend-go/pkg/metrics"
)

const (
	DefaultSourceURL = "https://shopping.naver.com/home"
	DefaultLimit     = 100
)

// Config describes the trend source page.
type Config struct {
	URL        string
	Limit      int
	Selectors  []string
	JSONFields []string
}

// PageExtractor pulls trending keywords out of one external page.
type PageExtractor struct {
	fetcher    PageFetcher
	url        string
	limit      int
	strategies []Strategy
	metrics    *metrics.Metrics
	log        *logger.Logger
}

// Option customizes a PageExtractor.
type Option func(*PageExtractor)

// WithStrategies replaces the default strategy list.
func WithStrategies(strategies ...Strategy) Option {
	return func(e *PageExtractor) {
		e.strategies = strategies
	}
}

// WithMetrics reports extraction yield and fetch failures.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *PageExtractor) {
		e.metrics = m
	}
}

func NewPageExtractor(f PageFetcher, config Config, opts ...Option) *PageExtractor {
	if config.URL == "" {
		config.URL = DefaultSourceURL
	}
	if config.Limit <= 0 {
		config.Limit = DefaultLimit
	}

	e := &PageExtractor{
		fetcher:    f,
		url:        config.URL,
		limit:      config.Limit,
		strategies: DefaultStrategies(config.Selectors, config.JSONFields),
		log:        logger.GetLogger().WithField("component", "page_extractor"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract fetches the page and returns up to limit unique keywords in
// discovery order. Failures are logged and produce an empty result.
func (e *PageExtractor) Extract(ctx context.Context) []string {
	body, err := e.fetcher.Fetch(ctx, e.url)
	if err != nil {
		kind := "network"
		if k, ok := fetcher.KindOf(err); ok {
			kind = k.String()
		}
		e.metrics.FetchFailed(kind)
		e.log.WithError(err).WithField("kind", kind).Warn("Failed to fetch trend page")
		e.metrics.SetExtracted(0)
		return []string{}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		e.log.WithError(err).Warn("Failed to parse trend page")
		e.metrics.SetExtracted(0)
		return []string{}
	}

	keywords := e.ExtractDocument(doc)
	e.metrics.SetExtracted(len(keywords))
	return keywords
}

// ExtractDocument runs the strategies left to right over an already parsed
// page, stopping once limit keywords are collected.
func (e *PageExtractor) ExtractDocument(doc *goquery.Document) []string {
	set := newKeywordSet(e.limit)

	for _, strategy := range e.strategies {
		if set.Full() {
			break
		}

		added := 0
		for _, candidate := range strategy.Candidates(doc) {
			if set.Offer(candidate) {
				added++
			}
			if set.Full() {
				break
			}
		}

		e.log.WithFields(map[string]interface{}{
			"strategy": strategy.Name(),
			"added":    added,
			"total":    set.Len(),
		}).Debug("Strategy applied")
	}

	e.log.WithFields(map[string]interface{}{
		"url":      e.url,
		"keywords": set.Len(),
	}).Info("Extracted trend keywords")

	return set.Keywords()
}
