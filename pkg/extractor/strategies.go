package extractor

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"shoptrend-go/pkg/logger"
)

// DefaultSelectors are tried in order against the page.
var DefaultSelectors = []string{
	`a[href*="search.naver"]`,
	".keyword",
	".trend_keyword",
	".popular_keyword",
	"[data-keyword]",
	".rank_keyword",
}

// DefaultJSONFields are the top-level fields of embedded JSON documents that
// may carry keyword arrays.
var DefaultJSONFields = []string{"keywords", "trends", "popular", "rank"}

const (
	DefaultKeywordAttr    = "data-keyword"
	DefaultTitleAttr      = "title"
	DefaultScriptSelector = `script[type="application/json"]`
)

// SelectorStrategy takes one keyword from every element matching a CSS
// selector: the keyword attribute, else the element text, else its title.
type SelectorStrategy struct {
	Selector    string
	KeywordAttr string
	TitleAttr   string
}

// NewSelectorStrategy uses the default attribute names.
func NewSelectorStrategy(selector string) *SelectorStrategy {
	return &SelectorStrategy{
		Selector:    selector,
		KeywordAttr: DefaultKeywordAttr,
		TitleAttr:   DefaultTitleAttr,
	}
}

func (s *SelectorStrategy) Name() string {
	return "selector:" + s.Selector
}

func (s *SelectorStrategy) Candidates(doc *goquery.Document) []string {
	var candidates []string
	doc.Find(s.Selector).Each(func(_ int, sel *goquery.Selection) {
		if kw := s.keywordOf(sel); kw != "" {
			candidates = append(candidates, kw)
		}
	})
	return candidates
}

func (s *SelectorStrategy) keywordOf(sel *goquery.Selection) string {
	if s.KeywordAttr != "" {
		if v, ok := sel.Attr(s.KeywordAttr); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	if text := strings.TrimSpace(sel.Text()); text != "" {
		return text
	}
	if s.TitleAttr != "" {
		if v, ok := sel.Attr(s.TitleAttr); ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// JSONScriptStrategy reads embedded JSON script blocks and collects the
// string entries of known array fields. Blocks that fail to decode are
// skipped without affecting the others.
type JSONScriptStrategy struct {
	Selector string
	Fields   []string
	log      *logger.Logger
}

func NewJSONScriptStrategy(selector string, fields []string) *JSONScriptStrategy {
	if selector == "" {
		selector = DefaultScriptSelector
	}
	if len(fields) == 0 {
		fields = DefaultJSONFields
	}
	return &JSONScriptStrategy{
		Selector: selector,
		Fields:   fields,
		log:      logger.GetLogger().WithField("component", "json_script_strategy"),
	}
}

func (s *JSONScriptStrategy) Name() string {
	return "json:" + s.Selector
}

func (s *JSONScriptStrategy) Candidates(doc *goquery.Document) []string {
	var candidates []string
	doc.Find(s.Selector).Each(func(i int, sel *goquery.Selection) {
		raw := strings.TrimSpace(sel.Text())
		if raw == "" {
			return
		}

		var data map[string]interface{}
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			s.log.WithError(err).WithField("script_index", i).Debug("Skipping undecodable script block")
			return
		}

		for _, field := range s.Fields {
			items, ok := data[field].([]interface{})
			if !ok {
				continue
			}
			for _, item := range items {
				if str, ok := item.(string); ok {
					candidates = append(candidates, str)
				}
			}
		}
	})
	return candidates
}

// DefaultStrategies builds the selector strategies followed by the embedded
// JSON strategy.
func DefaultStrategies(selectors, jsonFields []string) []Strategy {
	if len(selectors) == 0 {
		selectors = DefaultSelectors
	}
	strategies := make([]Strategy, 0, len(selectors)+1)
	for _, sel := range selectors {
		strategies = append(strategies, NewSelectorStrategy(sel))
	}
	strategies = append(strategies, NewJSONScriptStrategy(DefaultScriptSelector, jsonFields))
	return strategies
}
