package fetcher

import (
	"context"
	"mime"
	"time"

	"github.com/valyala/fasthttp"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"shoptrend-go/pkg/logger"
)

const (
	DefaultTimeout        = 10 * time.Second
	DefaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultAccept         = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"
	DefaultAcceptLanguage = "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7"
)

// Config controls the outbound page request.
type Config struct {
	Timeout        time.Duration
	UserAgent      string
	Accept         string
	AcceptLanguage string
}

// DefaultConfig returns the browser-like request settings the trend source
// expects.
func DefaultConfig() Config {
	return Config{
		Timeout:        DefaultTimeout,
		UserAgent:      DefaultUserAgent,
		Accept:         DefaultAccept,
		AcceptLanguage: DefaultAcceptLanguage,
	}
}

// Client fetches single pages with browser-like headers. The source serves a
// stripped page to clients that do not look like a browser.
type Client struct {
	client *fasthttp.Client
	config Config
	log    *logger.Logger
}

// New creates a page client backed by its own fasthttp.Client.
func New(config Config) *Client {
	return NewWithClient(&fasthttp.Client{
		ReadTimeout:         config.Timeout,
		WriteTimeout:        config.Timeout,
		MaxIdleConnDuration: time.Minute,
		// the source sends large cookie headers
		ReadBufferSize: 16 * 1024,
	}, config)
}

// NewWithClient wraps an existing fasthttp.Client, e.g. one dialing an
// in-memory listener.
func NewWithClient(client *fasthttp.Client, config Config) *Client {
	defaults := DefaultConfig()
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.UserAgent == "" {
		config.UserAgent = defaults.UserAgent
	}
	if config.Accept == "" {
		config.Accept = defaults.Accept
	}
	if config.AcceptLanguage == "" {
		config.AcceptLanguage = defaults.AcceptLanguage
	}

	return &Client{
		client: client,
		config: config,
		log:    logger.GetLogger().WithField("component", "page_fetcher"),
	}
}

// Fetch performs one bounded GET and returns the body as UTF-8. Every failure
// is a *FetchError.
func (c *Client) Fetch(ctx context.Context, targetURL string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{Kind: classify(err), URL: targetURL, Err: err}
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(targetURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	c.setRequestHeaders(req)

	timeout := c.config.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	start := time.Now()
	if err := c.client.DoTimeout(req, resp, timeout); err != nil {
		return nil, &FetchError{Kind: classify(err), URL: targetURL, Err: err}
	}

	status := resp.StatusCode()
	if status < fasthttp.StatusOK || status >= fasthttp.StatusMultipleChoices {
		return nil, &FetchError{Kind: KindStatus, URL: targetURL, StatusCode: status}
	}

	body, err := resp.BodyUncompressed()
	if err != nil {
		return nil, &FetchError{Kind: KindBody, URL: targetURL, StatusCode: status, Err: err}
	}
	// body may alias the pooled response buffer
	body = append([]byte(nil), body...)

	decoded, err := toUTF8(body, string(resp.Header.ContentType()))
	if err != nil {
		return nil, &FetchError{Kind: KindBody, URL: targetURL, StatusCode: status, Err: err}
	}

	c.log.WithFields(map[string]interface{}{
		"url":      targetURL,
		"status":   status,
		"bytes":    len(decoded),
		"duration": time.Since(start).String(),
	}).Debug("Fetched page")

	return decoded, nil
}

// setRequestHeaders adds the browser-like headers
func (c *Client) setRequestHeaders(req *fasthttp.Request) {
	req.Header.SetUserAgent(c.config.UserAgent)
	req.Header.Set("Accept", c.config.Accept)
	req.Header.Set("Accept-Language", c.config.AcceptLanguage)
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("Cache-Control", "max-age=0")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
}

// toUTF8 transcodes body according to the charset parameter of contentType.
// Missing or unknown charsets leave the body untouched.
func toUTF8(body []byte, contentType string) ([]byte, error) {
	if contentType == "" {
		return body, nil
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return body, nil
	}
	charset := params["charset"]
	if charset == "" {
		return body, nil
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		return body, nil
	}
	if name, _ := htmlindex.Name(enc); name == "utf-8" {
		return body, nil
	}

	decoded, _, err := transform.Bytes(enc.NewDecoder(), body)
	if err != nil {
		return nil, err
	}
	return decoded, nil
}
