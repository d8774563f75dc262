package fetcher

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/valyala/fasthttp"
)

// Kind classifies why a page fetch failed.
type Kind int

const (
	KindNetwork Kind = iota // connection, DNS, TLS and other transport failures
	KindTimeout             // request exceeded its deadline
	KindStatus              // server answered with a non-2xx status
	KindBody                // response body could not be decoded
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindStatus:
		return "status"
	case KindBody:
		return "body"
	default:
		return "network"
	}
}

// FetchError is returned by Client.Fetch for every failure.
type FetchError struct {
	Kind       Kind
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Kind == KindStatus {
		return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// classify maps a transport error onto a Kind.
func classify(err error) Kind {
	if err == nil {
		return KindNetwork
	}

	if errors.Is(err, fasthttp.ErrTimeout) ||
		errors.Is(err, fasthttp.ErrDialTimeout) ||
		errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	var timeoutErr interface{ Timeout() bool }
	if errors.As(err, &timeoutErr) && timeoutErr.Timeout() {
		return KindTimeout
	}

	// fasthttp sometimes returns plain errors for read deadlines
	if strings.Contains(strings.ToLower(err.Error()), "timeout") {
		return KindTimeout
	}

	return KindNetwork
}

// KindOf reports the Kind of a fetch error, or false if err is not one.
func KindOf(err error) (Kind, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return 0, false
}
