// Package httpclient is the single funnel for all outbound HTTP calls
// made by the pipeline: fetching external web pages during website
// scanning, and JSON request/response against the central store, the
// tenant publisher, the Anthropic provider, and the search API. The
// OpenAI provider calls do not pass through here: they go through the
// go-openai client and its own HTTP client. No other package constructs
// its own http.Client.
package httpclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/toinevv/seo-system-blank/internal/errs"
)

// maxBodyBytes bounds how much of a response body fetch_page will
// read, to avoid unbounded memory use against a hostile or broken
// server.
const maxBodyBytes = 2 << 20 // 2 MiB

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var defaultClient = &http.Client{}

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// FetchPage sends a GET request with a browser-like user agent and
// Accept header, enforcing the given deadline. It returns the response
// body as a string only on a 2xx status; any other status yields a
// FetchError carrying the status code. The body is capped at
// maxBodyBytes.
func FetchPage(ctx context.Context, url string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &errs.FetchError{URL: url, Reason: err.Error()}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := defaultClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", &errs.TimeoutError{URL: url}
		}
		return "", &errs.FetchError{URL: url, Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &errs.FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if ctx.Err() != nil {
			return "", &errs.TimeoutError{URL: url}
		}
		return "", &errs.FetchError{URL: url, Reason: err.Error()}
	}
	return string(body), nil
}

// JSONRequest sends a JSON HTTP request and decodes a JSON response
// into out. body may be nil for bodyless requests (typically GET).
// Deadline semantics match FetchPage.
func JSONRequest(ctx context.Context, method, url string, headers map[string]string, body interface{}, timeout time.Duration, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return &errs.DecodeError{Context: "request body", Reason: err.Error()}
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return &errs.HttpError{URL: url, Method: method, Reason: err.Error()}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := defaultClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return &errs.TimeoutError{URL: url}
		}
		return &errs.HttpError{URL: url, Method: method, Reason: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if ctx.Err() != nil {
			return &errs.TimeoutError{URL: url}
		}
		return &errs.HttpError{URL: url, Method: method, Reason: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &errs.HttpError{
			URL:        url,
			Method:     method,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &errs.DecodeError{Context: url, Reason: err.Error()}
	}
	return nil
}
