// Package transport sends GraphQL documents over HTTP.
//
// Every call is a POST of {"query": "..."} with JSON content negotiation; the
// body of a 2xx response is decoded into a JSON object. There are no retries
// and no timeouts beyond what the caller's context and http.Client impose.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const defaultMaxBody = 32 << 20

var (
	ErrEmptyBody    = errors.New("transport: empty response body")
	ErrTrailingData = errors.New("transport: data after the JSON response")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL  string
	Code int
	Body string // first bytes of the body, for logs
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("transport: %s returned %d: %s", e.URL, e.Code, e.Body)
}

// DecodeError is returned when a 2xx body is not a JSON object.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("transport: decode %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

type Config struct {
	// BaseURL is joined with the per-call endpoint path. Empty means the
	// endpoint must be an absolute URL.
	BaseURL string
	// Client defaults to http.DefaultClient.
	Client *http.Client
	// Header is added to every request (auth, tracing ...).
	Header http.Header
	// MaxBody caps the decoded response size; 0 => 32MiB.
	MaxBody int64
}

type HTTP struct {
	client  *http.Client
	base    *url.URL
	header  http.Header
	maxBody int64
}

func New(cfg Config) (*HTTP, error) {
	t := &HTTP{
		client:  cfg.Client,
		header:  cfg.Header.Clone(),
		maxBody: cfg.MaxBody,
	}
	if t.client == nil {
		t.client = http.DefaultClient
	}
	if t.maxBody <= 0 {
		t.maxBody = defaultMaxBody
	}
	if cfg.BaseURL != "" {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("transport: base url: %w", err)
		}
		t.base = u
	}
	return t, nil
}

type request struct {
	Query string `json:"query"`
}

// Do posts query to endpoint and decodes the JSON object it returns.
func (t *HTTP) Do(ctx context.Context, endpoint, query string) (map[string]any, error) {
	target, err := t.resolve(endpoint)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(request{Query: query})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	for k, vs := range t.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, &StatusError{URL: target, Code: res.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	var out map[string]any
	dec := json.NewDecoder(io.LimitReader(res.Body, t.maxBody))
	if err := dec.Decode(&out); err != nil {
		if errors.Is(err, io.EOF) {
			err = ErrEmptyBody
		}
		return nil, &DecodeError{URL: target, Err: err}
	}
	if out == nil {
		return nil, &DecodeError{URL: target, Err: errors.New("response is JSON null")}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, &DecodeError{URL: target, Err: ErrTrailingData}
	}
	return out, nil
}

func (t *HTTP) resolve(endpoint string) (string, error) {
	ref, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("transport: endpoint %q: %w", endpoint, err)
	}
	if t.base == nil {
		if !ref.IsAbs() {
			return "", fmt.Errorf("transport: endpoint %q is relative and no base url is set", endpoint)
		}
		return ref.String(), nil
	}
	return t.base.ResolveReference(ref).String(), nil
}
