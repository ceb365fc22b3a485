// Package xapi is the HTTP collaborator for the X API v2.
//
// Everything that talks to the API goes through the Caller interface so that a
// decorator (see tracker.Accountant) can account for every request.
package xapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ogulcanaydogan/xcli/pkg/model"
	"github.com/tidwall/gjson"
)

// Caller performs one API operation.
type Caller interface {
	Call(ctx context.Context, req *Request) (*Response, error)
}

// CallerFunc adapts a function to the Caller interface.
type CallerFunc func(ctx context.Context, req *Request) (*Response, error)

func (f CallerFunc) Call(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Request describes one API operation and its arguments.
type Request struct {
	Op model.Operation

	// Params fills {name} placeholders in the route path.
	Params map[string]string
	Query  url.Values

	// Body is sent as JSON. Form, when set, takes precedence and is sent as
	// multipart/form-data.
	Body any
	Form *Form
}

// NewRequest returns a request for the given operation.
func NewRequest(namespace, name string) *Request {
	return &Request{Op: model.Op(namespace, name)}
}

// Param sets a path parameter and returns r for chaining.
func (r *Request) Param(key, value string) *Request {
	if r.Params == nil {
		r.Params = make(map[string]string)
	}
	r.Params[key] = value
	return r
}

// Set adds a query parameter and returns r for chaining. Empty values are skipped.
func (r *Request) Set(key, value string) *Request {
	if value == "" {
		return r
	}
	if r.Query == nil {
		r.Query = url.Values{}
	}
	r.Query.Set(key, value)
	return r
}

// Form is a multipart body with an optional single file part.
type Form struct {
	Fields    map[string]string
	FileField string
	FileName  string
	File      []byte
}

// Response is the envelope returned by the API: data, includes and meta,
// plus the raw body for fields outside the envelope.
type Response struct {
	StatusCode int
	Data       json.RawMessage
	Includes   json.RawMessage
	Meta       json.RawMessage
	Raw        []byte
	RateLimit  RateLimit
}

// Get extracts a field from the raw body using a gjson path.
func (r *Response) Get(path string) gjson.Result {
	if r == nil {
		return gjson.Result{}
	}
	return gjson.GetBytes(r.Raw, path)
}

// RateLimit holds the x-rate-limit-* headers of a response, when present.
type RateLimit struct {
	Limit     int
	Remaining int
	Reset     time.Time
}

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Title      string
	Detail     string
	Type       string
	Body       []byte
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "api error %d", e.StatusCode)
	if e.Title != "" {
		b.WriteString(": " + e.Title)
	}
	if e.Detail != "" && e.Detail != e.Title {
		b.WriteString(": " + e.Detail)
	}
	return b.String()
}
