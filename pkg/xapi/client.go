package xapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// DefaultBaseURL is the production API host.
const DefaultBaseURL = "https://api.x.com"

// maxResponseSize bounds how much of a response body is read.
const maxResponseSize = 32 << 20

// Client calls the X API over HTTP with a bearer token.
type Client struct {
	baseURL   string
	token     string
	userAgent string
	client    *http.Client
	logger    *slog.Logger
}

// NewClient creates an API client. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL, token string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		token:     token,
		userAgent: "xcli/dev",
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

// SetUserAgent overrides the User-Agent header.
func (c *Client) SetUserAgent(ua string) { c.userAgent = ua }

// Call sends the request and decodes the response envelope.
func (c *Client) Call(ctx context.Context, req *Request) (*Response, error) {
	opID := req.Op.ID()
	route, ok := RouteFor(opID)
	if !ok {
		return nil, fmt.Errorf("no route for operation %s", opID)
	}

	path, err := route.expand(req.Params)
	if err != nil {
		return nil, err
	}
	target := c.baseURL + path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	body, contentType, err := encodeBody(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opID, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, route.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opID, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", opID, err)
	}

	c.logger.Debug("api call",
		"operation", opID,
		"method", route.Method,
		"path", path,
		"status", resp.StatusCode,
		"latency", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeError(resp.StatusCode, raw)
	}
	return decodeResponse(resp, raw), nil
}

func encodeBody(req *Request) (io.Reader, string, error) {
	if req.Form != nil {
		return encodeForm(req.Form)
	}
	if req.Body == nil {
		return nil, "", nil
	}
	data, err := json.Marshal(req.Body)
	if err != nil {
		return nil, "", fmt.Errorf("marshal body: %w", err)
	}
	return bytes.NewReader(data), "application/json", nil
}

func encodeForm(form *Form) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for k, v := range form.Fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("write form field %s: %w", k, err)
		}
	}
	if form.FileField != "" {
		name := form.FileName
		if name == "" {
			name = "blob"
		}
		part, err := w.CreateFormFile(form.FileField, name)
		if err != nil {
			return nil, "", fmt.Errorf("create form file: %w", err)
		}
		if _, err := part.Write(form.File); err != nil {
			return nil, "", fmt.Errorf("write form file: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func decodeResponse(resp *http.Response, raw []byte) *Response {
	out := &Response{
		StatusCode: resp.StatusCode,
		Raw:        raw,
		RateLimit:  parseRateLimit(resp.Header),
	}
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return out
	}
	if v := gjson.GetBytes(raw, "data"); v.Exists() {
		out.Data = json.RawMessage(v.Raw)
	}
	if v := gjson.GetBytes(raw, "includes"); v.Exists() {
		out.Includes = json.RawMessage(v.Raw)
	}
	if v := gjson.GetBytes(raw, "meta"); v.Exists() {
		out.Meta = json.RawMessage(v.Raw)
	}
	return out
}

// decodeError understands both problem-details bodies ({title, detail, type})
// and the older {errors: [{message}]} shape.
func decodeError(status int, raw []byte) *APIError {
	e := &APIError{StatusCode: status, Body: raw}
	if gjson.ValidBytes(raw) {
		e.Title = gjson.GetBytes(raw, "title").String()
		e.Detail = gjson.GetBytes(raw, "detail").String()
		e.Type = gjson.GetBytes(raw, "type").String()
		if e.Detail == "" {
			e.Detail = gjson.GetBytes(raw, "errors.0.message").String()
		}
	} else if len(raw) > 0 {
		e.Detail = strings.TrimSpace(string(raw))
	}
	if e.Title == "" {
		e.Title = http.StatusText(status)
	}
	return e
}

func parseRateLimit(h http.Header) RateLimit {
	var rl RateLimit
	rl.Limit, _ = strconv.Atoi(h.Get("x-rate-limit-limit"))
	rl.Remaining, _ = strconv.Atoi(h.Get("x-rate-limit-remaining"))
	if reset, err := strconv.ParseInt(h.Get("x-rate-limit-reset"), 10, 64); err == nil {
		rl.Reset = time.Unix(reset, 0)
	}
	return rl
}
