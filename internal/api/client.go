package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// TokenSource supplies the current bearer token, or "" for anonymous calls.
type TokenSource func() string

// Client is the single configured request pipeline for the backend. Every
// call injects the auth header, tags the request with an X-Request-ID,
// unwraps the {success, data, timestamp} envelope and maps non-2xx statuses
// to the error taxonomy in errors.go.
type Client struct {
	baseURL        string
	http           *http.Client
	log            *logrus.Logger
	tokenSource    TokenSource
	onUnauthorized func()
}

type Option func(*Client)

// WithTokenSource registers the hook that supplies the bearer token.
func WithTokenSource(src TokenSource) Option {
	return func(c *Client) { c.tokenSource = src }
}

// WithUnauthorizedHook registers the session-teardown hook fired on 401.
func WithUnauthorizedHook(hook func()) Option {
	return func(c *Client) { c.onUnauthorized = hook }
}

func NewClient(baseURL string, timeout time.Duration, logger *logrus.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the backend's response convention. Callers only ever see Data.
type envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Message   string          `json:"message,omitempty"`
	Errors    []string        `json:"errors,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}

// Get performs a GET and decodes the envelope data into dest.
func (c *Client) Get(ctx context.Context, path string, dest any) error {
	return c.do(ctx, http.MethodGet, path, nil, dest)
}

// Post performs a POST with a JSON body and decodes the envelope data into dest.
func (c *Client) Post(ctx context.Context, path string, body, dest any) error {
	return c.do(ctx, http.MethodPost, path, body, dest)
}

// Put performs a PUT with a JSON body and decodes the envelope data into dest.
func (c *Client) Put(ctx context.Context, path string, body, dest any) error {
	return c.do(ctx, http.MethodPut, path, body, dest)
}

// Patch performs a PATCH with a JSON body and decodes the envelope data into dest.
func (c *Client) Patch(ctx context.Context, path string, body, dest any) error {
	return c.do(ctx, http.MethodPatch, path, body, dest)
}

// Delete performs a DELETE.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body for %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create %s %s request: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.decorate(req)

	c.log.Debugf("API: %s %s", method, path)
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Errorf("API: %s %s failed: %v", method, path, err)
		return networkError(err)
	}
	defer resp.Body.Close()

	return c.decode(resp, method, path, dest)
}

// decorate applies the request interceptors: auth header and request ID.
func (c *Client) decorate(req *http.Request) {
	if c.tokenSource != nil {
		if token := c.tokenSource(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	req.Header.Set("Accept", "application/json")
}

// decode applies the response interceptor: status mapping, 401 teardown and
// envelope unwrapping.
func (c *Client) decode(resp *http.Response, method, path string, dest any) error {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log.Errorf("API: %s %s response read failed: %v", method, path, err)
		return networkError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var env envelope
		_ = json.Unmarshal(raw, &env)
		apiErr := errorFromStatus(resp.StatusCode, env.Message, env.Errors)
		c.log.Warnf("API: %s %s returned %d (%s)", method, path, resp.StatusCode, apiErr.Kind)
		if apiErr.Kind == KindUnauthorized && c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return apiErr
	}

	if dest == nil || len(raw) == 0 {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Data != nil {
		raw = env.Data
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.log.Errorf("API: %s %s returned an undecodable payload: %v", method, path, err)
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

// Upload posts a multipart form with a single file field and decodes the
// envelope data into dest.
func (c *Client) Upload(ctx context.Context, path, field, filename string, content io.Reader, dest any) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		return fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return fmt.Errorf("failed to buffer upload content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.decorate(req)

	c.log.Debugf("API: POST %s (multipart %s)", path, filename)
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Errorf("API: upload to %s failed: %v", path, err)
		return networkError(err)
	}
	defer resp.Body.Close()

	return c.decode(resp, http.MethodPost, path, dest)
}

// Download fetches raw bytes (QR images and similar binary payloads).
func (c *Client) Download(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}
	c.decorate(req)

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Errorf("API: download from %s failed: %v", path, err)
		return nil, networkError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := errorFromStatus(resp.StatusCode, "", nil)
		c.log.Warnf("API: GET %s returned %d (%s)", path, resp.StatusCode, apiErr.Kind)
		if apiErr.Kind == KindUnauthorized && c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return nil, apiErr
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, networkError(err)
	}
	return data, nil
}

// Query builds an encoded query string from the given key/value pairs,
// skipping empty values. The leading "?" is included when any pair survives.
func Query(pairs ...string) string {
	values := url.Values{}
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] != "" {
			values.Add(pairs[i], pairs[i+1])
		}
	}
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}
