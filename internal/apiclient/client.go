// Package apiclient talks to the public donation API
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"donation-platform/internal/models"
)

const maxResponseBody = 4 << 20

// Client is a client for the donation API
type Client struct {
	baseURL   string
	http      *http.Client
	userAgent string
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithUserAgent sets the User-Agent sent with every request
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New creates a client for the API rooted at baseURL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: 30 * time.Second},
		userAgent: "donation-platform-client/1.0",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a non-2xx answer from the API
type APIError struct {
	StatusCode int
	Message    string
	Errors     map[string][]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.UserMessage())
}

// UserMessage is the single line to show the donor. The generic message wins;
// otherwise the first field error is used.
func (e *APIError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	fields := make([]string, 0, len(e.Errors))
	for f := range e.Errors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		if msgs := e.Errors[f]; len(msgs) > 0 {
			return f + " " + msgs[0]
		}
	}
	if text := http.StatusText(e.StatusCode); text != "" {
		return text
	}
	return "Request failed"
}

// errorBody covers the error shapes the API and its proxies send back
type errorBody struct {
	Message string              `json:"message"`
	Error   string              `json:"error"`
	Errors  map[string][]string `json:"errors"`
}

// InitiateResponse is the answer to a started donation
type InitiateResponse struct {
	PaymentURL string           `json:"payment_url"`
	Donation   *models.Donation `json:"donation"`
}

// ListCampaigns returns the campaigns open for donations
func (c *Client) ListCampaigns(ctx context.Context) ([]*models.Campaign, error) {
	var out []*models.Campaign
	if err := c.list(ctx, "/campaigns", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListPrograms returns the programs open for donations
func (c *Client) ListPrograms(ctx context.Context) ([]*models.Program, error) {
	var out []*models.Program
	if err := c.list(ctx, "/programs", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListPatients returns up to perPage patients open for donations. perPage of
// zero leaves the page size to the server.
func (c *Client) ListPatients(ctx context.Context, perPage int) ([]*models.Patient, error) {
	q := url.Values{}
	if perPage > 0 {
		q.Set("per_page", strconv.Itoa(perPage))
	}
	var out []*models.Patient
	if err := c.list(ctx, "/patients", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// InitiateDonation starts a donation and returns where to send the donor
func (c *Client) InitiateDonation(ctx context.Context, payload *models.DonationPayload) (*InitiateResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode donation: %w", err)
	}

	var out InitiateResponse
	if err := c.do(ctx, http.MethodPost, "/donations/initiate", nil, body, &out); err != nil {
		return nil, err
	}
	if out.PaymentURL == "" {
		return nil, fmt.Errorf("initiate response carried no payment_url")
	}
	return &out, nil
}

// list decodes a listing sent either as {"data": [...]} or as a bare array
func (c *Client) list(ctx context.Context, path string, q url.Values, dst interface{}) error {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, q, nil, &raw); err != nil {
		return err
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return fmt.Errorf("failed to decode %s: %w", path, err)
		}
		trimmed = envelope.Data
	}
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(trimmed, dst); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body []byte, dst interface{}) error {
	endpoint := c.baseURL + path
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var eb errorBody
		if json.Unmarshal(data, &eb) == nil {
			apiErr.Message = eb.Message
			if apiErr.Message == "" {
				apiErr.Message = eb.Error
			}
			apiErr.Errors = eb.Errors
		}
		return apiErr
	}

	if dst == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
