// Package backend is the REST client for the external emissions backend.
// Each method wraps one endpoint, unwraps the {status, data} envelope, and
// returns *APIError for non-2xx responses. There is no retry, caching, or
// request deduplication.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"time"
)

const maxResponseBytes = 10 << 20

type envelope[T any] struct {
	Status string `json:"status"`
	Data   T      `json:"data"`
}

type manualEnvelope struct {
	Status string      `json:"status"`
	Data   EmissionLog `json:"data"`
	CO2eKg Number      `json:"co2e_kg"`
}

type csvEnvelope struct {
	Status        string `json:"status"`
	RowsProcessed int    `json:"rows_processed"`
}

type recommendationData struct {
	Recommendations []Recommendation `json:"recommendations"`
	Context         json.RawMessage  `json:"context,omitempty"`
}

// Client issues requests against the emissions backend.
type Client struct {
	base    *url.URL
	http    *http.Client
	logger  *slog.Logger
	metrics *Metrics
}

// New creates a Client from cfg. metrics may be nil.
func New(cfg *Config, logger *slog.Logger, metrics *Metrics) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	return &Client{
		base:    base,
		http:    &http.Client{Timeout: cfg.TimeoutDuration()},
		logger:  logger.With("system", "backend"),
		metrics: metrics,
	}, nil
}

// BaseURL returns the configured backend root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Ping checks reachability by listing organizations.
func (c *Client) Ping(ctx context.Context) error {
	return c.get(ctx, "ping", "organizations", nil, nil)
}

// Organizations lists all organizations.
func (c *Client) Organizations(ctx context.Context) ([]Organization, error) {
	var env envelope[[]Organization]
	if err := c.get(ctx, "organizations.list", "organizations", nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// Branches lists the branches of an organization.
func (c *Client) Branches(ctx context.Context, orgID string) ([]Branch, error) {
	var env envelope[[]Branch]
	if err := c.get(ctx, "branches.list", "branches/"+url.PathEscape(orgID), nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// Departments lists the departments of a branch.
func (c *Client) Departments(ctx context.Context, branchID string) ([]Department, error) {
	var env envelope[[]Department]
	if err := c.get(ctx, "departments.list", "departments/"+url.PathEscape(branchID), nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// CreateOrganization registers a new organization.
func (c *Client) CreateOrganization(ctx context.Context, cmd CreateOrganization) (*Organization, error) {
	var env envelope[Organization]
	if err := c.postJSON(ctx, "organizations.create", "organizations", cmd, &env); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// CreateBranch registers a new branch under an organization.
func (c *Client) CreateBranch(ctx context.Context, cmd CreateBranch) (*Branch, error) {
	var env envelope[Branch]
	if err := c.postJSON(ctx, "branches.create", "branches", cmd, &env); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// CreateDepartment registers a new department under a branch.
func (c *Client) CreateDepartment(ctx context.Context, cmd CreateDepartment) (*Department, error) {
	var env envelope[Department]
	if err := c.postJSON(ctx, "departments.create", "departments", cmd, &env); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// LogManual records a single emission activity.
func (c *Client) LogManual(ctx context.Context, cmd ManualLog) (*ManualLogResult, error) {
	var env manualEnvelope
	if err := c.postJSON(ctx, "log.manual", "log/manual", cmd, &env); err != nil {
		return nil, err
	}

	co2e := float64(env.CO2eKg)
	if co2e == 0 {
		co2e = float64(env.Data.CO2eKg)
	}
	return &ManualLogResult{Log: env.Data, CO2eKg: co2e}, nil
}

// LogCSV uploads a CSV of activity rows for a department as multipart form data.
func (c *Client) LogCSV(ctx context.Context, deptID int, filename string, data []byte) (*CSVLogResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", "text/csv")

	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("log.csv: create part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("log.csv: write part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("log.csv: close multipart: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "log/csv/"+strconv.Itoa(deptID), nil, &body)
	if err != nil {
		return nil, fmt.Errorf("log.csv: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var env csvEnvelope
	if err := c.do(req, "log.csv", &env); err != nil {
		return nil, err
	}
	return &CSVLogResult{RowsProcessed: env.RowsProcessed}, nil
}

// Total returns the total emissions for scope.
func (c *Client) Total(ctx context.Context, scope Scope) (Totals, error) {
	var env envelope[Totals]
	if err := c.get(ctx, "analytics.total", scope.path("total"), nil, &env); err != nil {
		return Totals{}, err
	}
	return env.Data, nil
}

// ByCategory returns emissions grouped by category for scope.
func (c *Client) ByCategory(ctx context.Context, scope Scope) ([]CategoryRow, error) {
	var env envelope[[]CategoryRow]
	if err := c.get(ctx, "analytics.by_category", scope.path("by-category"), nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// ByDepartment returns emissions grouped by department for scope.
func (c *Client) ByDepartment(ctx context.Context, scope Scope) ([]DepartmentRow, error) {
	var env envelope[[]DepartmentRow]
	if err := c.get(ctx, "analytics.by_department", scope.path("by-department"), nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// ByTime returns emissions grouped into time buckets for scope.
func (c *Client) ByTime(ctx context.Context, scope Scope, q TimeQuery) ([]TimeRow, error) {
	var env envelope[[]TimeRow]
	if err := c.get(ctx, "analytics.by_time", scope.path("by-time"), q.values(), &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// Recommendations returns reduction recommendations for the query scope.
func (c *Client) Recommendations(ctx context.Context, q RecommendationQuery) ([]Recommendation, error) {
	var env envelope[recommendationData]
	if err := c.get(ctx, "recommendations", "recommendations", q.values(), &env); err != nil {
		return nil, err
	}
	return env.Data.Recommendations, nil
}

func (c *Client) get(ctx context.Context, endpoint, p string, query url.Values, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, p, query, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	return c.do(req, endpoint, out)
}

func (c *Client) postJSON(ctx context.Context, endpoint, p string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", endpoint, err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, p, nil, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, endpoint, out)
}

func (c *Client) newRequest(ctx context.Context, method, p string, query url.Values, body io.Reader) (*http.Request, error) {
	target := c.base.JoinPath(p)
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, endpoint string, out any) error {
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.observe(endpoint, "unavailable", time.Since(start))
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", endpoint, ctxErr)
		}
		return fmt.Errorf("%s: %w: %w", endpoint, ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.metrics.observe(endpoint, "unavailable", time.Since(start))
		return fmt.Errorf("%s: read response: %w: %w", endpoint, ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.observe(endpoint, "error", time.Since(start))
		apiErr := newAPIError(endpoint, resp.StatusCode, body)
		c.logger.Debug(
			"backend error",
			"endpoint", endpoint,
			"status", resp.StatusCode,
			"detail", apiErr.Detail,
		)
		return apiErr
	}

	c.metrics.observe(endpoint, "ok", time.Since(start))
	c.logger.Debug(
		"backend request",
		"endpoint", endpoint,
		"method", req.Method,
		"url", req.URL.String(),
		"duration", time.Since(start),
	)

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: %w: %w", endpoint, ErrDecode, err)
	}
	return nil
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
