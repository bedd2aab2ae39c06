// Package apiclient talks to the remote clinic REST API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-console/internal/model"
	"github.com/jwalitptl/clinic-console/pkg/circuitbreaker"
	apperrors "github.com/jwalitptl/clinic-console/pkg/errors"
	"github.com/jwalitptl/clinic-console/pkg/metrics"
)

type Config struct {
	BaseURL string
	// Timeout bounds a single call; zero means no timeout.
	Timeout         time.Duration
	BreakerFailures int
	BreakerTimeout  time.Duration
}

// API is the set of remote operations the console depends on.
type API interface {
	List(ctx context.Context, t model.ResourceType) ([]model.Record, error)
	Get(ctx context.Context, t model.ResourceType, id int64) (model.Record, error)
	Create(ctx context.Context, t model.ResourceType, payload interface{}) (model.Record, error)
	Update(ctx context.Context, t model.ResourceType, id int64, payload interface{}) (model.Record, error)
	Delete(ctx context.Context, t model.ResourceType, id int64) error
}

type Client struct {
	baseURL string
	http    *http.Client
	cb      *circuitbreaker.CircuitBreaker
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

var _ API = (*Client)(nil)

func New(cfg Config, m *metrics.Metrics, logger zerolog.Logger) *Client {
	if m == nil {
		m = metrics.NewNop()
	}
	logger = logger.With().Str("component", "apiclient").Logger()

	cb := circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
		Name:        "clinic-api",
		MaxFailures: cfg.BreakerFailures,
		Timeout:     cfg.BreakerTimeout,
		IsFailure:   countsAgainstBreaker,
		OnStateChange: func(name, from, to string) {
			logger.Warn().Str("breaker", name).Str("from", from).Str("to", to).Msg("circuit breaker state changed")
		},
	})

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		cb:      cb,
		metrics: m,
		logger:  logger,
	}
}

func (c *Client) List(ctx context.Context, t model.ResourceType) ([]model.Record, error) {
	var records []model.Record
	if err := c.do(ctx, request{resource: t, method: http.MethodGet, path: "/" + t.String(), out: &records}); err != nil {
		return nil, err
	}
	if records == nil {
		records = []model.Record{}
	}
	return records, nil
}

func (c *Client) Get(ctx context.Context, t model.ResourceType, id int64) (model.Record, error) {
	var record model.Record
	req := request{resource: t, method: http.MethodGet, path: itemPath(t, id), out: &record}
	if err := c.do(ctx, req); err != nil {
		return nil, err
	}
	if record == nil {
		return nil, apperrors.Decode(req.method, c.baseURL+req.path, errors.New("empty record"))
	}
	return record, nil
}

func (c *Client) Create(ctx context.Context, t model.ResourceType, payload interface{}) (model.Record, error) {
	var record model.Record
	err := c.do(ctx, request{resource: t, method: http.MethodPost, path: "/" + t.String(), body: payload, out: &record, emptyOK: true})
	return record, err
}

func (c *Client) Update(ctx context.Context, t model.ResourceType, id int64, payload interface{}) (model.Record, error) {
	var record model.Record
	err := c.do(ctx, request{resource: t, method: http.MethodPut, path: itemPath(t, id), body: payload, out: &record, emptyOK: true})
	return record, err
}

func (c *Client) Delete(ctx context.Context, t model.ResourceType, id int64) error {
	return c.do(ctx, request{resource: t, method: http.MethodDelete, path: itemPath(t, id)})
}

// Ping checks that the API answers a collection request with a 2xx status.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, request{resource: model.Doctors, method: http.MethodGet, path: "/" + model.Doctors.String()})
}

type request struct {
	resource model.ResourceType
	method   string
	path     string
	body     interface{}
	out      interface{}
	emptyOK  bool
}

func (c *Client) do(ctx context.Context, r request) error {
	url := c.baseURL + r.path
	start := time.Now()

	err := c.cb.Execute(func() error {
		return c.roundTrip(ctx, r, url)
	})
	if errors.Is(err, circuitbreaker.ErrOpen) {
		err = apperrors.Transport(r.method, url, err)
	}

	outcome := "success"
	if err != nil {
		outcome = apperrors.KindOf(err).String()
		c.logger.Warn().Err(err).Str("method", r.method).Str("url", url).Str("outcome", outcome).Msg("clinic API call failed")
	} else {
		c.logger.Debug().Str("method", r.method).Str("url", url).Dur("latency", time.Since(start)).Msg("clinic API call")
	}
	c.metrics.APIRequests.WithLabelValues(r.resource.String(), r.method, outcome).Inc()
	c.metrics.APILatency.WithLabelValues(r.resource.String(), r.method).Observe(time.Since(start).Seconds())

	return err
}

func (c *Client) roundTrip(ctx context.Context, r request, url string) error {
	var body io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("failed to marshal %s payload: %w", r.resource, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, url, body)
	if err != nil {
		return apperrors.Transport(r.method, url, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.Transport(r.method, url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.Transport(r.method, url, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apperrors.Status(r.method, url, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if r.out == nil {
		return nil
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		if r.emptyOK {
			return nil
		}
		return apperrors.Decode(r.method, url, io.ErrUnexpectedEOF)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(r.out); err != nil {
		return apperrors.Decode(r.method, url, err)
	}
	return nil
}

// Only transport failures and 5xx responses trip the breaker.
func countsAgainstBreaker(err error) bool {
	var apiErr *apperrors.APIError
	if !errors.As(err, &apiErr) {
		return true
	}
	switch apiErr.Kind {
	case apperrors.KindTransport:
		return true
	case apperrors.KindStatus:
		return apiErr.StatusCode >= 500
	}
	return false
}

func itemPath(t model.ResourceType, id int64) string {
	return "/" + t.String() + "/" + strconv.FormatInt(id, 10)
}
