// Package eproc talks to the e-procurement portal: it imports purchase orders as
// bills and reports paid awards back through the LOA finalize callback.
package eproc

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
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
)

const (
	callbackKeyHeader    = "X-Callback-Key"
	idempotencyKeyHeader = "Idempotency-Key"
	maxBodyBytes         = 4 << 10
	defaultTimeout       = 5 * time.Second
)

// ErrNotConfigured is returned when the base URL or callback key is missing
var ErrNotConfigured = errors.New("e-procurement integration not configured")

// StatusError is returned when the portal answers with a non-2xx status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("e-procurement responded %d: %s", e.StatusCode, e.Body)
}

// Config holds connection settings for the portal
type Config struct {
	BaseURL     string
	CallbackKey string
	Timeout     time.Duration
}

// FinalizeRequest is the body of the LOA finalize callback
type FinalizeRequest struct {
	TenderID  string      `json:"tenderId"`
	LOANumber string      `json:"loaNumber"`
	ChequeID  uint        `json:"chequeId"`
	Amount    json.Number `json:"amount"`
}

// NewFinalizeRequest builds the callback body for a cheque
func NewFinalizeRequest(tenderID, loaNumber string, chequeID uint, amount decimal.Decimal) FinalizeRequest {
	return FinalizeRequest{
		TenderID:  tenderID,
		LOANumber: loaNumber,
		ChequeID:  chequeID,
		Amount:    json.Number(amount.StringFixed(2)),
	}
}

// Result describes a completed finalize call
type Result struct {
	StatusCode     int
	IdempotencyKey string
}

// Client calls the e-procurement portal. Calls are never retried. Finalize and order
// search trip separate circuit breakers so a run of bad searches cannot block payments.
type Client struct {
	baseURL     string
	callbackKey string
	timeout     time.Duration
	http        *http.Client
	finalize    *gobreaker.CircuitBreaker
	search      *gobreaker.CircuitBreaker
}

// NewClient creates a new portal client
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		callbackKey: cfg.CallbackKey,
		timeout:     timeout,
		http:        &http.Client{Timeout: timeout},
		finalize:    newBreaker("eproc-finalize"),
		search:      newBreaker("eproc-search"),
	}
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:         name,
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		IsSuccessful: portalHealthy,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
}

// portalHealthy treats 4xx replies as answers from a working portal; only
// transport errors and 5xx count toward opening a breaker.
func portalHealthy(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode < 500
	}
	return err == nil
}

// Enabled reports whether both the base URL and the callback key are set
func (c *Client) Enabled() bool {
	return c.baseURL != "" && c.callbackKey != ""
}

// IdempotencyKey derives a stable key for a cheque so the portal can drop duplicates
func IdempotencyKey(chequeID uint) string {
	name := fmt.Sprintf("cbms/asaan-cheque/%d/loa-finalize", chequeID)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

// FinalizeAward posts the LOA finalize callback for a paid cheque
func (c *Client) FinalizeAward(ctx context.Context, req FinalizeRequest) (*Result, error) {
	if !c.Enabled() {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode finalize request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/tenders/%s/loa/finalize", c.baseURL, url.PathEscape(req.TenderID))
	key := IdempotencyKey(req.ChequeID)
	headers := map[string]string{
		"Content-Type":       "application/json",
		idempotencyKeyHeader: key,
	}

	out, err := c.call(ctx, c.finalize, http.MethodPost, endpoint, body, headers, func(resp *http.Response) (interface{}, error) {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return &Result{StatusCode: resp.StatusCode, IdempotencyKey: key}, nil
	})
	if err != nil {
		return nil, err
	}
	return out.(*Result), nil
}

// SearchOrders queries the portal's purchase orders
func (c *Client) SearchOrders(ctx context.Context, query string) ([]Order, error) {
	if !c.Enabled() {
		return nil, ErrNotConfigured
	}

	endpoint := fmt.Sprintf("%s/api/orders?search=%s", c.baseURL, url.QueryEscape(query))
	headers := map[string]string{"Accept": "application/json"}

	out, err := c.call(ctx, c.search, http.MethodGet, endpoint, nil, headers, func(resp *http.Response) (interface{}, error) {
		var page OrderPage
		if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
			return nil, fmt.Errorf("decode orders: %w", err)
		}
		return page.Orders, nil
	})
	if err != nil {
		return nil, err
	}
	return out.([]Order), nil
}

// call sends one authenticated request through breaker and hands 2xx responses to decode
func (c *Client) call(
	ctx context.Context,
	breaker *gobreaker.CircuitBreaker,
	method, endpoint string,
	body []byte,
	headers map[string]string,
	decode func(*http.Response) (interface{}, error),
) (interface{}, error) {
	return breaker.Execute(func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return nil, err
		}
		for k, v := range headers {
			httpReq.Header.Set(k, v)
		}
		httpReq.Header.Set(callbackKeyHeader, c.callbackKey)

		resp, err := c.http.Do(httpReq)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
			return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
		}
		return decode(resp)
	})
}
