// Package client is a small typed client for the boutique HTTP API.
package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"boutique/internal/domain"
	"boutique/internal/reports"
	"boutique/internal/services"
)

const apiPrefix = "/api/v1"

type Client struct {
	r *resty.Client
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status    int    `json:"-"`
	Message   string `json:"error"`
	Available int    `json:"available,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// Unwrap maps the status back onto the domain error kinds so callers can
// use errors.Is the same way they would against the services.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusBadRequest:
		return domain.ErrInvalid
	case http.StatusUnauthorized:
		return domain.ErrUnauthenticated
	case http.StatusForbidden:
		return domain.ErrForbidden
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusConflict:
		if e.Message == domain.ErrInsufficientStock.Error() {
			return domain.ErrInsufficientStock
		}
		return domain.ErrConflict
	}
	return nil
}

func New(baseURL string) *Client {
	r := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15*time.Second).
		SetHeader("Accept", "application/json").
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			// only idempotent reads are retried
			if resp == nil || resp.Request == nil || resp.Request.Method != http.MethodGet {
				return false
			}
			return err != nil || resp.StatusCode() >= http.StatusInternalServerError
		})
	return &Client{r: r}
}

// Token returns the bearer token in use, empty before Login.
func (c *Client) Token() string { return c.r.Token }

func (c *Client) SetToken(tok string) { c.r.SetAuthToken(tok) }

func (c *Client) do(ctx context.Context, method, path string, body, out any, query map[string]string) error {
	apiErr := &APIError{}
	req := c.r.R().SetContext(ctx).SetError(apiErr)
	if body != nil {
		req.SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}
	for k, v := range query {
		if v != "" {
			req.SetQueryParam(k, v)
		}
	}
	resp, err := req.Execute(method, apiPrefix+path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		apiErr.Status = resp.StatusCode()
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode())
		}
		return apiErr
	}
	return nil
}

func (c *Client) Login(ctx context.Context, email, password string) (services.Session, error) {
	var sess services.Session
	err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{"email": email, "password": password}, &sess, nil)
	if err != nil {
		return services.Session{}, err
	}
	c.SetToken(sess.Token)
	return sess, nil
}

func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil); err != nil {
		return err
	}
	c.SetToken("")
	return nil
}

func (c *Client) Products(ctx context.Context, q, categoryID string) ([]domain.Product, error) {
	var out []domain.Product
	err := c.do(ctx, http.MethodGet, "/products", nil, &out, map[string]string{"q": q, "category": categoryID})
	return out, err
}

func (c *Client) LowStock(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	err := c.do(ctx, http.MethodGet, "/products/low-stock", nil, &out, nil)
	return out, err
}

func (c *Client) Sell(ctx context.Context, productID string, quantity int) (domain.Sale, error) {
	var out domain.Sale
	body := map[string]any{"productId": productID, "quantity": quantity}
	err := c.do(ctx, http.MethodPost, "/sales", body, &out, nil)
	return out, err
}

func (c *Client) Sales(ctx context.Context, period, q string) (services.SalesPage, error) {
	var out services.SalesPage
	err := c.do(ctx, http.MethodGet, "/sales", nil, &out, map[string]string{"period": period, "q": q})
	return out, err
}

func (c *Client) Restock(ctx context.Context, productID string, quantity int) (domain.StockEntry, error) {
	var out domain.StockEntry
	err := c.do(ctx, http.MethodPost, "/products/"+productID+"/stock", map[string]int{"quantity": quantity}, &out, nil)
	return out, err
}

func (c *Client) Report(ctx context.Context, period string, top int) (reports.Report, error) {
	var out reports.Report
	q := map[string]string{"period": period}
	if top > 0 {
		q["top"] = strconv.Itoa(top)
	}
	err := c.do(ctx, http.MethodGet, "/reports", nil, &out, q)
	return out, err
}

func (c *Client) Dashboard(ctx context.Context) (services.Dashboard, error) {
	var out services.Dashboard
	err := c.do(ctx, http.MethodGet, "/dashboard", nil, &out, nil)
	return out, err
}
