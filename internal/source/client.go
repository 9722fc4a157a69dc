// Package source implements the client for the order-source API, which
// serves orders over basic-auth JSON endpoints.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"ordersync/internal/logger"
	"ordersync/internal/remote"
	"ordersync/pkg/models"
)

// listPageSize caps one processing-orders fetch.
const listPageSize = 100

// Client fetches orders from the order-source API.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	policy     remote.Policy
	log        zerolog.Logger
}

// New creates an order-source client for the given base URL and
// basic-auth credentials.
func New(baseURL, username, password string, policy remote.Policy) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		username:   username,
		password:   password,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		policy:     policy,
		log:        logger.WithComponent("order-source"),
	}
}

// FetchOrderByID fetches one order. A missing order returns
// remote.ErrNotFound; 401/403 return remote.ErrAuth without retry.
func (c *Client) FetchOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	const op = "FetchOrderByID"

	body, err := c.get(ctx, op, fmt.Sprintf("%s/orders/%d", c.baseURL, id), nil)
	if err != nil {
		return nil, err
	}

	var order models.Order
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, &remote.ParseError{Op: op, Err: err}
	}
	if err := checkOrderShape(&order); err != nil {
		return nil, &remote.ParseError{Op: op, Err: err}
	}

	c.log.Debug().
		Int64("order_id", order.ID).
		Str("status", order.Status).
		Msg("Order fetched")

	return &order, nil
}

// FetchProcessingOrders fetches all orders in the "processing" state,
// newest first. An empty result is valid, not an error.
func (c *Client) FetchProcessingOrders(ctx context.Context) ([]models.Order, error) {
	const op = "FetchProcessingOrders"

	params := url.Values{}
	params.Set("status", "processing")
	params.Set("orderby", "date")
	params.Set("order", "desc")
	params.Set("per_page", strconv.Itoa(listPageSize))

	body, err := c.get(ctx, op, c.baseURL+"/orders", params)
	if err != nil {
		return nil, err
	}

	var orders []models.Order
	if err := json.Unmarshal(body, &orders); err != nil {
		return nil, &remote.ParseError{Op: op, Err: err}
	}
	for i := range orders {
		if err := checkOrderShape(&orders[i]); err != nil {
			return nil, &remote.ParseError{Op: op, Err: err}
		}
	}

	c.log.Info().Int("count", len(orders)).Msg("Processing orders fetched")

	return orders, nil
}

// get performs a retry-wrapped GET and returns the response body.
func (c *Client) get(ctx context.Context, op, rawURL string, params url.Values) ([]byte, error) {
	if len(params) > 0 {
		rawURL += "?" + params.Encode()
	}

	var body []byte
	err := c.policy.Do(ctx, op, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return &remote.PermanentError{Body: err.Error()}
		}
		req.SetBasicAuth(c.username, c.password)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return &remote.TransientError{Err: err}
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return &remote.TransientError{Err: err}
		}
		if err := remote.ClassifyStatus(resp.StatusCode, string(data)); err != nil {
			return err
		}
		body = data
		return nil
	})
	return body, err
}

// checkOrderShape rejects responses missing the fields every order must
// carry, before they reach the pipeline.
func checkOrderShape(order *models.Order) error {
	if order.ID == 0 {
		return fmt.Errorf("order without id")
	}
	if order.Status == "" {
		return fmt.Errorf("order %d without status", order.ID)
	}
	if order.DateCreated == "" {
		return fmt.Errorf("order %d without creation date", order.ID)
	}
	return nil
}
