package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"ordersync/internal/remote"
)

func testPolicy() remote.Policy {
	return remote.Policy{MaxAttempts: 4, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

const orderJSON = `{
	"id": 1,
	"status": "processing",
	"currency": "EUR",
	"date_created": "2024-03-01T10:30:00",
	"billing": {"first_name": "Anna", "last_name": "de Vries", "email": "a@b.com", "country": "NL"},
	"shipping": {"country": "NL"},
	"line_items": [{"sku": "X1", "name": "Widget", "quantity": 2, "price": 10.00, "total": "20.00"}],
	"shipping_lines": [{"method_title": "Standard", "total": "4.95"}]
}`

func TestFetchOrderByID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders/1", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "user", user)
		assert.Equal(t, "secret", pass)
		w.Write([]byte(orderJSON))
	}))
	defer srv.Close()

	c := New(srv.URL, "user", "secret", testPolicy())
	order, err := c.FetchOrderByID(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, int64(1), order.ID)
	assert.Equal(t, "processing", order.Status)
	assert.Equal(t, "a@b.com", order.BillingEmail())
	assert.Equal(t, "NL", order.DestinationCountry())
	assert.Equal(t, "2024-03-01", order.InvoiceDate())
	require.Len(t, order.LineItems, 1)
	assert.Equal(t, "X1", order.LineItems[0].SKU)
	assert.Equal(t, 2, order.LineItems[0].Quantity)
	assert.Equal(t, "4.95", order.ShippingTotal().StringFixed(2))
}

func TestFetchOrderByIDNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such order", http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL, "user", "secret", testPolicy())
	_, err := c.FetchOrderByID(context.Background(), 99)
	assert.ErrorIs(t, err, remote.ErrNotFound)
}

func TestFetchOrderByIDAuthErrorIsNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	c := New(srv.URL, "user", "wrong", testPolicy())
	_, err := c.FetchOrderByID(context.Background(), 1)
	assert.ErrorIs(t, err, remote.ErrAuth)
	assert.Equal(t, 1, calls)
}

func TestFetchOrderByIDRetriesServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls <= 2 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(orderJSON))
	}))
	defer srv.Close()

	c := New(srv.URL, "user", "secret", testPolicy())
	order, err := c.FetchOrderByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), order.ID)
	assert.Equal(t, 3, calls)
}

func TestFetchOrderByIDMalformedResponse(t *testing.T) {
	cases := map[string]string{
		"not json":     `<html>oops</html>`,
		"missing id":   `{"status": "processing", "date_created": "2024-03-01T10:30:00"}`,
		"missing date": `{"id": 1, "status": "processing"}`,
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(payload))
			}))
			defer srv.Close()

			c := New(srv.URL, "user", "secret", testPolicy())
			_, err := c.FetchOrderByID(context.Background(), 1)
			var parseErr *remote.ParseError
			assert.ErrorAs(t, err, &parseErr)
		})
	}
}

func TestFetchProcessingOrders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "processing", q.Get("status"))
		assert.Equal(t, "date", q.Get("orderby"))
		assert.Equal(t, "desc", q.Get("order"))
		assert.Equal(t, "100", q.Get("per_page"))
		w.Write([]byte("[" + orderJSON + "]"))
	}))
	defer srv.Close()

	c := New(srv.URL, "user", "secret", testPolicy())
	orders, err := c.FetchProcessingOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, int64(1), orders[0].ID)
}

func TestFetchProcessingOrdersEmptyListIsValid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[]"))
	}))
	defer srv.Close()

	c := New(srv.URL, "user", "secret", testPolicy())
	orders, err := c.FetchProcessingOrders(context.Background())
	require.NoError(t, err)
	assert.Empty(t, orders)
}
