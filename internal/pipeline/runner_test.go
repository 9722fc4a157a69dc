package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"ordersync/internal/remote"
	"ordersync/pkg/models"
)

type fakeSource struct {
	orders map[int64]*models.Order
	listed []models.Order
}

func (f *fakeSource) FetchOrderByID(_ context.Context, id int64) (*models.Order, error) {
	if order, ok := f.orders[id]; ok {
		return order, nil
	}
	return nil, fmt.Errorf("%w: order %d", remote.ErrNotFound, id)
}

func (f *fakeSource) FetchProcessingOrders(_ context.Context) ([]models.Order, error) {
	return f.listed, nil
}

func orderWithID(id int64, sku string) models.Order {
	order := *testOrder()
	order.ID = id
	order.LineItems = []models.OrderLineItem{
		{SKU: sku, Name: "Widget", Quantity: 1, Price: decimal.RequireFromString("10.00")},
	}
	order.ShippingLines = nil
	return order
}

func TestProcessAllContinuesPastFailures(t *testing.T) {
	ledger := newFakeLedger()
	ledger.products["X1"] = &models.Product{ID: 7, SKU: "X1"}

	src := &fakeSource{listed: []models.Order{
		orderWithID(1, "X1"),
		orderWithID(2, "MISSING"), // fails product resolution
		orderWithID(3, "X1"),
	}}

	r := NewRunner(src, testProcessor(t, ledger))
	summary, err := r.ProcessAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Created)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, []int64{2}, summary.FailedOrders())
	assert.Len(t, summary.Outcomes, 3)

	// The failure did not stop order 3 from being invoiced.
	assert.Len(t, ledger.createdInvoices, 2)
}

func TestProcessOneFetchFailure(t *testing.T) {
	r := NewRunner(&fakeSource{orders: map[int64]*models.Order{}}, testProcessor(t, newFakeLedger()))

	outcome := r.ProcessOne(context.Background(), 99)
	assert.Equal(t, StatusFailed, outcome.Status)
	assert.Equal(t, StatePending, outcome.LastState)
	assert.ErrorIs(t, outcome.Err, remote.ErrNotFound)
}

func TestProcessIDs(t *testing.T) {
	ledger := newFakeLedger()
	ledger.products["X1"] = &models.Product{ID: 7, SKU: "X1"}

	order := orderWithID(1, "X1")
	src := &fakeSource{orders: map[int64]*models.Order{1: &order}}

	r := NewRunner(src, testProcessor(t, ledger))
	summary := r.ProcessIDs(context.Background(), []int64{1, 99})

	assert.Equal(t, 1, summary.Created)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, []int64{99}, summary.FailedOrders())
}
