package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"ordersync/internal/pipeline"
)

type fakeProcessor struct {
	outcomes map[int64]pipeline.Outcome
}

func (f *fakeProcessor) ProcessOne(_ context.Context, orderID int64) pipeline.Outcome {
	if outcome, ok := f.outcomes[orderID]; ok {
		return outcome
	}
	return pipeline.Outcome{OrderID: orderID, Status: pipeline.StatusFailed, Reason: "order not found"}
}

func init() {
	gin.SetMode(gin.TestMode)
}

func postOrders(t *testing.T, router *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/process_orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestProcessOrders(t *testing.T) {
	router := New(&fakeProcessor{outcomes: map[int64]pipeline.Outcome{
		1: {OrderID: 1, Status: pipeline.StatusCreated, InvoiceID: 314},
	}}).Router()

	rec := postOrders(t, router, `{"orders": [1, 2]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status  string `json:"status"`
		Results []struct {
			OrderID   int64  `json:"order_id"`
			Status    string `json:"status"`
			InvoiceID int64  `json:"invoice_id"`
			Error     string `json:"error"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "completed", resp.Status)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "created", resp.Results[0].Status)
	assert.Equal(t, int64(314), resp.Results[0].InvoiceID)
	assert.Equal(t, "failed", resp.Results[1].Status)
	assert.Equal(t, "order not found", resp.Results[1].Error)
}

func TestProcessOrdersRejectsEmptyList(t *testing.T) {
	router := New(&fakeProcessor{}).Router()

	for name, body := range map[string]string{
		"empty list":  `{"orders": []}`,
		"missing key": `{}`,
		"not json":    `orders=1`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := postOrders(t, router, body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	router := New(&fakeProcessor{}).Router()

	req := httptest.NewRequest(http.MethodOptions, "/process_orders", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealthz(t *testing.T) {
	router := New(&fakeProcessor{}).Router()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
