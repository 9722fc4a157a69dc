// Package relay exposes the one-route command relay the order-selection
// front end talks to: it receives a set of order ids and runs each
// through the invoice pipeline, reporting per-id success or failure.
package relay

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"ordersync/internal/logger"
	"ordersync/internal/pipeline"
)

// OrderProcessor runs one order by id through the pipeline.
type OrderProcessor interface {
	ProcessOne(ctx context.Context, orderID int64) pipeline.Outcome
}

// Server is the relay HTTP server.
type Server struct {
	processor OrderProcessor
	log       zerolog.Logger
}

// New creates a relay server around an order processor.
func New(processor OrderProcessor) *Server {
	return &Server{
		processor: processor,
		log:       logger.WithComponent("relay"),
	}
}

type processRequest struct {
	Orders []int64 `json:"orders"`
}

type processResult struct {
	OrderID   int64  `json:"order_id"`
	Status    string `json:"status"`
	InvoiceID int64  `json:"invoice_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Router builds the gin engine with the relay routes.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	// The browser extension calls this cross-origin.
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.POST("/process_orders", s.handleProcessOrders)

	return router
}

func (s *Server) handleProcessOrders(c *gin.Context) {
	var req processRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Orders) == 0 {
		s.log.Error().Msg("Invalid or empty orders list received")
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "invalid or empty orders list",
		})
		return
	}

	s.log.Info().Ints64("order_ids", req.Orders).Msg("Relay processing orders")

	results := make([]processResult, 0, len(req.Orders))
	for _, orderID := range req.Orders {
		outcome := s.processor.ProcessOne(c.Request.Context(), orderID)

		result := processResult{OrderID: orderID, Status: string(outcome.Status)}
		switch outcome.Status {
		case pipeline.StatusCreated:
			result.InvoiceID = outcome.InvoiceID
		case pipeline.StatusSkipped:
			result.Error = outcome.Reason
		default:
			result.Error = outcome.Reason
		}
		results = append(results, result)
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "completed",
		"results": results,
	})
}

// Run serves the relay until ctx is canceled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Router()}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("Relay server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.log.Info().Msg("Shutting down relay server")
		return srv.Shutdown(context.Background())
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
