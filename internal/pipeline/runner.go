package pipeline

import (
	"context"

	"github.com/rs/zerolog"
	"ordersync/internal/logger"
	"ordersync/pkg/models"
)

// OrderSource is the subset of order-source operations the runner needs.
type OrderSource interface {
	FetchOrderByID(ctx context.Context, id int64) (*models.Order, error)
	FetchProcessingOrders(ctx context.Context) ([]models.Order, error)
}

// Summary accumulates per-order outcomes across a batch.
type Summary struct {
	Created  int
	Skipped  int
	Failed   int
	Outcomes []Outcome
}

func (s *Summary) add(outcome Outcome) {
	s.Outcomes = append(s.Outcomes, outcome)
	switch outcome.Status {
	case StatusCreated:
		s.Created++
	case StatusSkipped:
		s.Skipped++
	default:
		s.Failed++
	}
}

// FailedOrders lists the ids of orders that did not produce an invoice.
func (s *Summary) FailedOrders() []int64 {
	var ids []int64
	for _, outcome := range s.Outcomes {
		if outcome.Status == StatusFailed {
			ids = append(ids, outcome.OrderID)
		}
	}
	return ids
}

// Runner drives the pipeline over one order or a whole batch. Orders
// run sequentially; a failed order never aborts the batch.
type Runner struct {
	source    OrderSource
	processor *Processor
	log       zerolog.Logger
}

// NewRunner wires a runner from its collaborators.
func NewRunner(source OrderSource, processor *Processor) *Runner {
	return &Runner{
		source:    source,
		processor: processor,
		log:       logger.WithComponent("runner"),
	}
}

// ProcessOne fetches a single order by id and runs it through the
// pipeline. Fetch failures fold into a failed outcome.
func (r *Runner) ProcessOne(ctx context.Context, orderID int64) Outcome {
	order, err := r.source.FetchOrderByID(ctx, orderID)
	if err != nil {
		r.log.Error().Err(err).Int64("order_id", orderID).Msg("Could not fetch order")
		return Outcome{
			OrderID:   orderID,
			Status:    StatusFailed,
			LastState: StatePending,
			Reason:    err.Error(),
			Err:       err,
		}
	}
	return r.processor.Process(ctx, order)
}

// ProcessAll fetches every processing order and runs each through the
// pipeline, accumulating a summary.
func (r *Runner) ProcessAll(ctx context.Context) (Summary, error) {
	orders, err := r.source.FetchProcessingOrders(ctx)
	if err != nil {
		return Summary{}, err
	}

	var summary Summary
	for i := range orders {
		summary.add(r.processor.Process(ctx, &orders[i]))
	}

	r.log.Info().
		Int("created", summary.Created).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Msg("Batch complete")

	return summary, nil
}

// ProcessIDs runs a caller-provided list of order ids, used by the
// relay. Each id is fetched and processed independently.
func (r *Runner) ProcessIDs(ctx context.Context, orderIDs []int64) Summary {
	var summary Summary
	for _, id := range orderIDs {
		summary.add(r.ProcessOne(ctx, id))
	}
	return summary
}
