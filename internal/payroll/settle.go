// Package payroll implements batch settlement of payslip line items.
//
// A batch run applies a caller-supplied payment operation to each submitted
// item, tolerates individual failures without aborting, and produces one
// reconciled result. The key invariant is idempotency: an item already in
// status paid is skipped and recorded as success without invoking the
// processor again, so no line item is paid twice in one or across repeated
// runs.
package payroll

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"PeopleFlow-backend/internal/model"
)

// PaymentProcessor is the single-item pay capability supplied by the caller.
// It may represent a real disbursement gateway or a test stub. A nil error
// means the money moved.
type PaymentProcessor interface {
	Pay(ctx context.Context, item model.PayslipLineItem) error
}

// ProcessorFunc adapts a plain function to the PaymentProcessor interface.
type ProcessorFunc func(ctx context.Context, item model.PayslipLineItem) error

// Pay calls f.
func (f ProcessorFunc) Pay(ctx context.Context, item model.PayslipLineItem) error {
	return f(ctx, item)
}

// Outcome is the per-item result of one settlement run.
type Outcome struct {
	PayslipID uint   `json:"payslip_id"`
	Paid      bool   `json:"paid"`
	Skipped   bool   `json:"skipped"`
	Reason    string `json:"reason,omitempty"`
}

// SettlementResult is the consolidated report of one batch run. It is
// immutable after SettleBatch returns.
//
// SuccessCount + FailedCount == TotalProcessed always holds. Skipped
// already-paid items count as successes; SkippedCount tells them apart from
// items newly paid in this run. TotalAmount sums the totals of items newly
// moved to paid in this run, so it reflects money actually moved.
type SettlementResult struct {
	TotalProcessed int             `json:"total_processed"`
	SuccessCount   int             `json:"success_count"`
	FailedCount    int             `json:"failed_count"`
	SkippedCount   int             `json:"skipped_count"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Outcomes       []Outcome       `json:"outcomes"`
}

// Options bound a settlement run.
type Options struct {
	// Workers is the maximum number of concurrent payment attempts.
	// Values below 1 mean sequential processing.
	Workers int
	// ItemTimeout bounds a single processor call. Zero means no bound.
	ItemTimeout time.Duration
}

const (
	cancelledReason = "batch cancelled"
	duplicateReason = "duplicate of an earlier item"
)

// SettleBatch attempts payment for every submitted item and returns the
// updated items together with the reconciled result.
//
// Items are visited in the given order; the engine imposes no reordering.
// Payment is keyed by item identity: a batch naming the same item twice pays
// it at most once, with later copies recorded as idempotent skips.
// Already-paid items are skipped as idempotent successes. Each remaining item
// gets exactly one processor invocation; a failure leaves the item unchanged
// and is recorded with its reason. Item attempts may run concurrently, but
// outcomes are keyed by submission position so the result is deterministic
// regardless of completion order. Cancelling ctx stops further attempts;
// items not attempted are recorded as failed with reason "batch cancelled"
// and a later re-run is safe by idempotency.
//
// The input slice is not mutated. An empty item set yields a zero-valued
// result, not an error.
func SettleBatch(ctx context.Context, items []model.PayslipLineItem, processor PaymentProcessor, opts Options) ([]model.PayslipLineItem, SettlementResult) {
	updated := make([]model.PayslipLineItem, len(items))
	copy(updated, items)
	outcomes := make([]Outcome, len(items))

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	var g errgroup.Group
	g.SetLimit(workers)

	seen := make(map[uint]bool, len(updated))

	for i := range updated {
		item := &updated[i]
		outcome := &outcomes[i]
		outcome.PayslipID = item.ID

		// Only the first copy of an item is eligible for payment.
		if seen[item.ID] {
			outcome.Skipped = true
			outcome.Reason = duplicateReason
			continue
		}
		seen[item.ID] = true

		// Idempotency guard: never re-invoke the processor for money
		// that already moved.
		if !item.Status.Payable() {
			outcome.Paid = false
			outcome.Skipped = true
			continue
		}

		if err := ctx.Err(); err != nil {
			outcome.Reason = cancelledReason
			continue
		}

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				outcome.Reason = cancelledReason
				return nil
			}
			if err := payOne(ctx, *item, processor, opts.ItemTimeout); err != nil {
				outcome.Reason = failureReason(err)
				return nil
			}
			now := time.Now()
			item.Status = model.PayslipStatusPaid
			item.PaidAt = &now
			outcome.Paid = true
			return nil
		})
	}
	_ = g.Wait()

	result := SettlementResult{
		TotalProcessed: len(items),
		TotalAmount:    decimal.Zero,
		Outcomes:       outcomes,
	}
	for i, o := range outcomes {
		switch {
		case o.Paid:
			result.SuccessCount++
			result.TotalAmount = result.TotalAmount.Add(updated[i].Total)
		case o.Skipped:
			result.SuccessCount++
			result.SkippedCount++
		default:
			result.FailedCount++
		}
	}
	return updated, result
}

// payOne performs a single bounded payment attempt.
func payOne(ctx context.Context, item model.PayslipLineItem, processor PaymentProcessor, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return processor.Pay(ctx, item)
}

func failureReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "payment timed out"
	}
	if errors.Is(err, context.Canceled) {
		return cancelledReason
	}
	return err.Error()
}
