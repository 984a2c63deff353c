package payroll

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"PeopleFlow-backend/internal/model"
)

func payslip(id uint, total int64, status model.PayslipStatus) model.PayslipLineItem {
	return model.PayslipLineItem{
		ID:     id,
		Total:  decimal.NewFromInt(total),
		Status: status,
	}
}

func alwaysOK(context.Context, model.PayslipLineItem) error { return nil }

func failIDs(ids ...uint) ProcessorFunc {
	return func(_ context.Context, item model.PayslipLineItem) error {
		for _, id := range ids {
			if item.ID == id {
				return fmt.Errorf("processor declined payslip %d", id)
			}
		}
		return nil
	}
}

func TestSettleBatch_Empty(t *testing.T) {
	updated, result := SettleBatch(context.Background(), nil, ProcessorFunc(alwaysOK), Options{})

	assert.Empty(t, updated)
	assert.Equal(t, 0, result.TotalProcessed)
	assert.Equal(t, 0, result.SuccessCount)
	assert.Equal(t, 0, result.FailedCount)
	assert.True(t, result.TotalAmount.IsZero())
	assert.Empty(t, result.Outcomes)
}

func TestSettleBatch_PartialFailure(t *testing.T) {
	items := []model.PayslipLineItem{
		payslip(1, 100, model.PayslipStatusIssued),
		payslip(2, 200, model.PayslipStatusIssued),
		payslip(3, 300, model.PayslipStatusIssued),
	}

	updated, result := SettleBatch(context.Background(), items, failIDs(2), Options{})

	assert.Equal(t, 3, result.TotalProcessed)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 1, result.FailedCount)
	assert.True(t, decimal.NewFromInt(400).Equal(result.TotalAmount), "got %s", result.TotalAmount)

	assert.Equal(t, model.PayslipStatusPaid, updated[0].Status)
	assert.Equal(t, model.PayslipStatusIssued, updated[1].Status)
	assert.Equal(t, model.PayslipStatusPaid, updated[2].Status)
	assert.NotNil(t, updated[0].PaidAt)
	assert.Nil(t, updated[1].PaidAt)

	assert.False(t, result.Outcomes[1].Paid)
	assert.Contains(t, result.Outcomes[1].Reason, "declined")
}

func TestSettleBatch_RerunAfterFix(t *testing.T) {
	items := []model.PayslipLineItem{
		payslip(1, 100, model.PayslipStatusIssued),
		payslip(2, 200, model.PayslipStatusIssued),
		payslip(3, 300, model.PayslipStatusIssued),
	}

	firstRun, _ := SettleBatch(context.Background(), items, failIDs(2), Options{})

	// gateway fixed, re-run the same batch
	updated, result := SettleBatch(context.Background(), firstRun, ProcessorFunc(alwaysOK), Options{})

	assert.Equal(t, 3, result.TotalProcessed)
	assert.Equal(t, 3, result.SuccessCount)
	assert.Equal(t, 0, result.FailedCount)
	assert.Equal(t, 2, result.SkippedCount)
	// only the previously failed item moves money on the second run
	assert.True(t, decimal.NewFromInt(200).Equal(result.TotalAmount), "got %s", result.TotalAmount)

	for _, item := range updated {
		assert.Equal(t, model.PayslipStatusPaid, item.Status)
	}
	assert.True(t, result.Outcomes[0].Skipped)
	assert.True(t, result.Outcomes[2].Skipped)
	assert.True(t, result.Outcomes[1].Paid)
}

func TestSettleBatch_IdempotentRerun(t *testing.T) {
	items := []model.PayslipLineItem{
		payslip(1, 100, model.PayslipStatusIssued),
		payslip(2, 200, model.PayslipStatusIssued),
		payslip(3, 300, model.PayslipStatusIssued),
	}

	firstItems, firstResult := SettleBatch(context.Background(), items, failIDs(2), Options{})

	// same failing gateway, settle the same batch again
	calls := 0
	counting := ProcessorFunc(func(ctx context.Context, item model.PayslipLineItem) error {
		calls++
		return failIDs(2)(ctx, item)
	})
	_, secondResult := SettleBatch(context.Background(), firstItems, counting, Options{})

	// paid items are never re-submitted to the processor
	assert.Equal(t, 1, calls)
	assert.Equal(t, firstResult.SuccessCount, secondResult.SuccessCount)
	assert.True(t, secondResult.TotalAmount.IsZero(), "no additional money may move")
}

func TestSettleBatch_PartitionLaw(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	statuses := []model.PayslipStatus{
		model.PayslipStatusDraft, model.PayslipStatusIssued, model.PayslipStatusPaid,
	}

	for run := 0; run < 20; run++ {
		n := rng.Intn(12)
		items := make([]model.PayslipLineItem, 0, n)
		for i := 0; i < n; i++ {
			items = append(items, payslip(uint(i+1), int64(rng.Intn(500)), statuses[rng.Intn(len(statuses))]))
		}
		flaky := ProcessorFunc(func(_ context.Context, item model.PayslipLineItem) error {
			if item.ID%3 == 0 {
				return errors.New("declined")
			}
			return nil
		})

		_, result := SettleBatch(context.Background(), items, flaky, Options{Workers: 3})

		assert.Equal(t, result.TotalProcessed, result.SuccessCount+result.FailedCount)
		assert.Len(t, result.Outcomes, n, "every submitted item gets exactly one outcome")
	}
}

func TestSettleBatch_OrderIndependentAggregate(t *testing.T) {
	base := []model.PayslipLineItem{
		payslip(1, 100, model.PayslipStatusIssued),
		payslip(2, 200, model.PayslipStatusIssued),
		payslip(3, 300, model.PayslipStatusPaid),
		payslip(4, 400, model.PayslipStatusIssued),
	}
	proc := failIDs(4)

	_, want := SettleBatch(context.Background(), base, proc, Options{})

	perm := []model.PayslipLineItem{base[2], base[0], base[3], base[1]}
	_, got := SettleBatch(context.Background(), perm, proc, Options{})

	assert.Equal(t, want.SuccessCount, got.SuccessCount)
	assert.Equal(t, want.FailedCount, got.FailedCount)
	assert.True(t, want.TotalAmount.Equal(got.TotalAmount))
}

func TestSettleBatch_ConcurrentDeterministic(t *testing.T) {
	items := make([]model.PayslipLineItem, 0, 40)
	for i := 1; i <= 40; i++ {
		items = append(items, payslip(uint(i), int64(i*10), model.PayslipStatusIssued))
	}
	// jittered processor so completion order varies between runs
	jittery := ProcessorFunc(func(_ context.Context, item model.PayslipLineItem) error {
		time.Sleep(time.Duration(item.ID%5) * time.Millisecond)
		if item.ID%7 == 0 {
			return errors.New("declined")
		}
		return nil
	})

	_, sequential := SettleBatch(context.Background(), items, jittery, Options{Workers: 1})
	_, concurrent := SettleBatch(context.Background(), items, jittery, Options{Workers: 8})

	assert.Equal(t, sequential.SuccessCount, concurrent.SuccessCount)
	assert.Equal(t, sequential.FailedCount, concurrent.FailedCount)
	assert.True(t, sequential.TotalAmount.Equal(concurrent.TotalAmount))
	assert.Equal(t, sequential.Outcomes, concurrent.Outcomes)
}

func TestSettleBatch_ProcessorCalledOncePerPayableItem(t *testing.T) {
	items := []model.PayslipLineItem{
		payslip(1, 100, model.PayslipStatusDraft),
		payslip(2, 200, model.PayslipStatusPaid),
		payslip(3, 300, model.PayslipStatusIssued),
	}

	var mu sync.Mutex
	calls := map[uint]int{}
	counting := ProcessorFunc(func(_ context.Context, item model.PayslipLineItem) error {
		mu.Lock()
		calls[item.ID]++
		mu.Unlock()
		return nil
	})

	_, result := SettleBatch(context.Background(), items, counting, Options{Workers: 4})

	assert.Equal(t, map[uint]int{1: 1, 3: 1}, calls)
	assert.Equal(t, 3, result.SuccessCount)
	assert.Equal(t, 1, result.SkippedCount)
	assert.True(t, decimal.NewFromInt(400).Equal(result.TotalAmount))
}

func TestSettleBatch_DuplicateItemPaidOnce(t *testing.T) {
	item := payslip(1, 100, model.PayslipStatusIssued)

	var mu sync.Mutex
	calls := 0
	counting := ProcessorFunc(func(_ context.Context, _ model.PayslipLineItem) error {
		mu.Lock()
		calls++
		mu.Unlock()
		return nil
	})

	updated, result := SettleBatch(context.Background(), []model.PayslipLineItem{item, item}, counting, Options{Workers: 4})

	assert.Equal(t, 1, calls, "one item submitted twice gets one payment")
	assert.Equal(t, 2, result.TotalProcessed)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 0, result.FailedCount)
	assert.Equal(t, 1, result.SkippedCount)
	assert.True(t, decimal.NewFromInt(100).Equal(result.TotalAmount), "got %s", result.TotalAmount)

	assert.True(t, result.Outcomes[0].Paid)
	assert.False(t, result.Outcomes[1].Paid)
	assert.True(t, result.Outcomes[1].Skipped)
	assert.Equal(t, model.PayslipStatusPaid, updated[0].Status)
}

func TestSettleBatch_Timeout(t *testing.T) {
	items := []model.PayslipLineItem{
		payslip(1, 100, model.PayslipStatusIssued),
		payslip(2, 200, model.PayslipStatusIssued),
	}
	slowSecond := ProcessorFunc(func(ctx context.Context, item model.PayslipLineItem) error {
		if item.ID == 2 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(5 * time.Second):
				return nil
			}
		}
		return nil
	})

	start := time.Now()
	updated, result := SettleBatch(context.Background(), items, slowSecond, Options{ItemTimeout: 50 * time.Millisecond})

	assert.Less(t, time.Since(start), 2*time.Second, "a slow item must not hang the batch")
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 1, result.FailedCount)
	assert.Equal(t, "payment timed out", result.Outcomes[1].Reason)
	assert.Equal(t, model.PayslipStatusIssued, updated[1].Status)
}

func TestSettleBatch_Cancellation(t *testing.T) {
	items := []model.PayslipLineItem{
		payslip(1, 100, model.PayslipStatusIssued),
		payslip(2, 200, model.PayslipStatusIssued),
		payslip(3, 300, model.PayslipStatusIssued),
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancelAfterFirst := ProcessorFunc(func(_ context.Context, item model.PayslipLineItem) error {
		cancel()
		return nil
	})

	updated, result := SettleBatch(ctx, items, cancelAfterFirst, Options{Workers: 1})

	assert.Equal(t, 3, result.TotalProcessed)
	assert.Equal(t, result.TotalProcessed, result.SuccessCount+result.FailedCount)
	// the settled item stays paid, the rest can be re-run safely
	assert.Equal(t, model.PayslipStatusPaid, updated[0].Status)
	assert.Equal(t, model.PayslipStatusIssued, updated[1].Status)
	assert.Equal(t, model.PayslipStatusIssued, updated[2].Status)
	assert.Equal(t, "batch cancelled", result.Outcomes[1].Reason)
	assert.Equal(t, "batch cancelled", result.Outcomes[2].Reason)

	// resumed batch settles the remainder
	_, resumed := SettleBatch(context.Background(), updated, ProcessorFunc(alwaysOK), Options{})
	assert.Equal(t, 3, resumed.SuccessCount)
	assert.True(t, decimal.NewFromInt(500).Equal(resumed.TotalAmount))
}

func TestSettleBatch_InputNotMutated(t *testing.T) {
	items := []model.PayslipLineItem{payslip(1, 100, model.PayslipStatusIssued)}

	updated, _ := SettleBatch(context.Background(), items, ProcessorFunc(alwaysOK), Options{})

	assert.Equal(t, model.PayslipStatusIssued, items[0].Status)
	assert.Equal(t, model.PayslipStatusPaid, updated[0].Status)
}
