package conformance

import (
	"context"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/checkflow/checkflow/internal/model"
	"github.com/checkflow/checkflow/pkg/errors"
)

func buildLog(n int) model.Log {
	variants := [][]string{
		{"OrderCreated", "DeliveryCreated", "GoodsIssued", "InvoiceCreated"},
		{"DeliveryCreated", "GoodsIssued", "InvoiceCreated"},
		{"OrderCreated", "DeliveryCreated", "DeliveryCreated", "GoodsIssued", "InvoiceCreated"},
		{"OrderCreated", "GoodsIssued", "InvoiceCreated"},
	}
	log := make(model.Log, 0, n)
	for i := 0; i < n; i++ {
		log = append(log, model.Case{
			ID:     string(rune('a'+i%26)) + "-" + string(rune('0'+i%10)),
			Events: trace(variants[i%len(variants)]...),
		})
	}
	return log
}

func TestCheckLogConcurrent_MatchesSequential(t *testing.T) {
	c := NewChecker(linearModel(t))
	log := buildLog(40)

	want := c.CheckLog(log)

	for _, workers := range []int{1, 2, 8} {
		got, err := c.CheckLogConcurrent(context.Background(), log, ConcurrentOptions{Workers: workers})
		if err != nil {
			t.Fatalf("workers=%d: %v", workers, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("workers=%d: concurrent result differs from sequential", workers)
		}
	}
}

func TestCheckLogConcurrent_Progress(t *testing.T) {
	c := NewChecker(linearModel(t))
	log := buildLog(10)

	var calls int64
	var last int64
	_, err := c.CheckLogConcurrent(context.Background(), log, ConcurrentOptions{
		Workers: 4,
		Progress: func(done int64) {
			atomic.AddInt64(&calls, 1)
			atomic.StoreInt64(&last, done)
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := atomic.LoadInt64(&calls); got != 10 {
		t.Errorf("progress called %d times, want 10", got)
	}
}

func TestCheckLogConcurrent_SkipsEmptyCases(t *testing.T) {
	c := NewChecker(linearModel(t))

	log := model.Log{
		{ID: "c1", Events: trace("OrderCreated", "DeliveryCreated", "GoodsIssued", "InvoiceCreated")},
		{ID: "empty"},
	}

	res, err := c.CheckLogConcurrent(context.Background(), log, ConcurrentOptions{Workers: 2})
	if err != nil {
		t.Fatal(err)
	}
	if res.TotalCases != 1 || res.SkippedCases != 1 {
		t.Errorf("total=%d skipped=%d, want 1 and 1", res.TotalCases, res.SkippedCases)
	}
}

func TestCheckLogConcurrent_Canceled(t *testing.T) {
	c := NewChecker(linearModel(t))
	log := buildLog(100)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.CheckLogConcurrent(ctx, log, ConcurrentOptions{Workers: 2})
	if err == nil {
		t.Fatal("expected error from canceled context")
	}
	if !errors.IsCode(err, errors.CodeContextCanceled) {
		t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.CodeContextCanceled)
	}
}

func TestCheckLogConcurrent_EmptyLog(t *testing.T) {
	c := NewChecker(linearModel(t))

	res, err := c.CheckLogConcurrent(context.Background(), nil, ConcurrentOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if res.TotalCases != 0 {
		t.Errorf("TotalCases = %d, want 0", res.TotalCases)
	}
}
