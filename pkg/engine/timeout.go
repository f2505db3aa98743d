package engine

import (
	"context"
	"fmt"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"
)

// EvalTimeout is the default hard limit for a single evaluation.
const EvalTimeout = 5 * time.Second

// evalResult is the internal type used to pass evaluation results through channels.
type evalResult struct {
	value zygo.Sexp
	err   error
}

// waitWithTimeout waits for a result from ch, returning an error if the
// evaluation exceeds timeout or ctx is done first.
//
// On timeout the goroutine may still be running; ch is buffered so its
// eventual send never blocks and the result is dropped.
func waitWithTimeout(ctx context.Context, ch <-chan evalResult, timeout time.Duration) (zygo.Sexp, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		return res.value, res.err
	case <-timer.C:
		return nil, fmt.Errorf("evaluation timed out after %s", timeout)
	case <-ctx.Done():
		return nil, fmt.Errorf("evaluation cancelled: %w", ctx.Err())
	}
}
