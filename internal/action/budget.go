package action

import (
	"context"
	"time"

	"github.com/spacedriveapp/sdcore/internal/errs"
)

// DefaultTimeBudget resolves spec §9's Open Question on synchronous actions
// vs. jobs: a handler whose worst case can exceed this budget should return
// a JobReceipt and let the caller track progress over the event bus, rather
// than block the RPC connection.
const DefaultTimeBudget = 250 * time.Millisecond

// JobReceipt is the output a long-running CoreAction/LibraryAction returns
// instead of a real result: the Registry rewrites it into a
// wire.JobReceiptOutput, and progress from then on arrives as
// eventbus.KindJobProgress/KindJobCompleted events rather than a second
// response on this call.
type JobReceipt struct {
	JobID string
}

// WithinBudget runs fn with budget as its deadline, for a handler that is
// normally well inside budget but wants the deadline actually enforced
// rather than assumed. A handler whose worst case can legitimately exceed
// budget should return a JobReceipt instead of reaching for this.
func WithinBudget(ctx context.Context, budget time.Duration, fn func(ctx context.Context) (any, error)) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	type result struct {
		out any
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := fn(ctx)
		done <- result{out, err}
	}()

	select {
	case r := <-done:
		return r.out, r.err
	case <-ctx.Done():
		return nil, errs.Internal(ctx.Err(), "action: deadline exceeded")
	}
}
