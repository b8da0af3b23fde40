package action

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacedriveapp/sdcore/internal/errs"
)

func TestWithinBudgetReturnsResultWhenFast(t *testing.T) {
	out, err := WithinBudget(context.Background(), DefaultTimeBudget, func(ctx context.Context) (any, error) {
		return "done", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "done", out)
}

func TestWithinBudgetReturnsInternalOnTimeout(t *testing.T) {
	_, err := WithinBudget(context.Background(), 5*time.Millisecond, func(ctx context.Context) (any, error) {
		<-ctx.Done()
		time.Sleep(20 * time.Millisecond)
		return nil, nil
	})
	require.Error(t, err)
	var e *errs.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errs.KindInternal, e.Kind)
}
