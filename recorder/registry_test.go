package recorder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_DispatchesSequentiallyInRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	var order []int

	r.On(EventStart, func(ctx context.Context, arg any) error {
		order = append(order, 1)
		return nil
	})
	r.On(EventStart, func(ctx context.Context, arg any) error {
		order = append(order, 2)
		return nil
	})

	require.NoError(t, r.Dispatch(context.Background(), EventStart, nil))
	require.Equal(t, []int{1, 2}, order)
}

func TestRegistry_OffDeregisters(t *testing.T) {
	r := NewRegistry()
	calls := 0
	h := r.On(EventStart, func(ctx context.Context, arg any) error {
		calls++
		return nil
	})

	r.Off(EventStart, h)
	require.NoError(t, r.Dispatch(context.Background(), EventStart, nil))
	require.Equal(t, 0, calls)
}

func TestRegistry_SnapshotExcludesRegistrationsDuringDispatch(t *testing.T) {
	r := NewRegistry()
	calls := 0

	r.On(EventStart, func(ctx context.Context, arg any) error {
		calls++
		r.On(EventStart, func(ctx context.Context, arg any) error {
			calls++
			return nil
		})
		return nil
	})

	require.NoError(t, r.Dispatch(context.Background(), EventStart, nil))
	require.Equal(t, 1, calls)

	// the callback registered mid-dispatch fires on the *next* dispatch
	require.NoError(t, r.Dispatch(context.Background(), EventStart, nil))
	require.Equal(t, 3, calls)
}
