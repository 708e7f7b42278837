package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListFilter_Normalize(t *testing.T) {
	assert.Equal(t, ListFilter{Limit: DefaultLimit}, ListFilter{}.Normalize())
	assert.Equal(t, ListFilter{Limit: MaxLimit, Offset: 0}, ListFilter{Limit: 10_000, Offset: -3}.Normalize())
}

func TestPage(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	res := Page(items, ListFilter{Limit: 2, Offset: 1})
	assert.Equal(t, []int{2, 3}, res.Items)
	assert.Equal(t, int64(5), res.TotalCount)

	res = Page(items, ListFilter{Limit: 2, Offset: 4})
	assert.Equal(t, []int{5}, res.Items)

	res = Page(items, ListFilter{Limit: 2, Offset: 9})
	assert.Empty(t, res.Items)
}

func TestHookRegistry_StopsAtFirstError(t *testing.T) {
	r := NewHookRegistry[string]()
	var calls []string
	stop := errors.New("stop")

	r.On(BeforeDelete, func(ctx context.Context, s string) error {
		calls = append(calls, "first:"+s)
		return stop
	})
	r.On(BeforeDelete, func(ctx context.Context, s string) error {
		calls = append(calls, "second")
		return nil
	})

	err := r.Run(context.Background(), BeforeDelete, "x")
	require.ErrorIs(t, err, stop)
	assert.Equal(t, []string{"first:x"}, calls)
	assert.NoError(t, r.Run(context.Background(), BeforeCreate, "x"))
}
