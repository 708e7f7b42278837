package numerator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corenumerator "inventra/internal/core/numerator"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockQuerier simulates sys_sequences: one counter per key.
type mockQuerier struct {
	mu       sync.Mutex
	counters map[string]int64
	err      error
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return &mockRow{err: m.err}
	}
	if m.counters == nil {
		m.counters = make(map[string]int64)
	}

	key := args[0].(string)
	if len(args) == 2 {
		m.counters[key] = args[1].(int64)
	} else {
		m.counters[key]++
	}
	return &mockRow{val: m.counters[key]}
}

func newService(q *mockQuerier) *Service {
	return New(func(context.Context) Querier { return q })
}

func TestNextNumber_DailyReceipts(t *testing.T) {
	q := &mockQuerier{}
	svc := newService(q)
	ctx := context.Background()
	cfg := corenumerator.ReceiptConfig()
	day := time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC)

	first, err := svc.NextNumber(ctx, cfg, day)
	require.NoError(t, err)
	assert.Equal(t, "RCP2610190001", first)

	second, err := svc.NextNumber(ctx, cfg, day)
	require.NoError(t, err)
	assert.Equal(t, "RCP2610190002", second)

	nextDay, err := svc.NextNumber(ctx, cfg, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, "RCP2610200001", nextDay)

	assert.Equal(t, int64(2), q.counters["RCP_20261019"])
}

func TestSetNextNumber(t *testing.T) {
	q := &mockQuerier{}
	svc := newService(q)
	ctx := context.Background()
	cfg := corenumerator.ReceiptConfig()
	day := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

	require.NoError(t, svc.SetNextNumber(ctx, cfg, day, 41))

	num, err := svc.NextNumber(ctx, cfg, day)
	require.NoError(t, err)
	assert.Equal(t, "RCP2610190042", num)
}

func TestNextNumber_Error(t *testing.T) {
	q := &mockQuerier{err: errors.New("connection refused")}
	svc := newService(q)

	_, err := svc.NextNumber(context.Background(), corenumerator.ReceiptConfig(), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RCP_")
}

func TestNextNumber_Concurrent(t *testing.T) {
	q := &mockQuerier{}
	svc := newService(q)
	cfg := corenumerator.ReceiptConfig()
	day := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[string]bool)
	)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			num, err := svc.NextNumber(context.Background(), cfg, day)
			assert.NoError(t, err)
			mu.Lock()
			seen[num] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 50)
}
