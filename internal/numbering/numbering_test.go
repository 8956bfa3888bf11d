package numbering

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySequencer struct {
	mu     sync.Mutex
	values map[string]int64
	err    error
}

func newMemorySequencer() *memorySequencer {
	return &memorySequencer{values: make(map[string]int64)}
}

func (m *memorySequencer) Increment(ctx context.Context, class Class, year, month int) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := fmt.Sprintf("%s:%d:%d", class, year, month)
	m.values[key]++
	return m.values[key], nil
}

func TestNextFormatsYearMonthSequence(t *testing.T) {
	svc := NewService(time.UTC)
	seq := newMemorySequencer()
	ctx := context.Background()
	asOf := time.Date(2025, 8, 4, 10, 0, 0, 0, time.UTC)

	first, err := svc.Next(ctx, seq, ClassSalesOrder, asOf)
	require.NoError(t, err)
	require.Equal(t, "2025.08.001", first)

	second, err := svc.Next(ctx, seq, ClassSalesOrder, asOf)
	require.NoError(t, err)
	require.Equal(t, "2025.08.002", second)
	require.True(t, Valid(second))
}

func TestNextCountsClassesIndependently(t *testing.T) {
	svc := NewService(time.UTC)
	seq := newMemorySequencer()
	ctx := context.Background()
	asOf := time.Date(2025, 8, 4, 10, 0, 0, 0, time.UTC)

	_, err := svc.Next(ctx, seq, ClassSalesOrder, asOf)
	require.NoError(t, err)
	q, err := svc.Next(ctx, seq, ClassQuotation, asOf)
	require.NoError(t, err)
	require.Equal(t, "2025.08.001", q)
}

func TestNextRestartsEveryMonth(t *testing.T) {
	svc := NewService(time.UTC)
	seq := newMemorySequencer()
	ctx := context.Background()

	_, err := svc.Next(ctx, seq, ClassPayment, time.Date(2025, 8, 31, 23, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	n, err := svc.Next(ctx, seq, ClassPayment, time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, "2025.09.001", n)
}

func TestNextUsesBusinessTimeZone(t *testing.T) {
	loc := time.FixedZone("WIB", 7*3600)
	svc := NewService(loc)
	seq := newMemorySequencer()

	// 18:00 UTC on the last day of July is already August in UTC+7.
	n, err := svc.Next(context.Background(), seq, ClassQuotation, time.Date(2025, 7, 31, 18, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, "2025.08.001", n)
}

func TestNextUniqueAndIncreasingUnderConcurrency(t *testing.T) {
	svc := NewService(time.UTC)
	seq := newMemorySequencer()
	ctx := context.Background()
	asOf := time.Date(2025, 8, 4, 10, 0, 0, 0, time.UTC)

	const workers = 50
	results := make(chan string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := svc.Next(ctx, seq, ClassSalesOrder, asOf)
			assert.NoError(t, err)
			results <- n
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[string]bool)
	for n := range results {
		require.False(t, seen[n], "duplicate number %s", n)
		seen[n] = true
	}
	require.Len(t, seen, workers)
	require.True(t, seen["2025.08.050"])
}

func TestNextFailsWhenSequenceExhausted(t *testing.T) {
	svc := NewService(time.UTC)
	seq := newMemorySequencer()
	seq.values["quotation:2025:8"] = MaxSequence

	_, err := svc.Next(context.Background(), seq, ClassQuotation, time.Date(2025, 8, 4, 0, 0, 0, 0, time.UTC))
	require.ErrorIs(t, err, ErrSequenceExhausted)
}

func TestNextPropagatesStorageErrors(t *testing.T) {
	svc := NewService(time.UTC)
	seq := newMemorySequencer()
	seq.err = errors.New("connection reset")

	_, err := svc.Next(context.Background(), seq, ClassQuotation, time.Now())
	require.ErrorContains(t, err, "connection reset")
}

func TestParse(t *testing.T) {
	year, month, seq, err := Parse("2025.08.017")
	require.NoError(t, err)
	require.Equal(t, 2025, year)
	require.Equal(t, 8, month)
	require.EqualValues(t, 17, seq)

	for _, bad := range []string{"2025.8.017", "2025-08-017", "2025.08.0017", "2025.13.001", ""} {
		_, _, _, err := Parse(bad)
		require.Error(t, err, bad)
	}
}
