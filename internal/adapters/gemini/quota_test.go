package gemini

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/racebot/internal/domain"
)

// fakeClock simula el paso del tiempo sin dormir de verdad. Los sleeps
// del limiter avanzan el reloj en lugar de bloquear.
type fakeClock struct {
	t      time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) sleep(_ context.Context, d time.Duration) error {
	c.sleeps = append(c.sleeps, d)
	c.t = c.t.Add(d)
	return nil
}

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(clock *fakeClock, perMinute, perDay int) *QuotaLimiter {
	q := NewQuotaLimiter(perMinute, perDay)
	q.now = clock.now
	q.sleep = clock.sleep
	return q
}

func TestAcquireWithinWindow(t *testing.T) {
	clock := newFakeClock()
	q := newTestLimiter(clock, 15, 1000)

	// --- 15 llamadas en el mismo segundo pasan sin esperar ---
	for i := 0; i < 15; i++ {
		require.NoError(t, q.Acquire(context.Background()))
	}
	assert.Empty(t, clock.sleeps)

	usage := q.Usage()
	assert.Equal(t, 15, usage.DailyCount)
	assert.Equal(t, 985, usage.Remaining)
}

func TestAcquireSixteenthCallWaits(t *testing.T) {
	clock := newFakeClock()
	q := newTestLimiter(clock, 15, 1000)

	for i := 0; i < 15; i++ {
		require.NoError(t, q.Acquire(context.Background()))
	}

	// --- la 16ª dentro del mismo minuto se suspende, no falla ---
	clock.advance(1 * time.Second)
	require.NoError(t, q.Acquire(context.Background()))

	require.Len(t, clock.sleeps, 1)
	// La entrada más vieja salió hace 1s: espera ~59s más el buffer.
	assert.Equal(t, 59*time.Second+waitBuffer, clock.sleeps[0])

	// La llamada quedó registrada tras la espera.
	assert.Equal(t, 16, q.Usage().DailyCount)
}

func TestAcquireNoWaitAfterWindowDrains(t *testing.T) {
	clock := newFakeClock()
	q := newTestLimiter(clock, 15, 1000)

	for i := 0; i < 15; i++ {
		require.NoError(t, q.Acquire(context.Background()))
	}

	// --- pasado el minuto no hay espera ---
	clock.advance(61 * time.Second)
	require.NoError(t, q.Acquire(context.Background()))
	assert.Empty(t, clock.sleeps)
}

func TestAcquireDailyCapExhausted(t *testing.T) {
	clock := newFakeClock()
	q := newTestLimiter(clock, 15, 30)

	// Agotar el cap diario espaciando para no tocar la ventana.
	for i := 0; i < 30; i++ {
		require.NoError(t, q.Acquire(context.Background()))
		clock.advance(5 * time.Second)
	}

	err := q.Acquire(context.Background())
	require.Error(t, err)

	var quotaErr *domain.QuotaExceededError
	require.ErrorAs(t, err, &quotaErr)
	assert.Equal(t, 30, quotaErr.DailyCap)
	assert.False(t, domain.Retryable(err))
}

func TestDailyCounterRollsOverAtMidnight(t *testing.T) {
	clock := newFakeClock()
	q := newTestLimiter(clock, 15, 30)

	for i := 0; i < 30; i++ {
		require.NoError(t, q.Acquire(context.Background()))
		clock.advance(5 * time.Second)
	}
	require.Error(t, q.Acquire(context.Background()))

	// --- al cruzar medianoche el contador diario se resetea ---
	clock.advance(24 * time.Hour)
	require.NoError(t, q.Acquire(context.Background()))
	assert.Equal(t, 1, q.Usage().DailyCount)
}

func TestUsageIsPureRead(t *testing.T) {
	clock := newFakeClock()
	q := newTestLimiter(clock, 15, 1000)

	require.NoError(t, q.Acquire(context.Background()))
	before := q.Usage()
	after := q.Usage()

	assert.Equal(t, before, after)
	assert.Equal(t, 1, after.DailyCount)
	assert.InDelta(t, 0.1, after.PercentUsed, 0.001)
}

func TestAcquireConcurrentCallersDontOverschedule(t *testing.T) {
	// 20 goroutines compiten por 5 slots de ventana: el check+registro es
	// atómico, así que exactamente 5 pasan sin esperar. Las demás verían
	// una espera; aquí el sleep falla para contarlas en vez de bloquear.
	errWouldWait := errors.New("would wait")
	fixed := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	q := NewQuotaLimiter(5, 1000)
	q.now = func() time.Time { return fixed }
	q.sleep = func(context.Context, time.Duration) error { return errWouldWait }

	var wg sync.WaitGroup
	var admitted, waited atomic.Int64
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := q.Acquire(context.Background())
			switch {
			case err == nil:
				admitted.Add(1)
			case errors.Is(err, errWouldWait):
				waited.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(5), admitted.Load())
	assert.Equal(t, int64(15), waited.Load())
	assert.Equal(t, 5, q.Usage().DailyCount)
}

func TestAcquireRespectsContextCancellation(t *testing.T) {
	clock := newFakeClock()
	q := newTestLimiter(clock, 15, 1000)
	q.sleep = func(ctx context.Context, _ time.Duration) error {
		return context.Canceled
	}

	for i := 0; i < 15; i++ {
		require.NoError(t, q.Acquire(context.Background()))
	}

	err := q.Acquire(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
