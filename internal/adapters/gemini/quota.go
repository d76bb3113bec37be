package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alejandrodnm/racebot/internal/domain"
	"github.com/alejandrodnm/racebot/internal/ports"
)

const (
	// waitBuffer se suma a la espera para no re-chocar con el límite justo
	// al salir la entrada más vieja de la ventana.
	waitBuffer = 100 * time.Millisecond

	// maxWaitRounds acota el loop de espera. La ventana drena
	// monotónicamente, así que en la práctica bastan 1-2 vueltas; el bound
	// existe para que un bug de reloj no cuelgue al caller para siempre.
	maxWaitRounds = 60
)

// QuotaLimiter implementa los dos límites del tier gratuito: ventana
// deslizante por minuto y contador diario con rollover a medianoche.
//
// Es estado compartido de proceso: todos los análisis concurrentes pasan
// por la misma instancia, y el check+registro de cada llamada es atómico
// respecto al mutex — dos callers no pueden colarse por el mismo slot.
type QuotaLimiter struct {
	perMinute int
	perDay    int

	now   func() time.Time                                  // inyectable en tests
	sleep func(ctx context.Context, d time.Duration) error // inyectable en tests

	mu         sync.Mutex
	window     []time.Time // timestamps de llamadas en el último minuto
	dailyCount int
	day        string // fecha (YYYY-MM-DD) del contador diario
}

// NewQuotaLimiter crea un limiter con los caps dados.
// Valores <= 0 usan los límites del free tier de Flash (15/min, 1000/día).
func NewQuotaLimiter(perMinute, perDay int) *QuotaLimiter {
	if perMinute <= 0 {
		perMinute = 15
	}
	if perDay <= 0 {
		perDay = 1000
	}
	return &QuotaLimiter{
		perMinute: perMinute,
		perDay:    perDay,
		now:       time.Now,
		sleep:     sleepCtx,
	}
}

// Acquire reserva un slot de llamada, esperando si la ventana por minuto
// está llena. Loop explícito, no recursión: cada vuelta re-evalúa el
// rollover diario y la ventana podada.
//
// Devuelve QuotaExceeded (no retryable) si el cap diario está agotado.
// Ninguna petición aceptada se pierde: al salir con nil ya quedó contada
// en ambos contadores.
func (q *QuotaLimiter) Acquire(ctx context.Context) error {
	for round := 0; round < maxWaitRounds; round++ {
		wait, err := q.tryAcquire()
		if err != nil {
			return err
		}
		if wait <= 0 {
			return nil
		}

		slog.Debug("per-minute quota reached, waiting", "wait", wait.Round(time.Millisecond))
		if err := q.sleep(ctx, wait); err != nil {
			return fmt.Errorf("gemini.Acquire: %w", err)
		}
	}
	return fmt.Errorf("gemini.Acquire: window did not drain after %d rounds", maxWaitRounds)
}

// tryAcquire ejecuta un paso atómico del estado: rollover → cap diario →
// poda de ventana → o registra la llamada, o devuelve cuánto esperar.
func (q *QuotaLimiter) tryAcquire() (time.Duration, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()

	// 1. Rollover del contador diario si cambió el día
	today := now.Format("2006-01-02")
	if today != q.day {
		q.day = today
		q.dailyCount = 0
	}

	// 2. Cap diario: terminal hasta mañana
	if q.dailyCount >= q.perDay {
		return 0, &domain.QuotaExceededError{DailyCap: q.perDay}
	}

	// 3. Podar la ventana a los últimos 60s
	cutoff := now.Add(-time.Minute)
	kept := q.window[:0]
	for _, t := range q.window {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	q.window = kept

	// 4. Ventana llena: esperar hasta que la entrada más vieja salga
	if len(q.window) >= q.perMinute {
		oldest := q.window[0]
		return time.Minute - now.Sub(oldest) + waitBuffer, nil
	}

	// 5. Registrar la llamada en ambos contadores
	q.window = append(q.window, now)
	q.dailyCount++

	slog.Debug("inference call accepted",
		"daily", fmt.Sprintf("%d/%d", q.dailyCount, q.perDay),
		"last_minute", len(q.window),
	)
	return 0, nil
}

// Usage devuelve los contadores actuales. Lectura pura: no consume quota,
// pero sí aplica el rollover para no reportar el contador de ayer.
func (q *QuotaLimiter) Usage() ports.Usage {
	q.mu.Lock()
	defer q.mu.Unlock()

	if today := q.now().Format("2006-01-02"); today != q.day {
		q.day = today
		q.dailyCount = 0
	}

	remaining := q.perDay - q.dailyCount
	if remaining < 0 {
		remaining = 0
	}
	return ports.Usage{
		DailyCount:  q.dailyCount,
		DailyCap:    q.perDay,
		Remaining:   remaining,
		PercentUsed: float64(q.dailyCount) / float64(q.perDay) * 100,
	}
}

// sleepCtx espera la duración dada respetando la cancelación del contexto.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
