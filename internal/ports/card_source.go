package ports

import (
	"context"

	"github.com/alejandrodnm/racebot/internal/domain"
)

// FetchStatus clasifica el resultado de un intento de fetch de un provider
// en vivo. Variante etiquetada: el chain decide con esto si sigue o corta.
type FetchStatus int

const (
	// FetchOK: el provider entregó datos reales.
	FetchOK FetchStatus = iota
	// FetchSkip: el provider no aplica a este venue (p.ej. venue US en la
	// fuente UK) — probar el siguiente sin contar como fallo.
	FetchSkip
	// FetchFailed: el provider aplicaba pero falló (timeout, parse).
	// Probar el siguiente.
	FetchFailed
)

// FetchResult es el resultado etiquetado de un intento de provider.
type FetchResult struct {
	Status FetchStatus
	Card   domain.RaceCard
	Err    error // causa cuando Status != FetchOK
}

// CardSource es un provider concreto de race cards en vivo.
type CardSource interface {
	// Name identifica al provider en logs y provenance.
	Name() string

	// Fetch intenta adquirir la carrera. No devuelve error: el resultado
	// etiquetado lleva el fallo para que el chain itere sin desempaquetar.
	Fetch(ctx context.Context, course, time, date string) FetchResult
}
