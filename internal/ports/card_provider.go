package ports

import (
	"context"

	"github.com/alejandrodnm/racebot/internal/domain"
)

// CardProvider entrega race cards desde una fuente estructurada (el export
// diario). Implementaciones cachean por fecha; el refresh de una fecha no
// bloquea lecturas de otra.
type CardProvider interface {
	// Courses devuelve los venues con carreras en la fecha/región dada,
	// ordenados alfabéticamente. Falla con DataUnavailable si no hay
	// export para la fecha — nunca devuelve vacío con éxito.
	Courses(ctx context.Context, date, region string) ([]string, error)

	// RaceSlots devuelve las carreras de un venue ordenadas por hora.
	// Venue no encontrado tras normalizar → VenueNotFound.
	RaceSlots(ctx context.Context, course, date, region string) ([]domain.SlotSummary, error)

	// RaceCard devuelve la carrera completa con su campo.
	RaceCard(ctx context.Context, course, time, date, region string) (domain.RaceCard, error)
}
