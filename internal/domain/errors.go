package domain

import (
	"errors"
	"fmt"
)

// Taxonomía de errores del pipeline. Cada tipo lleva su propio contexto y
// declara si el caller puede reintentar. Los errores recuperables se
// resuelven dentro de cada etapa (fallback, degradación); solo los
// irrecuperables llegan al orquestador.

// DataUnavailableError: ninguna fuente pudo entregar datos. Recuperable
// con acción del caller (p.ej. generar el export del día).
type DataUnavailableError struct {
	Source string // fuente esperada, ej. ruta del export
	Hint   string // acción correctiva
}

func (e *DataUnavailableError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("no race data available from %s — %s", e.Source, e.Hint)
	}
	return fmt.Sprintf("no race data available from %s", e.Source)
}

// VenueNotFoundError: el venue pedido no existe tras normalizar el nombre.
// Error del caller, no del sistema.
type VenueNotFoundError struct {
	Venue string
}

func (e *VenueNotFoundError) Error() string {
	return fmt.Sprintf("venue not found: %q", e.Venue)
}

// NoCompetitorsError: el fetch funcionó pero el campo está vacío.
// Fallo de negocio, no de sistema.
type NoCompetitorsError struct {
	Course string
	Time   string
}

func (e *NoCompetitorsError) Error() string {
	return fmt.Sprintf("no competitors in field for %s %s", e.Course, e.Time)
}

// QuotaExceededError: límite diario de inferencia agotado. Terminal hasta
// el cambio de día — no reintentar automáticamente.
type QuotaExceededError struct {
	DailyCap int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("daily inference quota reached (%d requests), resets at midnight", e.DailyCap)
}

// SchemaViolationError: la respuesta de extracción no cumple el schema.
// Dispara el fallback batch→singular; solo es fatal para un competidor si
// su llamada singular también falla.
type SchemaViolationError struct {
	Detail string
}

func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("extraction response violates schema: %s", e.Detail)
}

// TransportTimeoutError: un provider no respondió a tiempo. Dispara el
// fallback al siguiente provider; terminal solo si se agotan todos.
type TransportTimeoutError struct {
	Provider string
	Err      error
}

func (e *TransportTimeoutError) Error() string {
	return fmt.Sprintf("provider %s timed out: %v", e.Provider, e.Err)
}

func (e *TransportTimeoutError) Unwrap() error { return e.Err }

// Retryable devuelve true si el caller puede reintentar la operación tal
// cual. Los errores de quota y de input no lo son; los transitorios sí.
func Retryable(err error) bool {
	var quota *QuotaExceededError
	var venue *VenueNotFoundError
	var empty *NoCompetitorsError
	switch {
	case errors.As(err, &quota), errors.As(err, &venue), errors.As(err, &empty):
		return false
	}
	return true
}
