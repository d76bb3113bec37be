package ports

import "context"

// Usage es una lectura pura del estado de quota del cliente de inferencia.
type Usage struct {
	DailyCount  int
	DailyCap    int
	Remaining   int
	PercentUsed float64
}

// Inference envuelve el servicio externo de extracción/narrativa.
// Toda llamada pasa por el límite de quota (ventana por minuto + cap diario);
// el límite diario agotado se reporta como QuotaExceeded, no retryable.
type Inference interface {
	// GenerateJSON hace una llamada con salida estructurada y devuelve el
	// JSON crudo de la respuesta. El schema es un JSON Schema como
	// map[string]any; el adapter lo traduce a su formato nativo.
	GenerateJSON(ctx context.Context, prompt string, schema any) ([]byte, error)

	// GenerateText hace una llamada de texto libre (narrativa, grounding
	// con búsqueda si el backend lo soporta).
	GenerateText(ctx context.Context, prompt string) (string, error)

	// Usage devuelve los contadores actuales sin consumir quota.
	Usage() Usage
}
