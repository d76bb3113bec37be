package ports

import (
	"context"

	"github.com/alejandrodnm/racebot/internal/domain"
)

// Notifier presenta el resultado de un análisis al usuario.
type Notifier interface {
	// Notify muestra el ranking y la narrativa.
	// En la implementación de consola, imprime una tabla formateada.
	Notify(ctx context.Context, result domain.AnalysisResult) error
}
