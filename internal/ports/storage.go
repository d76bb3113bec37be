package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/racebot/internal/domain"
)

// Storage persiste los análisis completados para inspección posterior.
type Storage interface {
	// SaveResult persiste el resumen del run y su ranking.
	SaveResult(ctx context.Context, result domain.AnalysisResult) error

	// GetHistory devuelve los runs registrados en el rango de tiempo dado,
	// los más recientes primero.
	GetHistory(ctx context.Context, from, to time.Time) ([]domain.AnalysisResult, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
