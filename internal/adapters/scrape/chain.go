package scrape

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/racebot/internal/domain"
	"github.com/alejandrodnm/racebot/internal/ports"
)

// Chain recorre los providers en orden de prioridad y devuelve el primer
// card real. Cada intento produce un resultado etiquetado (ok | skip |
// failed); solo cuando todos los providers reales se agotan se acepta el
// sintético. El orden lo fija el constructor del caller, no el chain.
type Chain struct {
	sources []ports.CardSource
}

// NewChain crea un Chain con los providers dados, en orden de prioridad.
func NewChain(sources ...ports.CardSource) *Chain {
	return &Chain{sources: sources}
}

// DefaultChain es el orden de producción: Equibase (US, por tabla de
// códigos) → Racing Post (UK/IRE, por slug) → campo sintético.
func DefaultChain(client *Client) *Chain {
	return NewChain(
		NewEquibase(client, ""),
		NewRacingPost(client, ""),
		NewSynthetic(),
	)
}

// Fetch intenta los providers en orden. Nunca devuelve un card sin
// procedencia: si el resultado es sintético, su Source lo dice.
func (c *Chain) Fetch(ctx context.Context, course, raceTime, date string) (domain.RaceCard, error) {
	var lastErr error

	for _, source := range c.sources {
		result := source.Fetch(ctx, course, raceTime, date)
		switch result.Status {
		case ports.FetchOK:
			if result.Card.Source.IsSynthetic() {
				slog.Warn("all real providers failed, using synthetic field",
					"course", course, "time", raceTime, "last_err", lastErr)
			}
			return result.Card, nil
		case ports.FetchSkip:
			slog.Debug("provider does not apply", "provider", source.Name(), "course", course)
		case ports.FetchFailed:
			lastErr = result.Err
			slog.Warn("provider failed, trying next",
				"provider", source.Name(), "course", course, "err", result.Err)
		}
	}

	if lastErr != nil {
		return domain.RaceCard{}, fmt.Errorf("scrape.Chain: all providers exhausted: %w", lastErr)
	}
	return domain.RaceCard{}, fmt.Errorf("scrape.Chain: no provider could serve %q", course)
}
