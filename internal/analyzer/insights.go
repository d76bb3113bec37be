package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alejandrodnm/racebot/internal/domain"
	"github.com/alejandrodnm/racebot/internal/ports"
)

// Narrator genera la narrativa de una carrera ya puntuada. La narrativa
// es decorativa: si la generación falla por quota o por el backend, se
// degrada a un resumen determinista en lugar de tumbar el análisis.
type Narrator struct {
	inference ports.Inference
}

func NewNarrator(inference ports.Inference) *Narrator {
	return &Narrator{inference: inference}
}

// RaceInsights produce la narrativa para el top 3 del ranking.
func (n *Narrator) RaceInsights(ctx context.Context, card domain.RaceCard, ranked []domain.CompetitorAnalysis) (string, error) {
	if n == nil || n.inference == nil {
		return fallbackInsights(ranked), nil
	}

	text, err := n.inference.GenerateText(ctx, insightsPrompt(card, ranked))
	if err != nil {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		slog.Warn("insights generation failed, using deterministic summary", "error", err)
		return fallbackInsights(ranked), nil
	}
	return strings.TrimSpace(text), nil
}

// insightsPrompt ancla la narrativa a los scores ya calculados: el modelo
// comenta el ranking, no lo decide.
func insightsPrompt(card domain.RaceCard, ranked []domain.CompetitorAnalysis) string {
	var sb strings.Builder
	sb.WriteString("You are a racing analyst writing a short preview. The ranking below is final; do not reorder it.\n\n")
	fmt.Fprintf(&sb, "Race: %s at %s, %s %s, distance %s.\n\n",
		card.Slot.Name, card.Slot.Course.Name, card.Slot.Date, card.Slot.Time, card.Slot.Distance)
	sb.WriteString("Top contenders by composite score:\n")
	for i, a := range top3(ranked) {
		fmt.Fprintf(&sb, "%d. %s (post %d, jockey %s) — composite %.1f, speed %.1f, form %.1f, confidence %.0f%%\n",
			i+1, a.Entry.Name, a.Entry.Position, a.Entry.Jockey,
			a.Scores.Composite, a.Scores.Speed, a.Scores.Form, a.Confidence*100)
	}
	sb.WriteString("\nWrite 3-4 sentences: why the top pick leads, the main danger, and one caveat. Plain prose, no markdown.\n")
	return sb.String()
}

// fallbackInsights arma un resumen plano desde los scores.
func fallbackInsights(ranked []domain.CompetitorAnalysis) string {
	if len(ranked) == 0 {
		return "No contenders were analyzed for this race."
	}

	var sb strings.Builder
	top := top3(ranked)
	fmt.Fprintf(&sb, "%s heads the ranking with a composite score of %.1f.",
		top[0].Entry.Name, top[0].Scores.Composite)
	if len(top) > 1 {
		fmt.Fprintf(&sb, " %s is the main danger at %.1f.", top[1].Entry.Name, top[1].Scores.Composite)
	}
	if len(top) > 2 {
		fmt.Fprintf(&sb, " %s completes the shortlist at %.1f.", top[2].Entry.Name, top[2].Scores.Composite)
	}
	return sb.String()
}

func top3(ranked []domain.CompetitorAnalysis) []domain.CompetitorAnalysis {
	if len(ranked) > 3 {
		return ranked[:3]
	}
	return ranked
}
