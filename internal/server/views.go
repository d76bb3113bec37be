package server

import "github.com/alejandrodnm/racebot/internal/domain"

// Vistas JSON de los tipos del dominio. Separadas de los structs internos
// para que el wire format no dependa de cómo modelamos por dentro.

func slotsJSON(slots []domain.SlotSummary) []map[string]any {
	out := make([]map[string]any, 0, len(slots))
	for _, s := range slots {
		out = append(out, map[string]any{
			"time":       s.Time,
			"name":       s.Name,
			"raceNumber": s.RaceNumber,
		})
	}
	return out
}

func cardJSON(card domain.RaceCard) map[string]any {
	competitors := make([]map[string]any, 0, len(card.Competitors))
	for _, c := range card.Competitors {
		competitors = append(competitors, map[string]any{
			"position": c.Position,
			"name":     c.Name,
			"jockey":   c.Jockey,
			"trainer":  c.Trainer,
			"weight":   c.Weight,
			"odds":     c.Odds,
		})
	}
	return map[string]any{
		"course":      card.Slot.Course.Name,
		"date":        card.Slot.Date,
		"time":        card.Slot.Time,
		"name":        card.Slot.Name,
		"distance":    card.Slot.Distance,
		"source":      string(card.Source),
		"synthetic":   card.Source.IsSynthetic(),
		"competitors": competitors,
	}
}

func resultJSON(result domain.AnalysisResult) map[string]any {
	ranked := make([]map[string]any, 0, len(result.Ranked))
	for i, a := range result.Ranked {
		ranked = append(ranked, map[string]any{
			"rank":       i + 1,
			"name":       a.Entry.Name,
			"position":   a.Entry.Position,
			"jockey":     a.Entry.Jockey,
			"trainer":    a.Entry.Trainer,
			"odds":       a.Entry.Odds,
			"confidence": a.Confidence,
			"scores": map[string]any{
				"speed":     a.Scores.Speed,
				"form":      a.Scores.Form,
				"class":     a.Scores.Class,
				"pace":      a.Scores.Pace,
				"jockey":    a.Scores.Jockey,
				"trainer":   a.Scores.Trainer,
				"composite": a.Scores.Composite,
			},
		})
	}
	return map[string]any{
		"runId":      result.RunID,
		"course":     result.Course.Name,
		"date":       result.Slot.Date,
		"time":       result.Slot.Time,
		"raceName":   result.Slot.Name,
		"source":     string(result.Source),
		"synthetic":  result.Source.IsSynthetic(),
		"insights":   result.Insights,
		"analyzedAt": result.AnalyzedAt,
		"ranked":     ranked,
	}
}
