package analyzer

import "github.com/alejandrodnm/racebot/internal/domain"

// DTOs de la respuesta de extracción. Espejo del schema de abajo: los
// opcionales son punteros para que null de la fuente no se convierta en 0.

type statsDTO struct {
	Name    string        `json:"name"`
	Speed   speedDTO      `json:"speed"`
	Form    formDTO       `json:"form"`
	Jockey  connectionDTO `json:"jockey"`
	Trainer connectionDTO `json:"trainer"`
}

type speedDTO struct {
	BestFigure     *float64  `json:"bestFigure"`
	BestAtDistance *float64  `json:"bestAtDistance"`
	RecentFigures  []float64 `json:"recentFigures"`
}

type formDTO struct {
	LastRaces      []outcomeDTO `json:"lastRaces"`
	DaysSinceLast  *int         `json:"daysSinceLastRace"`
	RecentWorkouts []workoutDTO `json:"recentWorkouts"`
}

type outcomeDTO struct {
	Date     string  `json:"date"`
	Position int     `json:"position"`
	Margin   float64 `json:"margin"`
	Venue    string  `json:"venue"`
	Distance string  `json:"distance"`
}

type workoutDTO struct {
	Date        string  `json:"date"`
	Distance    string  `json:"distance"`
	TimeSeconds float64 `json:"timeSeconds"`
}

type connectionDTO struct {
	Name           string   `json:"name"`
	MeetWinPercent *float64 `json:"meetWinPercent"`
}

type batchDTO struct {
	Competitors []statsDTO `json:"competitors"`
}

// toDomain convierte el DTO preservando los nulls.
func (d statsDTO) toDomain() domain.ExtractedStats {
	stats := domain.ExtractedStats{
		Speed: domain.SpeedStats{
			BestFigure:     d.Speed.BestFigure,
			BestAtDistance: d.Speed.BestAtDistance,
			RecentFigures:  d.Speed.RecentFigures,
		},
		Form: domain.FormStats{
			DaysSinceLast: d.Form.DaysSinceLast,
		},
		Jockey:  domain.ConnectionStats{Name: d.Jockey.Name, MeetWinPercent: d.Jockey.MeetWinPercent},
		Trainer: domain.ConnectionStats{Name: d.Trainer.Name, MeetWinPercent: d.Trainer.MeetWinPercent},
	}
	for _, o := range d.Form.LastRaces {
		stats.Form.LastRaces = append(stats.Form.LastRaces, domain.RaceOutcome{
			Date:     o.Date,
			Position: o.Position,
			Margin:   o.Margin,
			Venue:    o.Venue,
			Distance: o.Distance,
		})
	}
	for _, w := range d.Form.RecentWorkouts {
		stats.Form.RecentWorkouts = append(stats.Form.RecentWorkouts, domain.Workout{
			Date:        w.Date,
			Distance:    w.Distance,
			TimeSeconds: w.TimeSeconds,
		})
	}
	return stats
}

// competitorSchema es el JSON Schema de las stats de un competidor.
// Sirve a la vez para forzar la salida del modelo y para validarla.
func competitorSchema() map[string]any {
	number := func() map[string]any { return map[string]any{"type": []any{"number", "null"}} }
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name": map[string]any{"type": "string"},
			"speed": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"bestFigure":     number(),
					"bestAtDistance": number(),
					"recentFigures": map[string]any{
						"type":  "array",
						"items": map[string]any{"type": "number"},
					},
				},
				"required": []any{"recentFigures"},
			},
			"form": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"lastRaces": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"date":     map[string]any{"type": "string"},
								"position": map[string]any{"type": "integer"},
								"margin":   map[string]any{"type": "number"},
								"venue":    map[string]any{"type": "string"},
								"distance": map[string]any{"type": "string"},
							},
							"required": []any{"position"},
						},
					},
					"daysSinceLastRace": map[string]any{"type": []any{"integer", "null"}},
					"recentWorkouts": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"date":        map[string]any{"type": "string"},
								"distance":    map[string]any{"type": "string"},
								"timeSeconds": map[string]any{"type": "number"},
							},
						},
					},
				},
				"required": []any{"lastRaces"},
			},
			"jockey":  connectionSchema(),
			"trainer": connectionSchema(),
		},
		"required": []any{"name", "speed", "form", "jockey", "trainer"},
	}
}

func connectionSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":           map[string]any{"type": "string"},
			"meetWinPercent": map[string]any{"type": []any{"number", "null"}},
		},
		"required": []any{"name"},
	}
}

// batchSchema envuelve el schema de competidor en la respuesta batched.
func batchSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"competitors": map[string]any{
				"type":  "array",
				"items": competitorSchema(),
			},
		},
		"required": []any{"competitors"},
	}
}
