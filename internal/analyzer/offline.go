package analyzer

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/alejandrodnm/racebot/internal/domain"
)

// OfflineExtractor deriva stats aproximadas de la form line del export,
// sin tocar ningún servicio externo. Es la ruta cuando no hay API key o
// cuando el operador fuerza el modo offline.
//
// La derivación es determinista: mismas entradas, mismas stats.
type OfflineExtractor struct{}

func NewOfflineExtractor() *OfflineExtractor { return &OfflineExtractor{} }

// ExtractAll deriva las stats de todo el campo. Nunca falla: un runner
// sin form line produce stats vacías y el scoring lo tratará como neutro.
func (o *OfflineExtractor) ExtractAll(_ context.Context, card domain.RaceCard) (map[string]domain.ExtractedStats, error) {
	out := make(map[string]domain.ExtractedStats, len(card.Competitors))
	for _, entry := range card.Competitors {
		out[entry.Name] = deriveStats(entry)
	}
	slog.Info("offline stats derivation finished", "field", len(card.Competitors))
	return out, nil
}

const (
	defaultBaseFigure  = 70.0
	figurePerPosition  = 5.0
	lengthsPerPosition = 2.5
)

// deriveStats aproxima las stats de un runner desde sus ratings y su
// form string. El rating (topspeed, si no RPR) hace de mejor figure y
// cada puesto perdido en una salida reciente descuenta figurePerPosition.
func deriveStats(entry domain.CompetitorEntry) domain.ExtractedStats {
	line := entry.Form

	base := parseRating(line.TopSpeed)
	if base == nil {
		base = parseRating(line.RacingPostRtg)
	}

	positions := parseFormPositions(line.Figures)

	stats := domain.ExtractedStats{
		Jockey:  domain.ConnectionStats{Name: entry.Jockey},
		Trainer: domain.ConnectionStats{Name: entry.Trainer, MeetWinPercent: parseRating(line.TrainerRTF)},
	}

	if days, err := strconv.Atoi(strings.TrimSpace(line.DaysSinceRun)); err == nil {
		stats.Form.DaysSinceLast = domain.IntPtr(days)
	}

	figBase := defaultBaseFigure
	if base != nil {
		figBase = *base
		stats.Speed.BestFigure = base
	}

	for _, pos := range positions {
		fig := math.Max(0, figBase-float64(pos-1)*figurePerPosition)
		stats.Speed.RecentFigures = append(stats.Speed.RecentFigures, fig)
		stats.Form.LastRaces = append(stats.Form.LastRaces, domain.RaceOutcome{
			Position: pos,
			Margin:   float64(pos-1) * lengthsPerPosition,
		})
	}
	return stats
}

// parseFormPositions lee un form string tipo "4-231" y devuelve hasta los
// 3 últimos puestos, el más reciente primero. En la notación el carácter
// más reciente es el último: '0' es décimo o peor y una letra (F, U, P,
// R) es una no-finalización, ambos contados como puesto 10.
func parseFormPositions(form string) []int {
	var all []int
	for _, r := range strings.TrimSpace(form) {
		switch {
		case r >= '1' && r <= '9':
			all = append(all, int(r-'0'))
		case r == '0':
			all = append(all, 10)
		case r == '-' || r == '/':
			// separadores de temporada
		default:
			all = append(all, 10)
		}
	}

	var recent []int
	for i := len(all) - 1; i >= 0 && len(recent) < 3; i-- {
		recent = append(recent, all[i])
	}
	return recent
}

// parseRating parsea un rating numérico del export; nil si viene vacío
// o con el placeholder "–"/"-".
func parseRating(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" || s == "–" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return domain.Float64Ptr(v)
}
