package domain

import "math"

// Pesos del score compuesto. Suman exactamente 1.00 — verificado en init().
// Pace queda en 0.10: con 0.15 la suma sería 1.05 y el compuesto dejaría
// de estar acotado en [0,100].
const (
	WeightSpeed   = 0.30
	WeightForm    = 0.30
	WeightClass   = 0.20
	WeightPace    = 0.10
	WeightJockey  = 0.05
	WeightTrainer = 0.05
)

const (
	// Escala lineal de speed figures: 20 → 0 puntos, 120 → 100 puntos.
	figureFloor   = 20.0
	figureCeiling = 120.0

	// neutralRecentFigure es el promedio reciente asumido cuando el
	// competidor no tiene figures recientes: el punto medio de la escala.
	neutralRecentFigure = 70.0

	// neutralScore es el sub-score cuando no hay datos para calcularlo.
	neutralScore = 50.0
)

func init() {
	sum := WeightSpeed + WeightForm + WeightClass + WeightPace + WeightJockey + WeightTrainer
	if math.Abs(sum-1.0) > 1e-9 {
		panic("domain: composite weights must sum to 1.00")
	}
}

// ScoreSet contiene los seis sub-scores y el compuesto, todos en [0,100].
type ScoreSet struct {
	Speed     float64
	Form      float64
	Class     float64
	Pace      float64
	Jockey    float64
	Trainer   float64
	Composite float64
}

// Score calcula el ScoreSet completo de un competidor.
// Función pura y total: mismo input → output bit a bit idéntico,
// y los datos ausentes degradan a scores neutrales, nunca a panic.
func Score(stats ExtractedStats) ScoreSet {
	s := ScoreSet{
		Speed:   SpeedScore(stats.Speed),
		Form:    FormScore(stats.Form),
		Class:   neutralScore, // placeholder: sin datos de clase de carrera
		Pace:    neutralScore, // placeholder: sin datos de pace
		Jockey:  ConnectionScore(stats.Jockey),
		Trainer: ConnectionScore(stats.Trainer),
	}
	s.Composite = composite(s)
	return s
}

// SpeedScore mezcla la mejor figure de por vida (40%) con el promedio de
// las últimas tres (60%) y mapea el resultado a [0,100] sobre la escala
// 20..120.
//
//	figure = 0.40×best + 0.60×avg(recent)
//	score  = clamp((figure - 20) / (120 - 20) × 100)
//
// Sin figures recientes, el promedio asume el punto medio de la escala (70)
// en vez de cero: la ausencia de datos no es una figure de 0.
func SpeedScore(speed SpeedStats) float64 {
	best := neutralRecentFigure
	if speed.BestFigure != nil {
		best = *speed.BestFigure
	}

	recent := neutralRecentFigure
	if len(speed.RecentFigures) > 0 {
		sum := 0.0
		for _, f := range speed.RecentFigures {
			sum += f
		}
		recent = sum / float64(len(speed.RecentFigures))
	}

	figure := best*0.40 + recent*0.60
	return clamp((figure - figureFloor) / (figureCeiling - figureFloor) * 100)
}

// FormScore puntúa el historial reciente: cada una de las últimas tres
// carreras aporta puntos por puesto (1º=35, 2º=25, 3º=15, 4º-5º=8, resto=3)
// descontados por recencia (×1.0, ×0.8, ×0.6), con penalización por layoff
// (−15 si >60 días, −8 si >30). Clamp a [0,100]; el bruto puede salirse.
// Sin historial → 50 neutral.
func FormScore(form FormStats) float64 {
	if len(form.LastRaces) == 0 {
		return neutralScore
	}

	recency := [3]float64{1.0, 0.8, 0.6}
	score := 0.0
	for i, race := range form.LastRaces {
		if i >= len(recency) {
			break
		}
		score += positionPoints(race.Position) * recency[i]
	}

	if form.DaysSinceLast != nil {
		switch days := *form.DaysSinceLast; {
		case days > 60:
			score -= 15
		case days > 30:
			score -= 8
		}
	}

	return clamp(score)
}

// positionPoints devuelve el valor base de un puesto de llegada.
func positionPoints(position int) float64 {
	switch {
	case position == 1:
		return 35
	case position == 2:
		return 25
	case position == 3:
		return 15
	case position == 4 || position == 5:
		return 8
	default:
		return 3
	}
}

// ConnectionScore puntúa jockey o trainer: directamente su % de victorias
// en el meeting, 50 neutral si la fuente no lo tenía.
func ConnectionScore(conn ConnectionStats) float64 {
	if conn.MeetWinPercent == nil {
		return neutralScore
	}
	return clamp(*conn.MeetWinPercent)
}

// composite aplica los pesos fijos y redondea a un decimal.
func composite(s ScoreSet) float64 {
	total := s.Speed*WeightSpeed +
		s.Form*WeightForm +
		s.Class*WeightClass +
		s.Pace*WeightPace +
		s.Jockey*WeightJockey +
		s.Trainer*WeightTrainer
	return math.Round(total*10) / 10
}

// clamp acota un score a [0,100].
func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
