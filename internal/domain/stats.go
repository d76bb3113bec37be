package domain

// ExtractedStats son las estadísticas estructuradas de un competidor,
// producidas una vez por análisis y tratadas como input inmutable del scoring.
//
// La ausencia de un valor es representable y distinta de cero: los campos
// numéricos opcionales son punteros (nil = la fuente no lo tenía) y las
// listas vacías significan "sin historial", nunca "historial de ceros".
type ExtractedStats struct {
	Speed   SpeedStats
	Form    FormStats
	Jockey  ConnectionStats
	Trainer ConnectionStats
}

// SpeedStats agrupa las cifras de velocidad de un competidor.
type SpeedStats struct {
	BestFigure     *float64  // mejor speed figure de por vida
	BestAtDistance *float64  // mejor figure en la distancia de hoy
	RecentFigures  []float64 // últimas 3 figures, la más reciente primero
}

// FormStats agrupa el historial reciente de carreras.
type FormStats struct {
	LastRaces       []RaceOutcome // últimas 3 carreras, la más reciente primero
	DaysSinceLast   *int          // días desde la última carrera; nil = desconocido
	RecentWorkouts  []Workout
}

// RaceOutcome es el resultado de una carrera pasada.
type RaceOutcome struct {
	Date     string  // YYYY-MM-DD
	Position int     // puesto de llegada (1 = ganador)
	Margin   float64 // largos de diferencia con el ganador
	Venue    string
	Distance string
}

// Workout es un entrenamiento registrado.
type Workout struct {
	Date        string
	Distance    string
	TimeSeconds float64
}

// ConnectionStats son las estadísticas de jockey o trainer en el meeting.
type ConnectionStats struct {
	Name           string
	MeetWinPercent *float64 // % de victorias en el meeting actual; nil = desconocido
}

// Confidence devuelve la confianza [0,1] en estos datos según cuántos
// grupos de estadísticas faltan. Determinista: mismos huecos, mismo valor.
func (s ExtractedStats) Confidence() float64 {
	c := 1.0
	if s.Speed.BestFigure == nil {
		c -= 0.20
	}
	if len(s.Speed.RecentFigures) == 0 {
		c -= 0.15
	}
	if len(s.Form.LastRaces) == 0 {
		c -= 0.20
	}
	if s.Form.DaysSinceLast == nil {
		c -= 0.10
	}
	if s.Jockey.MeetWinPercent == nil {
		c -= 0.05
	}
	if s.Trainer.MeetWinPercent == nil {
		c -= 0.05
	}
	if c < 0.25 {
		c = 0.25
	}
	return c
}

// Float64Ptr devuelve un puntero al valor dado. Helper para construir stats.
func Float64Ptr(v float64) *float64 { return &v }

// IntPtr devuelve un puntero al valor dado.
func IntPtr(v int) *int { return &v }
