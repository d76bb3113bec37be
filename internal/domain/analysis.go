package domain

import (
	"sort"
	"time"
)

// CompetitorAnalysis es el análisis completo de un competidor dentro de un run.
// Pertenece al run que lo produjo; nunca se comparte entre runs.
type CompetitorAnalysis struct {
	Entry      CompetitorEntry
	Stats      ExtractedStats
	Scores     ScoreSet
	Confidence float64 // confianza en los datos, [0,1]
}

// AnalysisResult es el artefacto terminal de un análisis de carrera.
// Inmutable una vez producido.
type AnalysisResult struct {
	RunID       string
	Course      RaceCourse
	Slot        RaceSlot
	Ranked      []CompetitorAnalysis // orden descendente por composite
	Insights    string               // narrativa generada
	Source      DataSource           // procedencia de los datos del card
	AnalyzedAt  time.Time
}

// Top devuelve los n primeros del ranking (o menos si el campo es más corto).
func (r AnalysisResult) Top(n int) []CompetitorAnalysis {
	if n > len(r.Ranked) {
		n = len(r.Ranked)
	}
	return r.Ranked[:n]
}

// Rank ordena los análisis por composite descendente. Empates se resuelven
// por posición de salida ascendente, así el ranking es estable y total.
func Rank(analyses []CompetitorAnalysis) []CompetitorAnalysis {
	ranked := make([]CompetitorAnalysis, len(analyses))
	copy(ranked, analyses)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Scores.Composite != ranked[j].Scores.Composite {
			return ranked[i].Scores.Composite > ranked[j].Scores.Composite
		}
		return ranked[i].Entry.Position < ranked[j].Entry.Position
	})
	return ranked
}
