package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/racebot/internal/domain"
	"github.com/alejandrodnm/racebot/internal/ports"
)

// StatsSource es la estrategia de extracción del pipeline: inferencia
// (Extractor) o derivación local (OfflineExtractor).
type StatsSource interface {
	ExtractAll(ctx context.Context, card domain.RaceCard) (map[string]domain.ExtractedStats, error)
}

// LiveFetcher adquiere un card de providers en vivo cuando el export no
// tiene la carrera. Lo implementa scrape.Chain.
type LiveFetcher interface {
	Fetch(ctx context.Context, course, raceTime, date string) (domain.RaceCard, error)
}

// Request identifica la carrera a analizar.
type Request struct {
	Course string
	Time   string
	Date   string // YYYY-MM-DD
	Region string
}

// syntheticConfidenceCap acota la confianza cuando el campo es sintético:
// la procedencia degradada debe verse también en el número.
const syntheticConfidenceCap = 0.30

// Pipeline orquesta un análisis completo: adquisición → extracción →
// scoring → ranking → narrativa. Una instancia sirve análisis
// concurrentes; el único estado mutable es el progreso del último run.
type Pipeline struct {
	provider ports.CardProvider
	live     LiveFetcher   // nil = scraping deshabilitado
	stats    StatsSource
	narrator *Narrator     // nil = narrativa determinista
	storage  ports.Storage // nil = sin persistencia

	mu   sync.Mutex
	last domain.ProgressEvent
}

// NewPipeline arma el pipeline. provider y stats son obligatorios; el
// resto degrada limpiamente cuando es nil.
func NewPipeline(provider ports.CardProvider, live LiveFetcher, stats StatsSource, narrator *Narrator, storage ports.Storage) *Pipeline {
	return &Pipeline{
		provider: provider,
		live:     live,
		stats:    stats,
		narrator: narrator,
		storage:  storage,
		last:     domain.ProgressEvent{Stage: domain.StageIdle},
	}
}

// Progress devuelve el último evento emitido. Tras un fallo vuelve a idle:
// el progreso de un run fallido no se conserva.
func (p *Pipeline) Progress() domain.ProgressEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Analyze ejecuta el análisis completo de una carrera. En caso de error
// no hay resultado parcial: o el AnalysisResult entero, o el error.
func (p *Pipeline) Analyze(ctx context.Context, req Request, progress domain.ProgressFunc) (domain.AnalysisResult, error) {
	started := time.Now()
	emit := p.emitter(progress)

	result, err := p.run(ctx, req, emit)
	if err != nil {
		emit(domain.ProgressEvent{Stage: domain.StageIdle, Percent: 0, Detail: "analysis failed"})
		slog.Error("race analysis failed",
			"course", req.Course, "time", req.Time, "date", req.Date,
			"elapsed", time.Since(started).Round(time.Millisecond), "error", err)
		return domain.AnalysisResult{}, err
	}

	emit(domain.ProgressEvent{Stage: domain.StageComplete, Percent: 100, Detail: "analysis complete"})
	slog.Info("race analysis complete",
		"run_id", result.RunID, "course", req.Course, "time", req.Time,
		"ranked", len(result.Ranked), "source", result.Source,
		"elapsed", time.Since(started).Round(time.Millisecond))
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, req Request, emit domain.ProgressFunc) (domain.AnalysisResult, error) {
	emit(domain.ProgressEvent{Stage: domain.StageConnecting, Percent: 5, Detail: "resolving race card"})

	card, err := p.acquire(ctx, req, emit)
	if err != nil {
		return domain.AnalysisResult{}, err
	}
	if len(card.Competitors) == 0 {
		return domain.AnalysisResult{}, &domain.NoCompetitorsError{Course: req.Course, Time: req.Time}
	}

	emit(domain.ProgressEvent{
		Stage:   domain.StageExtracting,
		Percent: 40,
		Detail:  fmt.Sprintf("extracting statistics for %d runners", len(card.Competitors)),
	})
	stats, err := p.stats.ExtractAll(ctx, card)
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("analyzer.Analyze: %w", err)
	}

	emit(domain.ProgressEvent{Stage: domain.StageScoring, Percent: 65, Detail: "calculating scores"})
	analyses := make([]domain.CompetitorAnalysis, 0, len(card.Competitors))
	for _, entry := range card.Competitors {
		// Solo se puntúa lo extraído: un competidor cuya extracción
		// falló queda fuera del ranking, no puntúa neutro.
		s, ok := stats[entry.Name]
		if !ok {
			slog.Warn("no stats extracted, omitting competitor from ranking",
				"name", entry.Name, "course", req.Course, "time", req.Time)
			continue
		}
		conf := s.Confidence()
		if card.Source.IsSynthetic() && conf > syntheticConfidenceCap {
			conf = syntheticConfidenceCap
		}
		analyses = append(analyses, domain.CompetitorAnalysis{
			Entry:      entry,
			Stats:      s,
			Scores:     domain.Score(s),
			Confidence: conf,
		})
	}
	if len(analyses) == 0 {
		return domain.AnalysisResult{}, fmt.Errorf("analyzer.Analyze: no stats extracted for any of the %d runners", len(card.Competitors))
	}

	emit(domain.ProgressEvent{Stage: domain.StageRanking, Percent: 80, Detail: "ranking competitors"})
	ranked := domain.Rank(analyses)

	emit(domain.ProgressEvent{Stage: domain.StageInsights, Percent: 90, Detail: "generating insights"})
	insights, err := p.narrator.RaceInsights(ctx, card, ranked)
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("analyzer.Analyze: %w", err)
	}

	result := domain.AnalysisResult{
		RunID:      uuid.NewString(),
		Course:     card.Slot.Course,
		Slot:       card.Slot,
		Ranked:     ranked,
		Insights:   insights,
		Source:     card.Source,
		AnalyzedAt: time.Now().UTC(),
	}

	if p.storage != nil {
		if err := p.storage.SaveResult(ctx, result); err != nil {
			// La persistencia es best-effort: el análisis ya es válido.
			slog.Warn("failed to persist analysis result", "run_id", result.RunID, "error", err)
		}
	}
	return result, nil
}

// acquire resuelve el card: primero el export del día, y si no tiene la
// carrera, los providers en vivo (cuando están habilitados).
func (p *Pipeline) acquire(ctx context.Context, req Request, emit domain.ProgressFunc) (domain.RaceCard, error) {
	emit(domain.ProgressEvent{
		Stage:   domain.StageFetching,
		Percent: 20,
		Detail:  fmt.Sprintf("fetching %s %s", req.Course, req.Time),
	})

	card, err := p.provider.RaceCard(ctx, req.Course, req.Time, req.Date, req.Region)
	if err == nil {
		return card, nil
	}
	if p.live == nil || !acquirableLive(err) {
		return domain.RaceCard{}, fmt.Errorf("analyzer.acquire: %w", err)
	}

	slog.Info("race not in export, trying live providers",
		"course", req.Course, "time", req.Time, "cause", err)
	card, liveErr := p.live.Fetch(ctx, req.Course, req.Time, req.Date)
	if liveErr != nil {
		return domain.RaceCard{}, fmt.Errorf("analyzer.acquire: export: %v; live: %w", err, liveErr)
	}
	return card, nil
}

// acquirableLive marca los fallos del export que justifican ir a los
// providers en vivo: export ausente o venue que el export no cubre.
func acquirableLive(err error) bool {
	var unavailable *domain.DataUnavailableError
	var venue *domain.VenueNotFoundError
	return errors.As(err, &unavailable) || errors.As(err, &venue)
}

// emitter actualiza el estado interno y reenvía al callback del caller.
func (p *Pipeline) emitter(progress domain.ProgressFunc) domain.ProgressFunc {
	return func(ev domain.ProgressEvent) {
		p.mu.Lock()
		p.last = ev
		p.mu.Unlock()
		if progress != nil {
			progress(ev)
		}
	}
}
