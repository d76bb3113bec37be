package analyzer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/racebot/internal/domain"
)

// --- Fakes del pipeline ---

type fakeProvider struct {
	card domain.RaceCard
	err  error
}

func (f *fakeProvider) Courses(context.Context, string, string) ([]string, error) {
	return []string{f.card.Slot.Course.Name}, nil
}

func (f *fakeProvider) RaceSlots(context.Context, string, string, string) ([]domain.SlotSummary, error) {
	return nil, nil
}

func (f *fakeProvider) RaceCard(context.Context, string, string, string, string) (domain.RaceCard, error) {
	if f.err != nil {
		return domain.RaceCard{}, f.err
	}
	return f.card, nil
}

type fakeLive struct {
	card   domain.RaceCard
	err    error
	called bool
}

func (f *fakeLive) Fetch(context.Context, string, string, string) (domain.RaceCard, error) {
	f.called = true
	return f.card, f.err
}

type fakeStats struct {
	stats map[string]domain.ExtractedStats
	err   error
}

func (f *fakeStats) ExtractAll(context.Context, domain.RaceCard) (map[string]domain.ExtractedStats, error) {
	return f.stats, f.err
}

type fakeStorage struct {
	saved []domain.AnalysisResult
	err   error
}

func (f *fakeStorage) SaveResult(_ context.Context, r domain.AnalysisResult) error {
	f.saved = append(f.saved, r)
	return f.err
}

func (f *fakeStorage) GetHistory(context.Context, time.Time, time.Time) ([]domain.AnalysisResult, error) {
	return f.saved, nil
}

func (f *fakeStorage) Close() error { return nil }

func strongVsWeakStats() map[string]domain.ExtractedStats {
	return map[string]domain.ExtractedStats{
		"Thunder Bolt": {
			Speed: domain.SpeedStats{
				BestFigure:    domain.Float64Ptr(115),
				RecentFigures: []float64{115, 110, 112},
			},
			Form: domain.FormStats{
				LastRaces: []domain.RaceOutcome{
					{Position: 1, Date: "2024-12-22"},
					{Position: 1, Date: "2024-12-01"},
				},
				DaysSinceLast: domain.IntPtr(10),
			},
			Jockey:  domain.ConnectionStats{Name: "J. Smith", MeetWinPercent: domain.Float64Ptr(20)},
			Trainer: domain.ConnectionStats{Name: "T. Jones", MeetWinPercent: domain.Float64Ptr(18)},
		},
		"Silver Arrow": {
			Speed: domain.SpeedStats{
				BestFigure:    domain.Float64Ptr(70),
				RecentFigures: []float64{68, 65, 70},
			},
			Form: domain.FormStats{
				LastRaces:     []domain.RaceOutcome{{Position: 8, Date: "2024-10-03"}},
				DaysSinceLast: domain.IntPtr(90),
			},
			Jockey:  domain.ConnectionStats{Name: "A. Brown"},
			Trainer: domain.ConnectionStats{Name: "C. White"},
		},
	}
}

func req() Request {
	return Request{Course: "Example Downs", Time: "14:00", Date: "2025-01-01", Region: "GB"}
}

func TestAnalyzeEndToEnd(t *testing.T) {
	provider := &fakeProvider{card: testCard()}
	storage := &fakeStorage{}
	p := NewPipeline(provider, nil, &fakeStats{stats: strongVsWeakStats()}, nil, storage)

	var events []domain.ProgressEvent
	result, err := p.Analyze(context.Background(), req(), func(ev domain.ProgressEvent) {
		events = append(events, ev)
	})
	require.NoError(t, err)

	// --- ranking: el de figures altas y forma fresca gana ---
	require.Len(t, result.Ranked, 2)
	assert.Equal(t, "Thunder Bolt", result.Ranked[0].Entry.Name)
	assert.Equal(t, "Silver Arrow", result.Ranked[1].Entry.Name)
	assert.Greater(t, result.Ranked[0].Scores.Composite, result.Ranked[1].Scores.Composite)
	assert.Equal(t, 1.0, result.Ranked[0].Confidence)

	// --- metadatos del run ---
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, domain.SourceExport, result.Source)
	assert.NotEmpty(t, result.Insights)
	assert.Contains(t, result.Insights, "Thunder Bolt")
	assert.False(t, result.AnalyzedAt.IsZero())

	// --- progreso: etapas en orden y cierre en complete ---
	require.NotEmpty(t, events)
	assert.Equal(t, domain.StageConnecting, events[0].Stage)
	assert.Equal(t, domain.StageComplete, events[len(events)-1].Stage)
	assert.Equal(t, 100, events[len(events)-1].Percent)
	for i := 1; i < len(events); i++ {
		assert.GreaterOrEqual(t, events[i].Percent, events[i-1].Percent)
	}

	// --- persistido una vez ---
	require.Len(t, storage.saved, 1)
	assert.Equal(t, result.RunID, storage.saved[0].RunID)
}

func TestAnalyzeEmptyFieldFails(t *testing.T) {
	card := testCard()
	card.Competitors = nil
	p := NewPipeline(&fakeProvider{card: card}, nil, &fakeStats{}, nil, nil)

	_, err := p.Analyze(context.Background(), req(), nil)
	require.Error(t, err)

	var empty *domain.NoCompetitorsError
	assert.ErrorAs(t, err, &empty)
	assert.False(t, domain.Retryable(err))
}

func TestAnalyzeFailureResetsProgress(t *testing.T) {
	p := NewPipeline(&fakeProvider{err: errors.New("disk on fire")}, nil, &fakeStats{}, nil, nil)

	_, err := p.Analyze(context.Background(), req(), nil)
	require.Error(t, err)
	assert.Equal(t, domain.StageIdle, p.Progress().Stage)
	assert.Equal(t, 0, p.Progress().Percent)
}

func TestAnalyzeFallsBackToLiveProviders(t *testing.T) {
	liveCard := testCard()
	liveCard.Source = domain.SourceEquibase
	provider := &fakeProvider{err: &domain.DataUnavailableError{Source: "racecards/2025-01-01.json"}}
	live := &fakeLive{card: liveCard}
	p := NewPipeline(provider, live, &fakeStats{stats: strongVsWeakStats()}, nil, nil)

	result, err := p.Analyze(context.Background(), req(), nil)
	require.NoError(t, err)
	assert.True(t, live.called)
	assert.Equal(t, domain.SourceEquibase, result.Source)
}

func TestAnalyzeNoLiveFallbackForOtherErrors(t *testing.T) {
	// Un error genérico del provider no justifica ir a scraping.
	provider := &fakeProvider{err: errors.New("corrupt export")}
	live := &fakeLive{card: testCard()}
	p := NewPipeline(provider, live, &fakeStats{}, nil, nil)

	_, err := p.Analyze(context.Background(), req(), nil)
	require.Error(t, err)
	assert.False(t, live.called)
}

func TestAnalyzeBothAcquisitionPathsFail(t *testing.T) {
	provider := &fakeProvider{err: &domain.DataUnavailableError{Source: "racecards/2025-01-01.json"}}
	live := &fakeLive{err: errors.New("all providers exhausted")}
	p := NewPipeline(provider, live, &fakeStats{}, nil, nil)

	_, err := p.Analyze(context.Background(), req(), nil)
	require.Error(t, err)
	assert.True(t, live.called)
	assert.Contains(t, err.Error(), "all providers exhausted")
}

func TestAnalyzeOmitsCompetitorWithoutStats(t *testing.T) {
	stats := strongVsWeakStats()
	delete(stats, "Silver Arrow")
	p := NewPipeline(&fakeProvider{card: testCard()}, nil, &fakeStats{stats: stats}, nil, nil)

	result, err := p.Analyze(context.Background(), req(), nil)
	require.NoError(t, err)

	// Solo se rankea lo extraído: el competidor sin stats queda fuera.
	require.Len(t, result.Ranked, 1)
	assert.Equal(t, "Thunder Bolt", result.Ranked[0].Entry.Name)
	for _, a := range result.Ranked {
		assert.NotEqual(t, "Silver Arrow", a.Entry.Name)
	}
}

func TestAnalyzeFailsWhenNothingExtracted(t *testing.T) {
	p := NewPipeline(&fakeProvider{card: testCard()}, nil, &fakeStats{stats: map[string]domain.ExtractedStats{}}, nil, nil)

	_, err := p.Analyze(context.Background(), req(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no stats extracted")
	assert.Equal(t, domain.StageIdle, p.Progress().Stage)
}

func TestAnalyzeSyntheticSourceCapsConfidence(t *testing.T) {
	card := testCard()
	card.Source = domain.SourceSynthetic
	p := NewPipeline(&fakeProvider{card: card}, nil, &fakeStats{stats: strongVsWeakStats()}, nil, nil)

	result, err := p.Analyze(context.Background(), req(), nil)
	require.NoError(t, err)

	for _, a := range result.Ranked {
		assert.LessOrEqual(t, a.Confidence, 0.30)
	}
}

func TestAnalyzeStorageFailureDoesNotFailRun(t *testing.T) {
	storage := &fakeStorage{err: errors.New("db locked")}
	p := NewPipeline(&fakeProvider{card: testCard()}, nil, &fakeStats{stats: strongVsWeakStats()}, nil, storage)

	result, err := p.Analyze(context.Background(), req(), nil)
	require.NoError(t, err)
	assert.NotEmpty(t, result.RunID)
}
