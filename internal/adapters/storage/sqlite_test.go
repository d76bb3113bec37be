package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/racebot/internal/adapters/storage"
	"github.com/alejandrodnm/racebot/internal/domain"
)

func makeResult(runID, course string, analyzedAt time.Time) domain.AnalysisResult {
	return domain.AnalysisResult{
		RunID:  runID,
		Course: domain.RaceCourse{Name: course},
		Slot: domain.RaceSlot{
			Course:   domain.RaceCourse{Name: course},
			Date:     "2025-01-01",
			Time:     "14:00",
			Name:     "Test Handicap",
			Distance: "1m",
		},
		Ranked: []domain.CompetitorAnalysis{
			{
				Entry:      domain.CompetitorEntry{Position: 3, Name: "Thunder Bolt", Jockey: "J. Smith", Trainer: "T. Jones", Odds: "5-2"},
				Scores:     domain.ScoreSet{Speed: 95, Form: 84, Class: 50, Pace: 50, Jockey: 20, Trainer: 18, Composite: 65.5},
				Confidence: 1.0,
			},
			{
				Entry:      domain.CompetitorEntry{Position: 1, Name: "Silver Arrow", Jockey: "A. Brown", Trainer: "C. White", Odds: "N/A"},
				Scores:     domain.ScoreSet{Speed: 40, Form: 33, Class: 50, Pace: 50, Jockey: 50, Trainer: 50, Composite: 41.9},
				Confidence: 0.55,
			},
		},
		Insights:   "Thunder Bolt heads the ranking.",
		Source:     domain.SourceExport,
		AnalyzedAt: analyzedAt,
	}
}

func TestSQLiteStorage_SaveAndGetHistory(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, db.SaveResult(context.Background(), makeResult("run-1", "Example Downs", now)))

	history, err := db.GetHistory(context.Background(), now.Add(-time.Minute), now.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, history, 1)

	got := history[0]
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, "Example Downs", got.Course.Name)
	assert.Equal(t, domain.SourceExport, got.Source)
	assert.Equal(t, "Thunder Bolt heads the ranking.", got.Insights)

	// El ranking se recupera completo y en orden
	require.Len(t, got.Ranked, 2)
	assert.Equal(t, "Thunder Bolt", got.Ranked[0].Entry.Name)
	assert.Equal(t, 3, got.Ranked[0].Entry.Position)
	assert.InDelta(t, 65.5, got.Ranked[0].Scores.Composite, 0.001)
	assert.InDelta(t, 1.0, got.Ranked[0].Confidence, 0.001)
	assert.Equal(t, "Silver Arrow", got.Ranked[1].Entry.Name)
	assert.InDelta(t, 0.55, got.Ranked[1].Confidence, 0.001)
}

func TestSQLiteStorage_GetHistory_EmptyRange(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	history, err := db.GetHistory(context.Background(),
		time.Now().Add(-time.Hour),
		time.Now(),
	)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSQLiteStorage_MultipleRunsOrderedByRecency(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, db.SaveResult(context.Background(), makeResult("run-old", "Example Downs", now.Add(-time.Hour))))
	require.NoError(t, db.SaveResult(context.Background(), makeResult("run-new", "Doncaster", now)))

	history, err := db.GetHistory(context.Background(), now.Add(-2*time.Hour), now.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, history, 2)

	// Más recientes primero
	assert.Equal(t, "run-new", history[0].RunID)
	assert.Equal(t, "run-old", history[1].RunID)
}

func TestSQLiteStorage_DuplicateRunIDFails(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	require.NoError(t, db.SaveResult(context.Background(), makeResult("run-1", "Example Downs", now)))
	assert.Error(t, db.SaveResult(context.Background(), makeResult("run-1", "Example Downs", now)))
}
