package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analysisWith(position int, composite float64) CompetitorAnalysis {
	return CompetitorAnalysis{
		Entry:  CompetitorEntry{Position: position},
		Scores: ScoreSet{Composite: composite},
	}
}

func TestRank_DescendingByComposite(t *testing.T) {
	ranked := Rank([]CompetitorAnalysis{
		analysisWith(1, 55.2),
		analysisWith(2, 81.7),
		analysisWith(3, 63.0),
	})

	require.Len(t, ranked, 3)
	assert.Equal(t, 81.7, ranked[0].Scores.Composite)
	assert.Equal(t, 63.0, ranked[1].Scores.Composite)
	assert.Equal(t, 55.2, ranked[2].Scores.Composite)
}

func TestRank_TiesBrokenByPosition(t *testing.T) {
	ranked := Rank([]CompetitorAnalysis{
		analysisWith(7, 60.0),
		analysisWith(2, 60.0),
		analysisWith(4, 60.0),
	})

	assert.Equal(t, 2, ranked[0].Entry.Position)
	assert.Equal(t, 4, ranked[1].Entry.Position)
	assert.Equal(t, 7, ranked[2].Entry.Position)
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	input := []CompetitorAnalysis{
		analysisWith(1, 10),
		analysisWith(2, 90),
	}
	_ = Rank(input)
	assert.Equal(t, 1, input[0].Entry.Position)
}

func TestAnalysisResult_Top(t *testing.T) {
	result := AnalysisResult{
		Ranked: []CompetitorAnalysis{
			analysisWith(1, 90),
			analysisWith(2, 80),
			analysisWith(3, 70),
			analysisWith(4, 60),
		},
	}
	assert.Len(t, result.Top(3), 3)
	assert.Len(t, result.Top(10), 4)
}

// --- Confidence ---

func TestConfidence_FullDataIsOne(t *testing.T) {
	stats := ExtractedStats{
		Speed: SpeedStats{BestFigure: Float64Ptr(110), RecentFigures: []float64{108}},
		Form: FormStats{
			LastRaces:     []RaceOutcome{{Position: 1}},
			DaysSinceLast: IntPtr(12),
		},
		Jockey:  ConnectionStats{MeetWinPercent: Float64Ptr(20)},
		Trainer: ConnectionStats{MeetWinPercent: Float64Ptr(18)},
	}
	assert.Equal(t, 1.0, stats.Confidence())
}

func TestConfidence_EmptyStatsFloors(t *testing.T) {
	assert.Equal(t, 0.25, ExtractedStats{}.Confidence())
}

func TestConfidence_PartialData(t *testing.T) {
	stats := ExtractedStats{
		Speed:   SpeedStats{BestFigure: Float64Ptr(95)},
		Jockey:  ConnectionStats{MeetWinPercent: Float64Ptr(15)},
		Trainer: ConnectionStats{MeetWinPercent: Float64Ptr(22)},
	}
	// falta: recientes (−0.15), historial (−0.20), días (−0.10) → 0.55
	assert.InDelta(t, 0.55, stats.Confidence(), 0.0001)
}

// --- Retryable ---

func TestRetryable_Taxonomy(t *testing.T) {
	assert.False(t, Retryable(&QuotaExceededError{DailyCap: 1000}))
	assert.False(t, Retryable(&VenueNotFoundError{Venue: "nowhere"}))
	assert.False(t, Retryable(&NoCompetitorsError{Course: "Ascot", Time: "14:00"}))
	assert.True(t, Retryable(&DataUnavailableError{Source: "racecards/2025-01-01.json"}))
	assert.True(t, Retryable(&TransportTimeoutError{Provider: "Equibase"}))
	assert.True(t, Retryable(&SchemaViolationError{Detail: "missing speed"}))
}
