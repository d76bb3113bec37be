package notify_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/racebot/internal/adapters/notify"
	"github.com/alejandrodnm/racebot/internal/domain"
)

func makeResult(source domain.DataSource) domain.AnalysisResult {
	return domain.AnalysisResult{
		RunID:  "run-1",
		Course: domain.RaceCourse{Name: "Example Downs"},
		Slot: domain.RaceSlot{
			Course:   domain.RaceCourse{Name: "Example Downs"},
			Date:     "2025-01-01",
			Time:     "14:00",
			Name:     "Test Handicap",
			Distance: "1m",
		},
		Ranked: []domain.CompetitorAnalysis{
			{
				Entry:      domain.CompetitorEntry{Position: 3, Name: "Thunder Bolt", Jockey: "J. Smith", Trainer: "T. Jones"},
				Scores:     domain.ScoreSet{Speed: 95.2, Form: 84, Jockey: 20, Trainer: 18, Composite: 65.5},
				Confidence: 1.0,
			},
			{
				Entry:      domain.CompetitorEntry{Position: 1, Name: "Silver Arrow", Jockey: "A. Brown", Trainer: "C. White"},
				Scores:     domain.ScoreSet{Speed: 40, Form: 33, Jockey: 50, Trainer: 50, Composite: 41.9},
				Confidence: 0.55,
			},
		},
		Insights:   "Thunder Bolt heads the ranking on sharp recent figures.",
		Source:     source,
		AnalyzedAt: time.Now(),
	}
}

func TestConsole_Notify_FullTable(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)

	require.NoError(t, n.Notify(context.Background(), makeResult(domain.SourceExport)))

	out := buf.String()
	assert.Contains(t, out, "Thunder Bolt")
	assert.Contains(t, out, "Silver Arrow")
	assert.Contains(t, out, "65.5")
	assert.Contains(t, out, "Test Handicap")
	assert.Contains(t, out, "sharp recent figures")
	assert.Contains(t, out, "weighted composite")
	assert.NotContains(t, out, "WARNING")
}

func TestConsole_Notify_Compact(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, false)

	require.NoError(t, n.Notify(context.Background(), makeResult(domain.SourceExport)))

	out := buf.String()
	assert.Contains(t, out, "1.Thunder Bolt(65.5)")
	assert.Contains(t, out, "2.Silver Arrow(41.9)")
}

func TestConsole_Notify_SyntheticWarning(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)

	require.NoError(t, n.Notify(context.Background(), makeResult(domain.SourceSynthetic)))
	assert.Contains(t, buf.String(), "WARNING: synthetic field")
}

func TestConsole_Notify_EmptyRanking(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)

	result := makeResult(domain.SourceExport)
	result.Ranked = nil
	require.NoError(t, n.Notify(context.Background(), result))
	assert.Contains(t, buf.String(), "no competitors analyzed")
}
