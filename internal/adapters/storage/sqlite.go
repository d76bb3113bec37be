package storage

// sqlite.go — histórico de análisis.
//
// Dos tablas: `runs` con el resumen de cada análisis (una fila por run) y
// `rankings` con el ranking completo (una fila por competidor y run).
// Prune automático al arrancar: runs de más de 90 días se descartan con
// su ranking.

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/racebot/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    run_id      TEXT PRIMARY KEY,
    course      TEXT NOT NULL,
    race_date   TEXT NOT NULL,
    race_time   TEXT NOT NULL,
    race_name   TEXT,
    distance    TEXT,
    source      TEXT NOT NULL,
    insights    TEXT,
    field_size  INTEGER NOT NULL DEFAULT 0,
    analyzed_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS rankings (
    run_id        TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
    rank          INTEGER NOT NULL,
    name          TEXT NOT NULL,
    post_position INTEGER NOT NULL DEFAULT 0,
    jockey        TEXT,
    trainer       TEXT,
    odds          TEXT,
    speed         REAL NOT NULL DEFAULT 0,
    form          REAL NOT NULL DEFAULT 0,
    class         REAL NOT NULL DEFAULT 0,
    pace          REAL NOT NULL DEFAULT 0,
    jockey_score  REAL NOT NULL DEFAULT 0,
    trainer_score REAL NOT NULL DEFAULT 0,
    composite     REAL NOT NULL DEFAULT 0,
    confidence    REAL NOT NULL DEFAULT 0,
    PRIMARY KEY (run_id, rank)
);

CREATE INDEX IF NOT EXISTS idx_runs_at     ON runs(analyzed_at DESC);
CREATE INDEX IF NOT EXISTS idx_runs_course ON runs(course, race_date);
`

// retentionRuns: los análisis viejos pierden valor rápido, 90 días bastan.
const retentionRuns = 90 * 24 * time.Hour

// SQLiteStorage implementa ports.Storage usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada.
// Aplica el schema y limpia los runs fuera de retención.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{db: db}
	s.pruneOld(context.Background())
	return s, nil
}

// SaveResult persiste el run y su ranking completo en una transacción.
func (s *SQLiteStorage) SaveResult(ctx context.Context, result domain.AnalysisResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveResult: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs
			(run_id, course, race_date, race_time, race_name, distance,
			 source, insights, field_size, analyzed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.RunID,
		result.Course.Name,
		result.Slot.Date,
		result.Slot.Time,
		result.Slot.Name,
		result.Slot.Distance,
		string(result.Source),
		result.Insights,
		len(result.Ranked),
		result.AnalyzedAt.UTC(),
	); err != nil {
		return fmt.Errorf("storage.SaveResult: insert run %s: %w", result.RunID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO rankings
			(run_id, rank, name, post_position, jockey, trainer, odds,
			 speed, form, class, pace, jockey_score, trainer_score,
			 composite, confidence)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("storage.SaveResult: prepare: %w", err)
	}
	defer stmt.Close()

	for i, a := range result.Ranked {
		if _, err := stmt.ExecContext(ctx,
			result.RunID,
			i+1,
			a.Entry.Name,
			a.Entry.Position,
			a.Entry.Jockey,
			a.Entry.Trainer,
			a.Entry.Odds,
			a.Scores.Speed,
			a.Scores.Form,
			a.Scores.Class,
			a.Scores.Pace,
			a.Scores.Jockey,
			a.Scores.Trainer,
			a.Scores.Composite,
			a.Confidence,
		); err != nil {
			return fmt.Errorf("storage.SaveResult: insert ranking %s/%d: %w", result.RunID, i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveResult: commit: %w", err)
	}
	return nil
}

// GetHistory devuelve los runs del rango con su ranking completo,
// los más recientes primero.
func (s *SQLiteStorage) GetHistory(ctx context.Context, from, to time.Time) ([]domain.AnalysisResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, course, race_date, race_time, race_name, distance,
		       source, insights, analyzed_at
		FROM runs
		WHERE analyzed_at BETWEEN ? AND ?
		ORDER BY analyzed_at DESC
	`, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("storage.GetHistory: query runs: %w", err)
	}
	defer rows.Close()

	var results []domain.AnalysisResult
	for rows.Next() {
		var r domain.AnalysisResult
		var source, analyzedAt string

		if err := rows.Scan(
			&r.RunID,
			&r.Course.Name,
			&r.Slot.Date,
			&r.Slot.Time,
			&r.Slot.Name,
			&r.Slot.Distance,
			&source,
			&r.Insights,
			&analyzedAt,
		); err != nil {
			return nil, fmt.Errorf("storage.GetHistory: scan run: %w", err)
		}
		r.Source = domain.DataSource(source)
		r.Slot.Course = r.Course
		r.AnalyzedAt, _ = time.Parse(time.RFC3339, analyzedAt)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage.GetHistory: iterate runs: %w", err)
	}

	for i := range results {
		ranked, err := s.loadRanking(ctx, results[i].RunID)
		if err != nil {
			return nil, err
		}
		results[i].Ranked = ranked
	}
	return results, nil
}

// loadRanking recupera el ranking de un run en orden.
func (s *SQLiteStorage) loadRanking(ctx context.Context, runID string) ([]domain.CompetitorAnalysis, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, post_position, jockey, trainer, odds,
		       speed, form, class, pace, jockey_score, trainer_score,
		       composite, confidence
		FROM rankings
		WHERE run_id = ?
		ORDER BY rank ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("storage.loadRanking: query %s: %w", runID, err)
	}
	defer rows.Close()

	var ranked []domain.CompetitorAnalysis
	for rows.Next() {
		var a domain.CompetitorAnalysis
		if err := rows.Scan(
			&a.Entry.Name,
			&a.Entry.Position,
			&a.Entry.Jockey,
			&a.Entry.Trainer,
			&a.Entry.Odds,
			&a.Scores.Speed,
			&a.Scores.Form,
			&a.Scores.Class,
			&a.Scores.Pace,
			&a.Scores.Jockey,
			&a.Scores.Trainer,
			&a.Scores.Composite,
			&a.Confidence,
		); err != nil {
			return nil, fmt.Errorf("storage.loadRanking: scan %s: %w", runID, err)
		}
		ranked = append(ranked, a)
	}
	return ranked, rows.Err()
}

// pruneOld descarta los runs fuera de retención. Best-effort: un fallo
// aquí no impide arrancar.
func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retentionRuns)

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM rankings WHERE run_id IN (SELECT run_id FROM runs WHERE analyzed_at < ?)`, cutoff,
	); err != nil {
		slog.Warn("failed to prune old rankings", "error", err)
		return
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE analyzed_at < ?`, cutoff)
	if err != nil {
		slog.Warn("failed to prune old runs", "error", err)
		return
	}
	if n, _ := res.RowsAffected(); n > 0 {
		slog.Info("pruned old analysis runs", "removed", n)
	}
}

// Close cierra la conexión.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
