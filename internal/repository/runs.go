package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/doc-readiness/internal/common"
	"github.com/joseph-ayodele/doc-readiness/internal/probe"
)

// RunRow is a stored run header.
type RunRow struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	ModelID    string
	Documents  int
	Errors     int
	Summary    probe.Summary
}

// DocumentRow is the flat per-document record kept for querying.
type DocumentRow struct {
	RunID               string
	DocID               string
	RelPath             string
	Path                string
	TopLevelFolder      string
	Status              string
	Classification      string
	PageCount           int
	PagesWithText       int
	TextCoveragePct     float64
	AvgTextCharsPerPage float64
	PagesChecked        int
	PagesMostlyBlack    int
	MostlyBlackPct      *float64
	QualityScore        float64
	QualityLabel        string
	ContentType         string
	DocTypeFinal        string
	DocTypeSource       string
	ModelConfidence     *float64
	Notes               string
}

type RunRepository interface {
	SaveRun(ctx context.Context, run *probe.Run) error
	GetRun(ctx context.Context, runID string) (*RunRow, error)
	ListRuns(ctx context.Context, limit int) ([]RunRow, error)
	ListDocuments(ctx context.Context, runID, status string) ([]DocumentRow, error)
	GetDocumentResult(ctx context.Context, runID, docID string) (*probe.DocumentResult, error)
	ListRunErrors(ctx context.Context, runID string) ([]probe.ErrorEntry, error)
}

type runRepo struct {
	db     *DB
	logger *slog.Logger
}

func NewRunRepository(db *DB, logger *slog.Logger) RunRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &runRepo{db: db, logger: logger}
}

// SaveRun writes the run, its documents, pages and sampled errors in one
// transaction. Saving the same run twice fails on the primary key.
func (r *runRepo) SaveRun(ctx context.Context, run *probe.Run) (err error) {
	cfgJSON, err := json.Marshal(run.Config)
	if err != nil {
		return common.WrapError(err, "marshal run config")
	}
	sumJSON, err := json.Marshal(run.Summary)
	if err != nil {
		return common.WrapError(err, "marshal run summary")
	}

	tx, err := r.db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return common.DatabaseError("begin", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, r.db.rebind(`INSERT INTO runs
		(run_id, started_at, finished_at, model_id, documents, errors, config_json, summary_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		run.ID, formatTime(run.StartedAt), formatTime(run.FinishedAt), run.ModelID,
		len(run.Documents), run.Summary.Errors, string(cfgJSON), string(sumJSON)); err != nil {
		r.logger.Error("failed to insert run", "run_id", run.ID, "error", err)
		return common.DatabaseError("insert run", err)
	}

	docStmt, err := tx.PrepareContext(ctx, r.db.rebind(`INSERT INTO documents
		(run_id, doc_id, rel_path, resolved_file_path, top_level_folder, status, classification,
		 page_count, pages_with_text, text_coverage_pct, avg_text_chars_per_page,
		 pages_black_checked, pages_mostly_black, mostly_black_pct,
		 text_quality_score, text_quality_label, content_type_pred,
		 doc_type_final, doc_type_source, model_confidence, notes, result_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return common.DatabaseError("prepare documents", err)
	}
	defer docStmt.Close()

	pageStmt, err := tx.PrepareContext(ctx, r.db.rebind(`INSERT INTO pages
		(run_id, doc_id, page_num, text_char_count, has_text, black_ratio, median_lum, is_mostly_black, matched_rule, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return common.DatabaseError("prepare pages", err)
	}
	defer pageStmt.Close()

	for _, d := range run.Documents {
		resJSON, mErr := json.Marshal(d)
		if mErr != nil {
			err = common.WrapError(mErr, "marshal document "+d.DocID)
			return err
		}
		if _, err = docStmt.ExecContext(ctx,
			run.ID, d.DocID, d.RelPath, d.Path, d.TopLevelFolder, string(d.Status), string(d.Readiness.Classification),
			d.Readiness.PageCount, d.Readiness.PagesWithText, d.Readiness.TextCoveragePct, d.Readiness.AvgTextCharsPerPage,
			d.Darkness.PagesChecked, d.Darkness.PagesMostlyBlack, nullFloat(d.Darkness.MostlyBlackPct),
			d.Quality.Score, string(d.Quality.Label), string(d.Content.Category),
			d.Decision.Final, string(d.Decision.Source), nullFloat(d.Decision.ModelConfidence),
			d.NotesString(), string(resJSON)); err != nil {
			r.logger.Error("failed to insert document", "run_id", run.ID, "doc_id", d.DocID, "error", err)
			return common.DatabaseError("insert document", err)
		}
		for _, p := range d.Pages {
			var ratio, median sql.NullFloat64
			var black sql.NullInt64
			rule := ""
			if p.Darkness != nil {
				ratio = sql.NullFloat64{Float64: p.Darkness.BlackRatio, Valid: true}
				median = sql.NullFloat64{Float64: p.Darkness.Median, Valid: true}
				black = sql.NullInt64{Int64: boolInt(p.Darkness.IsMostlyBlack), Valid: true}
				rule = p.Darkness.MatchedRule
			}
			if _, err = pageStmt.ExecContext(ctx, run.ID, d.DocID, p.PageNum, p.TextCharCount, boolInt(p.HasText),
				ratio, median, black, rule, p.Note); err != nil {
				return common.DatabaseError("insert page", err)
			}
		}
	}

	for i, e := range run.Errors {
		if _, err = tx.ExecContext(ctx, r.db.rebind(`INSERT INTO run_errors
			(run_id, seq, doc_id, path, stage, message) VALUES (?, ?, ?, ?, ?, ?)`),
			run.ID, i, e.DocID, e.Path, e.Stage, e.Message); err != nil {
			return common.DatabaseError("insert run error", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return common.DatabaseError("commit", err)
	}
	r.logger.Info("run saved", "run_id", run.ID, "documents", len(run.Documents))
	return nil
}

func (r *runRepo) GetRun(ctx context.Context, runID string) (*RunRow, error) {
	row := r.db.SQL.QueryRowContext(ctx, r.db.rebind(`SELECT run_id, started_at, finished_at, model_id, documents, errors, summary_json
		FROM runs WHERE run_id = ?`), runID)
	rr, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewAppError(common.CodeNotFound, "run "+runID, common.ErrNotFound)
	}
	if err != nil {
		return nil, common.DatabaseError("get run", err)
	}
	return rr, nil
}

// ListRuns returns the newest runs first. limit <= 0 returns all.
func (r *runRepo) ListRuns(ctx context.Context, limit int) ([]RunRow, error) {
	q := `SELECT run_id, started_at, finished_at, model_id, documents, errors, summary_json
		FROM runs ORDER BY started_at DESC, run_id`
	var args []any
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.db.SQL.QueryContext(ctx, r.db.rebind(q), args...)
	if err != nil {
		return nil, common.DatabaseError("list runs", err)
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		rr, err := scanRun(rows)
		if err != nil {
			return nil, common.DatabaseError("scan run", err)
		}
		out = append(out, *rr)
	}
	if err := rows.Err(); err != nil {
		return nil, common.DatabaseError("list runs", err)
	}
	return out, nil
}

// ListDocuments returns a run's documents ordered by rel_path. An empty
// status matches every status.
func (r *runRepo) ListDocuments(ctx context.Context, runID, status string) ([]DocumentRow, error) {
	q := `SELECT run_id, doc_id, rel_path, resolved_file_path, top_level_folder, status, classification,
		page_count, pages_with_text, text_coverage_pct, avg_text_chars_per_page,
		pages_black_checked, pages_mostly_black, mostly_black_pct,
		text_quality_score, text_quality_label, content_type_pred,
		doc_type_final, doc_type_source, model_confidence, notes
		FROM documents WHERE run_id = ?`
	args := []any{runID}
	if status != "" {
		q += ` AND status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY rel_path, doc_id`

	rows, err := r.db.SQL.QueryContext(ctx, r.db.rebind(q), args...)
	if err != nil {
		return nil, common.DatabaseError("list documents", err)
	}
	defer rows.Close()

	var out []DocumentRow
	for rows.Next() {
		var d DocumentRow
		var pct, conf sql.NullFloat64
		if err := rows.Scan(&d.RunID, &d.DocID, &d.RelPath, &d.Path, &d.TopLevelFolder, &d.Status, &d.Classification,
			&d.PageCount, &d.PagesWithText, &d.TextCoveragePct, &d.AvgTextCharsPerPage,
			&d.PagesChecked, &d.PagesMostlyBlack, &pct,
			&d.QualityScore, &d.QualityLabel, &d.ContentType,
			&d.DocTypeFinal, &d.DocTypeSource, &conf, &d.Notes); err != nil {
			return nil, common.DatabaseError("scan document", err)
		}
		d.MostlyBlackPct = floatPtr(pct)
		d.ModelConfidence = floatPtr(conf)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, common.DatabaseError("list documents", err)
	}
	return out, nil
}

// GetDocumentResult returns the full stored result, including pages and features.
func (r *runRepo) GetDocumentResult(ctx context.Context, runID, docID string) (*probe.DocumentResult, error) {
	var raw string
	err := r.db.SQL.QueryRowContext(ctx, r.db.rebind(`SELECT result_json FROM documents WHERE run_id = ? AND doc_id = ?`),
		runID, docID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewAppError(common.CodeNotFound, "document "+docID, common.ErrNotFound)
	}
	if err != nil {
		return nil, common.DatabaseError("get document", err)
	}
	var res probe.DocumentResult
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return nil, common.WrapError(err, "decode document "+docID)
	}
	return &res, nil
}

func (r *runRepo) ListRunErrors(ctx context.Context, runID string) ([]probe.ErrorEntry, error) {
	rows, err := r.db.SQL.QueryContext(ctx, r.db.rebind(`SELECT doc_id, path, stage, message
		FROM run_errors WHERE run_id = ? ORDER BY seq`), runID)
	if err != nil {
		return nil, common.DatabaseError("list run errors", err)
	}
	defer rows.Close()

	var out []probe.ErrorEntry
	for rows.Next() {
		var e probe.ErrorEntry
		if err := rows.Scan(&e.DocID, &e.Path, &e.Stage, &e.Message); err != nil {
			return nil, common.DatabaseError("scan run error", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*RunRow, error) {
	var rr RunRow
	var started, finished, summary string
	if err := s.Scan(&rr.RunID, &started, &finished, &rr.ModelID, &rr.Documents, &rr.Errors, &summary); err != nil {
		return nil, err
	}
	rr.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
	rr.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
	if err := json.Unmarshal([]byte(summary), &rr.Summary); err != nil {
		return nil, err
	}
	return &rr, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
