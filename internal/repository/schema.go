package repository

// schema uses types both SQLite and Postgres accept. Timestamps are
// RFC 3339 text and flags are 0/1 integers.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		run_id       TEXT PRIMARY KEY,
		started_at   TEXT NOT NULL,
		finished_at  TEXT NOT NULL,
		model_id     TEXT NOT NULL DEFAULT '',
		documents    INTEGER NOT NULL,
		errors       INTEGER NOT NULL,
		config_json  TEXT NOT NULL,
		summary_json TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS documents (
		run_id                  TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
		doc_id                  TEXT NOT NULL,
		rel_path                TEXT NOT NULL,
		resolved_file_path      TEXT NOT NULL,
		top_level_folder        TEXT NOT NULL,
		status                  TEXT NOT NULL,
		classification          TEXT NOT NULL,
		page_count              INTEGER NOT NULL,
		pages_with_text         INTEGER NOT NULL,
		text_coverage_pct       DOUBLE PRECISION NOT NULL,
		avg_text_chars_per_page DOUBLE PRECISION NOT NULL,
		pages_black_checked     INTEGER NOT NULL,
		pages_mostly_black      INTEGER NOT NULL,
		mostly_black_pct        DOUBLE PRECISION,
		text_quality_score      DOUBLE PRECISION NOT NULL,
		text_quality_label      TEXT NOT NULL,
		content_type_pred       TEXT NOT NULL,
		doc_type_final          TEXT NOT NULL,
		doc_type_source         TEXT NOT NULL,
		model_confidence        DOUBLE PRECISION,
		notes                   TEXT NOT NULL,
		result_json             TEXT NOT NULL,
		PRIMARY KEY (run_id, doc_id)
	)`,
	`CREATE TABLE IF NOT EXISTS pages (
		run_id          TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
		doc_id          TEXT NOT NULL,
		page_num        INTEGER NOT NULL,
		text_char_count INTEGER NOT NULL,
		has_text        INTEGER NOT NULL,
		black_ratio     DOUBLE PRECISION,
		median_lum      DOUBLE PRECISION,
		is_mostly_black INTEGER,
		matched_rule    TEXT NOT NULL,
		note            TEXT NOT NULL,
		PRIMARY KEY (run_id, doc_id, page_num)
	)`,
	`CREATE TABLE IF NOT EXISTS run_errors (
		run_id  TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
		seq     INTEGER NOT NULL,
		doc_id  TEXT NOT NULL,
		path    TEXT NOT NULL,
		stage   TEXT NOT NULL,
		message TEXT NOT NULL,
		PRIMARY KEY (run_id, seq)
	)`,
	`CREATE INDEX IF NOT EXISTS documents_status_idx ON documents (run_id, status)`,
}
