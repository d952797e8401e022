package casestore

import (
	"context"
	"fmt"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS cases (
    id TEXT PRIMARY KEY,
    title TEXT,
    status TEXT NOT NULL,
    document_path TEXT,
    recording_path TEXT,
    transcript_path TEXT,
    extraction_json TEXT,
    artifact_path TEXT,
    current_step TEXT,
    error_message TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cases_status ON cases(status);
CREATE INDEX IF NOT EXISTS idx_cases_created_at ON cases(created_at);
`

func (s *Store) initSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ensureContext(ctx), schemaSQL); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}
