package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/upload-probe/internal/core/domain"
)

// schemaLockID guards concurrent EnsureSchema calls from parallel runs.
const schemaLockID = 7420011

// AttemptRepository persists the attempt log so runs can be compared
// after the fact. Optional: the prober works without it.
type AttemptRepository struct {
	db *sql.DB
}

func NewAttemptRepository(db *sql.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

// Open connects via the pgx stdlib driver and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

func (r *AttemptRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, schemaLockID); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}
	defer r.db.ExecContext(ctx, `SELECT pg_advisory_unlock($1)`, schemaLockID)

	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS upload_attempts (
    id             TEXT PRIMARY KEY,
    run_id         TEXT NOT NULL,
    endpoint_name  TEXT NOT NULL,
    endpoint_url   TEXT NOT NULL,
    method         TEXT NOT NULL,
    document_id    TEXT NOT NULL,
    file_name      TEXT NOT NULL,
    document_type  TEXT NOT NULL,
    sequence       INT NOT NULL,
    status_code    INT NOT NULL,
    response_body  TEXT NOT NULL DEFAULT '',
    failure_kind   TEXT NOT NULL DEFAULT '',
    interpretation JSONB,
    outcome        TEXT NOT NULL,
    skip_reason    TEXT NOT NULL DEFAULT '',
    created_at     TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_upload_attempts_run ON upload_attempts (run_id, created_at)
`)
	if err != nil {
		return fmt.Errorf("ensure attempts schema: %w", err)
	}
	return nil
}

func (r *AttemptRepository) SaveAttempt(ctx context.Context, attempt domain.Attempt) error {
	var interpretation any
	if attempt.Interpretation != nil {
		raw, err := json.Marshal(attempt.Interpretation)
		if err != nil {
			return fmt.Errorf("marshal interpretation: %w", err)
		}
		interpretation = raw
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO upload_attempts (id, run_id, endpoint_name, endpoint_url, method, document_id, file_name,
    document_type, sequence, status_code, response_body, failure_kind, interpretation, outcome, skip_reason, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
`, attempt.ID, attempt.RunID, attempt.EndpointName, attempt.EndpointURL, attempt.Method,
		attempt.DocumentID, attempt.FileName, attempt.DocumentType, attempt.Sequence, attempt.StatusCode,
		attempt.ResponseBody, string(attempt.FailureKind), interpretation, string(attempt.Outcome),
		attempt.SkipReason, attempt.CreatedAt)
	if err != nil {
		return fmt.Errorf("save attempt: %w", err)
	}
	return nil
}

func (r *AttemptRepository) ListAttemptsByRun(ctx context.Context, runID string) ([]domain.Attempt, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, run_id, endpoint_name, endpoint_url, method, document_id, file_name,
    document_type, sequence, status_code, response_body, failure_kind, interpretation, outcome, skip_reason, created_at
FROM upload_attempts
WHERE run_id = $1
ORDER BY created_at, sequence
`, runID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Attempt, 0)
	for rows.Next() {
		attempt, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, attempt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	return out, nil
}

type attemptScanner interface {
	Scan(dest ...interface{}) error
}

func scanAttempt(row attemptScanner) (domain.Attempt, error) {
	var (
		attempt        domain.Attempt
		failureKind    string
		outcome        string
		interpretation []byte
	)
	err := row.Scan(
		&attempt.ID,
		&attempt.RunID,
		&attempt.EndpointName,
		&attempt.EndpointURL,
		&attempt.Method,
		&attempt.DocumentID,
		&attempt.FileName,
		&attempt.DocumentType,
		&attempt.Sequence,
		&attempt.StatusCode,
		&attempt.ResponseBody,
		&failureKind,
		&interpretation,
		&outcome,
		&attempt.SkipReason,
		&attempt.CreatedAt,
	)
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("scan attempt: %w", err)
	}
	attempt.FailureKind = domain.FailureKind(failureKind)
	attempt.Outcome = domain.Outcome(outcome)
	if len(interpretation) > 0 {
		var interp domain.Interpretation
		if err := json.Unmarshal(interpretation, &interp); err != nil {
			return domain.Attempt{}, fmt.Errorf("decode interpretation: %w", err)
		}
		attempt.Interpretation = &interp
	}
	return attempt, nil
}
