package resumes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgForeignKeyViolation = "23503"

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB    *sql.DB
	NewID func() string
}

const resumeColumns = `id, user_id, content, is_complete, status, industry, google_doc_url, model_info, created_at, last_updated`

const versionColumns = `id, resume_id, version_type, user_id, content, is_complete, status, google_doc_url, model_info, created_at, last_updated`

type rowScanner interface {
	Scan(dest ...any) error
}

// UpdateUserVersion locks the user's row for the duration of fn.
func (r *PGRepo) UpdateUserVersion(ctx context.Context, userID string, fn UserVersionFunc) (ResumeDocument, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return ResumeDocument{}, err
	}
	defer tx.Rollback()

	var existing *ResumeDocument
	current, err := scanResume(tx.QueryRowContext(ctx, `SELECT `+resumeColumns+` FROM resumes WHERE user_id = $1 FOR UPDATE`, userID))
	switch {
	case err == nil:
		existing = &current
	case !errors.Is(err, ErrNotFound):
		return ResumeDocument{}, err
	}

	next, err := fn(existing)
	if err != nil {
		return ResumeDocument{}, err
	}
	content, err := marshalJSONB(next.Content)
	if err != nil {
		return ResumeDocument{}, err
	}
	modelInfo, err := marshalNullableJSONB(next.Metadata.ModelInfo)
	if err != nil {
		return ResumeDocument{}, err
	}

	if existing == nil {
		_, err = tx.ExecContext(ctx, `
INSERT INTO resumes (`+resumeColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			next.ID,
			next.Metadata.UserID,
			content,
			next.Metadata.IsComplete,
			string(next.Metadata.Status),
			nullableString(next.Metadata.Industry),
			nullableString(next.Metadata.GoogleDocURL),
			modelInfo,
			next.Metadata.CreatedAt,
			next.Metadata.LastUpdated,
		)
	} else {
		_, err = tx.ExecContext(ctx, `
UPDATE resumes
SET content = $2, is_complete = $3, status = $4, industry = $5, model_info = $6, last_updated = $7
WHERE id = $1`,
			next.ID,
			content,
			next.Metadata.IsComplete,
			string(next.Metadata.Status),
			nullableString(next.Metadata.Industry),
			modelInfo,
			next.Metadata.LastUpdated,
		)
	}
	if err != nil {
		return ResumeDocument{}, err
	}
	if err := tx.Commit(); err != nil {
		return ResumeDocument{}, err
	}
	return next, nil
}

func (r *PGRepo) GetByID(ctx context.Context, resumeID string) (ResumeDocument, error) {
	return scanResume(r.DB.QueryRowContext(ctx, `SELECT `+resumeColumns+` FROM resumes WHERE id = $1 LIMIT 1`, resumeID))
}

func (r *PGRepo) GetByUserID(ctx context.Context, userID string) (ResumeDocument, error) {
	return scanResume(r.DB.QueryRowContext(ctx, `SELECT `+resumeColumns+` FROM resumes WHERE user_id = $1 LIMIT 1`, userID))
}

// UpsertVersion keeps the id and created_at of an existing (resume_id, version_type) row;
// every other column, google_doc_url included, takes the new value.
func (r *PGRepo) UpsertVersion(ctx context.Context, doc ResumeDocument) (ResumeDocument, error) {
	content, err := marshalJSONB(doc.Content)
	if err != nil {
		return ResumeDocument{}, err
	}
	modelInfo, err := marshalNullableJSONB(doc.Metadata.ModelInfo)
	if err != nil {
		return ResumeDocument{}, err
	}
	if doc.ID == "" && r.NewID != nil {
		doc.ID = r.NewID()
	}

	const query = `
INSERT INTO resume_versions (` + versionColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (resume_id, version_type) DO UPDATE SET
  content = EXCLUDED.content,
  is_complete = EXCLUDED.is_complete,
  status = EXCLUDED.status,
  google_doc_url = EXCLUDED.google_doc_url,
  model_info = EXCLUDED.model_info,
  last_updated = EXCLUDED.last_updated
RETURNING id, created_at`
	err = r.DB.QueryRowContext(ctx, query,
		doc.ID,
		doc.Metadata.ResumeID,
		string(doc.Metadata.VersionType),
		doc.Metadata.UserID,
		content,
		doc.Metadata.IsComplete,
		nullableString(string(doc.Metadata.Status)),
		nullableString(doc.Metadata.GoogleDocURL),
		modelInfo,
		doc.Metadata.CreatedAt,
		doc.Metadata.LastUpdated,
	).Scan(&doc.ID, &doc.Metadata.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return ResumeDocument{}, ErrNotFound
		}
		return ResumeDocument{}, err
	}
	return doc, nil
}

func (r *PGRepo) GetVersion(ctx context.Context, resumeID string, versionType VersionType) (ResumeDocument, error) {
	if versionType == VersionUser {
		return r.GetByID(ctx, resumeID)
	}
	return scanVersion(r.DB.QueryRowContext(ctx, `
SELECT `+versionColumns+`
FROM resume_versions
WHERE resume_id = $1 AND version_type = $2
LIMIT 1`, resumeID, string(versionType)))
}

func (r *PGRepo) ListVersions(ctx context.Context, resumeID string) ([]ResumeDocument, error) {
	user, err := r.GetByID(ctx, resumeID)
	if err != nil {
		return nil, err
	}
	rows, err := r.DB.QueryContext(ctx, `
SELECT `+versionColumns+`
FROM resume_versions
WHERE resume_id = $1
ORDER BY created_at ASC`, resumeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ResumeDocument{user}
	for rows.Next() {
		doc, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func (r *PGRepo) SetStatus(ctx context.Context, resumeID string, status Status, at time.Time) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE resumes SET status = $2, last_updated = $3 WHERE id = $1`, resumeID, string(status), at)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *PGRepo) SetDocumentURL(ctx context.Context, resumeID string, versionType VersionType, url string, at time.Time) error {
	var (
		res sql.Result
		err error
	)
	if versionType == VersionUser {
		res, err = r.DB.ExecContext(ctx, `UPDATE resumes SET google_doc_url = $2, last_updated = $3 WHERE id = $1`, resumeID, url, at)
	} else {
		res, err = r.DB.ExecContext(ctx, `
UPDATE resume_versions SET google_doc_url = $3, last_updated = $4
WHERE resume_id = $1 AND version_type = $2`, resumeID, string(versionType), url, at)
	}
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *PGRepo) ListPendingReview(ctx context.Context, limit int) ([]ReviewItem, error) {
	const query = `
SELECT r.id, r.user_id, r.status, r.industry, v.google_doc_url, r.created_at
FROM resumes r
LEFT JOIN resume_versions v ON v.resume_id = r.id AND v.version_type = 'llm_feedback'
WHERE r.status IN ($1, $2)
ORDER BY CASE WHEN r.status = $1 THEN 0 ELSE 1 END, r.created_at ASC
LIMIT $3`
	rows, err := r.DB.QueryContext(ctx, query, string(StatusInReview), string(StatusPending), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ReviewItem
	for rows.Next() {
		var item ReviewItem
		var status string
		var industry, docURL sql.NullString
		if err := rows.Scan(&item.ResumeID, &item.UserID, &status, &industry, &docURL, &item.SubmissionDate); err != nil {
			return nil, err
		}
		item.Status = Status(status)
		item.Industry = industry.String
		item.GoogleDocURL = docURL.String
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanResume(row rowScanner) (ResumeDocument, error) {
	var doc ResumeDocument
	var content, modelInfo []byte
	var status string
	var industry, docURL sql.NullString
	err := row.Scan(
		&doc.ID,
		&doc.Metadata.UserID,
		&content,
		&doc.Metadata.IsComplete,
		&status,
		&industry,
		&docURL,
		&modelInfo,
		&doc.Metadata.CreatedAt,
		&doc.Metadata.LastUpdated,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ResumeDocument{}, ErrNotFound
		}
		return ResumeDocument{}, err
	}
	doc.Metadata.VersionType = VersionUser
	doc.Metadata.ResumeID = doc.ID
	doc.Metadata.Status = Status(status)
	doc.Metadata.Industry = industry.String
	doc.Metadata.GoogleDocURL = docURL.String
	if err := unmarshalJSONB(content, &doc.Content); err != nil {
		return ResumeDocument{}, err
	}
	if err := unmarshalJSONB(modelInfo, &doc.Metadata.ModelInfo); err != nil {
		return ResumeDocument{}, err
	}
	return doc, nil
}

func scanVersion(row rowScanner) (ResumeDocument, error) {
	var doc ResumeDocument
	var content, modelInfo []byte
	var versionType string
	var status, docURL sql.NullString
	err := row.Scan(
		&doc.ID,
		&doc.Metadata.ResumeID,
		&versionType,
		&doc.Metadata.UserID,
		&content,
		&doc.Metadata.IsComplete,
		&status,
		&docURL,
		&modelInfo,
		&doc.Metadata.CreatedAt,
		&doc.Metadata.LastUpdated,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ResumeDocument{}, ErrNotFound
		}
		return ResumeDocument{}, err
	}
	doc.Metadata.VersionType = VersionType(versionType)
	doc.Metadata.Status = Status(status.String)
	doc.Metadata.GoogleDocURL = docURL.String
	if err := unmarshalJSONB(content, &doc.Content); err != nil {
		return ResumeDocument{}, err
	}
	if err := unmarshalJSONB(modelInfo, &doc.Metadata.ModelInfo); err != nil {
		return ResumeDocument{}, err
	}
	return doc, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func marshalJSONB(v map[string]any) (string, error) {
	if v == nil {
		return "{}", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal jsonb: %w", err)
	}
	return string(data), nil
}

func marshalNullableJSONB(v map[string]any) (any, error) {
	if v == nil {
		return nil, nil
	}
	return marshalJSONB(v)
}

func unmarshalJSONB(data []byte, dst *map[string]any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode jsonb: %w", err)
	}
	return nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
