package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"edurag/internal/domain"
)

// PostgresStore keeps document records in the uploaded_documents table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{
		pool: pool,
	}, nil
}

// Init creates the table and indexes if they are missing.
func (p *PostgresStore) Init(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS uploaded_documents (
		id TEXT PRIMARY KEY,
		institution_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		file_url TEXT NOT NULL DEFAULT '',
		uploaded_by TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL CHECK (state IN ('unprocessed', 'processed', 'failed')),
		failure_reason TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP WITH TIME ZONE NOT NULL,
		updated_at TIMESTAMP WITH TIME ZONE NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_uploaded_documents_institution
		ON uploaded_documents(institution_id, created_at);
	`
	_, err := p.pool.Exec(ctx, query)
	return err
}

const selectDocument = `SELECT id, institution_id, title, description, file_url, uploaded_by,
	content, state, failure_reason, created_at, updated_at FROM uploaded_documents`

func (p *PostgresStore) Put(ctx context.Context, doc domain.Document) error {
	query := `INSERT INTO uploaded_documents (id, institution_id, title, description, file_url,
			uploaded_by, content, state, failure_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			institution_id = EXCLUDED.institution_id,
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			file_url = EXCLUDED.file_url,
			uploaded_by = EXCLUDED.uploaded_by,
			content = EXCLUDED.content,
			state = EXCLUDED.state,
			failure_reason = EXCLUDED.failure_reason,
			updated_at = EXCLUDED.updated_at
	`
	_, err := p.pool.Exec(ctx, query,
		doc.ID,
		doc.InstitutionID,
		doc.Title,
		doc.Description,
		doc.FileURL,
		doc.UploadedBy,
		doc.Text,
		string(doc.State),
		doc.FailureReason,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	return err
}

func scanDocument(row pgx.Row) (domain.Document, error) {
	var doc domain.Document
	var state string
	err := row.Scan(
		&doc.ID,
		&doc.InstitutionID,
		&doc.Title,
		&doc.Description,
		&doc.FileURL,
		&doc.UploadedBy,
		&doc.Text,
		&state,
		&doc.FailureReason,
		&doc.CreatedAt,
		&doc.UpdatedAt)
	doc.State = domain.ProcessingState(state)
	return doc, err
}

func (p *PostgresStore) Get(ctx context.Context, id string) (domain.Document, error) {
	doc, err := scanDocument(p.pool.QueryRow(ctx, selectDocument+" WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Document{}, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return doc, err
}

func (p *PostgresStore) list(ctx context.Context, query string, args ...any) ([]domain.Document, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (p *PostgresStore) List(ctx context.Context) ([]domain.Document, error) {
	return p.list(ctx, selectDocument+" ORDER BY created_at, id")
}

func (p *PostgresStore) ListByInstitution(ctx context.Context, institutionID string) ([]domain.Document, error) {
	return p.list(ctx, selectDocument+" WHERE institution_id = $1 ORDER BY created_at, id", institutionID)
}

func (p *PostgresStore) SetState(ctx context.Context, id string, state domain.ProcessingState, reason string) error {
	tag, err := p.pool.Exec(ctx,
		"UPDATE uploaded_documents SET state = $2, failure_reason = $3, updated_at = $4 WHERE id = $1",
		id, string(state), reason, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (p *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, "DELETE FROM uploaded_documents WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (p *PostgresStore) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}
