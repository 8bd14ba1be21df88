package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"openshelf/internal/model"
	"openshelf/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// The paid set lives in a JSONB array column so a document row stays self-contained.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = `id, title, category, pdf_url, cover_url, owner_id, paid_users, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*model.Document, error) {
	var (
		d    model.Document
		paid []byte
	)
	if err := row.Scan(
		&d.ID,
		&d.Title,
		&d.Category,
		&d.PdfURL,
		&d.CoverURL,
		&d.Owner,
		&paid,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	d.PaidUsers = []model.UserID{}
	if len(paid) > 0 {
		if err := json.Unmarshal(paid, &d.PaidUsers); err != nil {
			return nil, fmt.Errorf("decode paid_users: %w", err)
		}
	}
	return &d, nil
}

func encodePaidUsers(ids []model.UserID) (string, error) {
	if ids == nil {
		ids = []model.UserID{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	paid, err := encodePaidUsers(doc.PaidUsers)
	if err != nil {
		return nil, err
	}
	const q = `
		INSERT INTO documents (id, title, category, pdf_url, cover_url, owner_id, paid_users, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8, $9)
		RETURNING ` + documentColumns
	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.Title,
		doc.Category,
		doc.PdfURL,
		doc.CoverURL,
		string(doc.Owner),
		paid,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	return scanDocument(row)
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	const q = `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	return scanDocument(r.db.QueryRowContext(ctx, q, id))
}

// List returns the full catalog, newest first.
func (r *DocumentPostgres) List(ctx context.Context) ([]model.Document, error) {
	const q = `SELECT ` + documentColumns + ` FROM documents ORDER BY created_at DESC, id DESC`
	return r.query(ctx, q)
}

// ListPaidBy returns documents whose paid_users array contains uid.
func (r *DocumentPostgres) ListPaidBy(ctx context.Context, uid model.UserID) ([]model.Document, error) {
	const q = `SELECT ` + documentColumns + ` FROM documents WHERE paid_users ? $1 ORDER BY created_at DESC, id DESC`
	return r.query(ctx, q, string(uid))
}

func (r *DocumentPostgres) query(ctx context.Context, q string, args ...any) ([]model.Document, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Update writes the mutable fields of doc. A missing row yields sql.ErrNoRows.
func (r *DocumentPostgres) Update(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		UPDATE documents
		SET title = $2, category = $3, pdf_url = $4, cover_url = $5, updated_at = $6
		WHERE id = $1
		RETURNING ` + documentColumns
	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.Title,
		doc.Category,
		doc.PdfURL,
		doc.CoverURL,
		doc.UpdatedAt,
	)
	return scanDocument(row)
}

// AddPaidUser appends uid in a single statement guarded by a containment check,
// so concurrent verifications of the same payment cannot duplicate the entry.
func (r *DocumentPostgres) AddPaidUser(ctx context.Context, id string, uid model.UserID) (bool, error) {
	const q = `
		UPDATE documents
		SET paid_users = paid_users || to_jsonb($2::text), updated_at = now()
		WHERE id = $1 AND NOT (paid_users ? $2)
	`
	res, err := r.db.ExecContext(ctx, q, id, string(uid))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Delete removes a document by ID. It does not return an error if the row does not exist.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM documents WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}
