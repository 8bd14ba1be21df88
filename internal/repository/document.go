package repository

import (
	"context"

	"openshelf/internal/model"
)

// DocumentRepository defines catalog data access using SQL queries only.
// Persistence only; business rules live in the service layer.
// Lookups of a missing row return sql.ErrNoRows.
type DocumentRepository interface {
	// Create inserts a new document record and returns the stored row.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// List returns every document, newest first.
	List(ctx context.Context) ([]model.Document, error)

	// ListPaidBy returns documents whose paid set contains uid.
	ListPaidBy(ctx context.Context, uid model.UserID) ([]model.Document, error)

	// Update persists title, category and storage URLs of an existing document.
	Update(ctx context.Context, doc *model.Document) (*model.Document, error)

	// AddPaidUser appends uid to the paid set if absent. It reports whether a row changed.
	AddPaidUser(ctx context.Context, id string, uid model.UserID) (bool, error)

	// Delete removes a document by ID. It returns nil if the row was deleted or did not exist.
	Delete(ctx context.Context, id string) error
}
