package model

import "time"

// Document is a sellable PDF in the catalog.
// This is a pure domain model with no database-specific dependencies or tags.
// It can be used across layers (HTTP, service, storage) without coupling to persistence.
type Document struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	PdfURL    string    `json:"pdf"`
	CoverURL  string    `json:"coverImage"`
	Owner     UserID    `json:"owner"`
	PaidUsers []UserID  `json:"paidUsers"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OwnedBy reports whether uid owns the document.
func (d *Document) OwnedBy(uid UserID) bool {
	return d.Owner == uid
}

// HasPaid reports whether uid is in the paid set.
func (d *Document) HasPaid(uid UserID) bool {
	for _, p := range d.PaidUsers {
		if p == uid {
			return true
		}
	}
	return false
}

// DocumentUpdate carries the optional scalar changes of an update request.
// Empty strings leave the stored value untouched.
type DocumentUpdate struct {
	Title    string
	Category string
}
