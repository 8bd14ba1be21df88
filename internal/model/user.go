package model

import "time"

// UserID identifies a user. Identifiers arrive from tokens, request bodies and
// the catalog in different shapes; comparing UserID values is the only
// membership test used for ownership and the paid set.
type UserID string

// String implements fmt.Stringer.
func (id UserID) String() string { return string(id) }

// IsZero reports whether the identifier is empty.
func (id UserID) IsZero() bool { return id == "" }

// User is an account able to sell and buy documents.
type User struct {
	ID           UserID    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"-"`
}

// PublicUser is the user projection returned by signup and login.
type PublicUser struct {
	ID    UserID `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Public strips credentials from the user.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email}
}
