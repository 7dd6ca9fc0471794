// Package models defines server-side data models persisted in the database.
package models

// UserStatus mirrors the account state tracked by the identity provider.
const (
	UserStatusUnconfirmed = "UNCONFIRMED"
	UserStatusConfirmed   = "CONFIRMED"
)

// User is the durable identity record. Email is the immutable business key;
// credentials live in the external identity provider, never here.
type User struct {
	ID          int64
	Email       string
	Name        string
	PhoneNumber string
	Status      string
}
