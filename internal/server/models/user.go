// Package models defines server-side records persisted in the database.
package models

import "time"

// User is a registered account. HashedPassword is an opaque encoded hash
// produced by auth.Hasher and is never serialized to clients.
type User struct {
	ID             int64
	Username       string
	HashedPassword string
	IsAdmin        bool
	CreatedAt      time.Time
}
