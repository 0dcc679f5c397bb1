package models

import "time"

// Thought is a short text post. OwnerID is nil for thoughts created before
// accounts existed.
type Thought struct {
	ID        int64
	Content   string
	CreatedAt time.Time
	OwnerID   *int64
}
