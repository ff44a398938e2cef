package models

import "time"

// Follow is a directed edge: UserID follows AuthorID. The composite unique
// index guarantees at most one edge per pair; self-follows are rejected
// before the store and, on postgres, by a CHECK constraint.
type Follow struct {
	ID        uint      `gorm:"primary_key;autoIncrement" json:"id"`
	UserID    uint      `gorm:"not null;index;uniqueIndex:idx_follows_unique" json:"user_id"`
	AuthorID  uint      `gorm:"not null;index;uniqueIndex:idx_follows_unique" json:"author_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
