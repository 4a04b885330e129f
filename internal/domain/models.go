// Package domain defines the core domain models for the clipboard service.
package domain

import "time"

// MaxItems is the number of items a session retains. Writes beyond the cap
// drop the oldest entries.
const MaxItems = 3

// MaxContentLength is the longest item content accepted, in characters.
const MaxContentLength = 10000

// Session represents one shareable clipboard, keyed by its short id.
// A nil Password means the clipboard is publicly accessible.
type Session struct {
	ID           string    `json:"id"`
	Password     *string   `json:"password"`
	ItemCount    int       `json:"item_count"`
	LastAccessed time.Time `json:"last_accessed"`
}

// Item is one stored text entry belonging to a session.
type Item struct {
	SessionID string `json:"session_id"`
	Content   string `json:"content"`
	Position  int    `json:"position"` // 0 = newest
}
