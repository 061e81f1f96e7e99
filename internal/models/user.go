package models

import "time"

// PlayerSession backs an issued token; deleting it revokes the token.
type PlayerSession struct {
	SessionID    string    `json:"session_id"`
	Player       string    `json:"player"`
	CreatedAt    time.Time `json:"created_at"`
	LastAccessed time.Time `json:"last_accessed"`
}
