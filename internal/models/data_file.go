package models

import "time"

// DataFile is one uploaded dataset. Data holds the cleaned table as JSON.
type DataFile struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Filename  string    `json:"filename"`
	Data      string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
