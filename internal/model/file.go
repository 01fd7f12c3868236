package model

import "time"

// File is a stored upload, e.g. an error screenshot.
type File struct {
	ID        string    `json:"id"`
	FileName  string    `json:"fileName"`
	IsPrivate bool      `json:"isPrivate"`
	Size      int64     `json:"size"`
	SHA256    string    `json:"sha256"`
	Path      string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}
