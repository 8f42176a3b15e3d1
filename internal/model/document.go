package model

import "time"

// Document is a single uploaded text file. Content and Size are fixed at
// creation; only Name and Memo are editable.
type Document struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Content    string    `json:"content"`
	Size       int64     `json:"size"`
	Owner      string    `json:"owner,omitempty"`
	Memo       string    `json:"memo,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

// DocumentSummary is a list row. It never carries content.
type DocumentSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	SizeHuman string    `json:"size_human"`
	Owner     string    `json:"owner,omitempty"`
	HasMemo   bool      `json:"has_memo"`
	CreatedAt time.Time `json:"created_at"`
}

// DocumentPatch carries metadata edits. Nil fields are left unchanged.
// ModifiedAt is the edit time recorded for the row; the service stamps it.
type DocumentPatch struct {
	Name       *string
	Memo       *string
	ModifiedAt time.Time
}

// Empty reports whether the patch changes nothing. ModifiedAt alone is not a change.
func (p DocumentPatch) Empty() bool {
	return p.Name == nil && p.Memo == nil
}
