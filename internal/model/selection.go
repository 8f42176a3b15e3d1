package model

// Selection is a contiguous span of a document's text. Start and End are
// code-point offsets, End exclusive. Selections are never stored.
type Selection struct {
	DocumentID string `json:"document_id"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
	Length     int    `json:"length"`
	Text       string `json:"text"`
}
