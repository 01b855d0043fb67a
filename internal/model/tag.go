package model

type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type DocumentTag struct {
	DocumentID string `json:"document_id"`
	TagID      string `json:"tag_id"`
}
