package model

type Document struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	FilePath    string `json:"file_path"`
	MimeType    string `json:"mime_type"`
	OwnerID     string `json:"owner_id"`
	Version     int    `json:"version"`
	Ctime       int64  `json:"ctime"`
	Mtime       int64  `json:"mtime"`

	// Tag names attached at read time, not a stored column.
	Tags []string `json:"tags"`
}
