package model

// DocumentVersion is an immutable snapshot of a document's content. Rows are
// only ever inserted (version 1 at create, one more per content change) and
// removed together with their parent document.
type DocumentVersion struct {
	ID            string `json:"id"`
	DocumentID    string `json:"document_id"`
	VersionNumber int    `json:"version_number"`
	FilePath      string `json:"file_path"`
	Changes       string `json:"changes"`
	Ctime         int64  `json:"ctime"`
}
