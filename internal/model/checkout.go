package model

// DocumentCheckout is the exclusive editing lock. Its presence is the LOCKED
// state of a document; the document_id column carries a database-level unique
// constraint so two concurrent checkouts can never both succeed.
type DocumentCheckout struct {
	ID           string `json:"id"`
	DocumentID   string `json:"document_id"`
	UserID       string `json:"user_id"`
	CheckoutTime int64  `json:"checkout_time"`
	Comments     string `json:"comments"`
}
