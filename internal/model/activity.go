package model

const (
	ActivityCheckout = "checkout"
	ActivityCheckin  = "checkin"
)

// DocumentActivity is an append-only audit record. The id is a bigserial so
// entries written within the same second still have a stable total order.
type DocumentActivity struct {
	ID           int64  `json:"id"`
	DocumentID   string `json:"document_id"`
	UserID       string `json:"user_id"`
	ActivityType string `json:"activity_type"`
	ActivityTime int64  `json:"activity_time"`
	Details      string `json:"details"`
}

// ActivityView denormalizes the acting user's display identity at read time.
// A later username change retroactively changes how old entries render.
type ActivityView struct {
	ID           int64        `json:"id"`
	ActivityType string       `json:"activity_type"`
	ActivityTime int64        `json:"activity_time"`
	Details      string       `json:"details"`
	User         ActivityUser `json:"user"`
}

type ActivityUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
}
