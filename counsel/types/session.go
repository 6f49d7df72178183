package types

// SessionSummary is the list-view projection of a counseling session.
// Summary-weight only: the turn log stays out of it.
type SessionSummary struct {
	SessionID int64  `json:"sessionId"`
	Status    string `json:"status"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	StartAt   string `json:"startAt,omitempty"`
	EndAt     string `json:"endAt,omitempty"`
	CreatedAt string `json:"createdAt"`
}

type LoginRequest struct {
	Email string `json:"email"`
}

type LoginResponse struct {
	Token string `json:"token"`
}
