package types

type ChatRequest struct {
	Content string `json:"content"`
}

type SummaryResponse struct {
	Summary string `json:"summary"`
}

type DeleteResponse struct {
	Status string `json:"status"`
}

// VisualChatItem is the presentation shape of one stored turn. It is
// derived on every read and never persisted.
type VisualChatItem struct {
	ChatID      string `json:"chatId"`
	SessionID   int64  `json:"sessionId"`
	MemberEmail string `json:"memberId"`
	Role        string `json:"role"`
	Type        string `json:"type"`
	Content     string `json:"content"`
	Timestamp   int64  `json:"timestamp"`
	CreatedAt   string `json:"createdAt"`
}
