// Package visual renders stored turns into the VisualChat items the
// frontend expects. Pure projections: no side effects, recomputed on
// every read.
package visual

import (
	"fmt"
	"time"

	"counsel/counsel/sources/psql/models"
	"counsel/counsel/types"
)

// FormatTranscript maps each stored turn to one display item, in log
// order. Formatting the same transcript twice yields identical output.
func FormatTranscript(t *models.Transcript) []types.VisualChatItem {
	items := make([]types.VisualChatItem, 0, len(t.MsgData.Content))
	for i, turn := range t.MsgData.Content {
		items = append(items, FormatTurn(t, i, turn))
	}
	return items
}

// FormatTurn projects a single turn. index is the turn's position in
// the log; it keys the synthetic chat id.
func FormatTurn(t *models.Transcript, index int, turn models.Turn) types.VisualChatItem {
	role := models.SpeakerAI
	if turn.Speaker == models.SpeakerUser {
		role = models.SpeakerUser
	}
	return types.VisualChatItem{
		ChatID:      fmt.Sprintf("%s-%d", t.ID, index),
		SessionID:   t.SessionID,
		MemberEmail: t.MemberEmail,
		Role:        role,
		Type:        turn.Type,
		Content:     turn.Text,
		Timestamp:   turn.Timestamp,
		CreatedAt:   time.UnixMilli(turn.Timestamp).UTC().Format(time.RFC3339),
	}
}
