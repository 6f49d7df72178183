package controllers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"counsel/counsel/services/llm"
	"counsel/counsel/sources/psql/models"
	"counsel/counsel/types"
	"counsel/counsel/utils/apperrors"
	"counsel/counsel/utils/logging"
	"counsel/counsel/utils/visual"

	"go.uber.org/zap"
)

// TranscriptStore is the per-(session, member) message log.
type TranscriptStore interface {
	Get(ctx context.Context, sessionID int64, memberEmail string) (*models.Transcript, error)
	GetOrCreate(ctx context.Context, sessionID int64, memberEmail string) (*models.Transcript, error)
	AppendTurns(ctx context.Context, sessionID int64, memberEmail string, turns []models.Turn) (*models.Transcript, error)
	SetSummary(ctx context.Context, sessionID int64, memberEmail, summary string) error
}

// SessionRegistry is the parent session table this core partially owns.
type SessionRegistry interface {
	GetByID(ctx context.Context, id int64) (*models.CounselSession, error)
	ListAIByMember(ctx context.Context, memberEmail string) ([]models.CounselSession, error)
	UpdateContent(ctx context.Context, id int64, content string) error
	SoftDelete(ctx context.Context, id int64) error
}

type ChatController struct {
	transcripts TranscriptStore
	sessions    SessionRegistry
	llm         llm.Client
}

func NewChatController(transcripts TranscriptStore, sessions SessionRegistry, client llm.Client) *ChatController {
	return &ChatController{transcripts: transcripts, sessions: sessions, llm: client}
}

// authorizeSession checks the session exists, is an AI counseling
// session and belongs to the caller. Soft-deleted sessions stay
// readable but accept no new work.
func (c *ChatController) authorizeSession(ctx context.Context, sessionID int64, memberEmail string, allowDeleted bool) (*models.CounselSession, error) {
	s, err := c.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.Type != models.SessionTypeAI {
		return nil, apperrors.New(apperrors.KindNotFound, "session not found")
	}
	if s.MemberEmail != memberEmail {
		return nil, apperrors.New(apperrors.KindForbidden, "session does not belong to the caller")
	}
	if s.Deleted && !allowDeleted {
		return nil, apperrors.New(apperrors.KindNotFound, "session not found")
	}
	return s, nil
}

// GetChat returns the rendered conversation, one item per turn. A pair
// that has never spoken yields an empty list, not an error.
func (c *ChatController) GetChat(ctx context.Context, memberEmail string, sessionID int64) ([]types.VisualChatItem, error) {
	if _, err := c.authorizeSession(ctx, sessionID, memberEmail, true); err != nil {
		return nil, err
	}
	t, err := c.transcripts.Get(ctx, sessionID, memberEmail)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindNotFound {
			return []types.VisualChatItem{}, nil
		}
		return nil, err
	}
	return visual.FormatTranscript(t), nil
}

// PostMessage runs one exchange: user text in, assistant reply out.
// The completion call happens before anything is persisted, so a failed
// exchange leaves no dangling unanswered user turn; on success both
// turns land in a single append.
func (c *ChatController) PostMessage(ctx context.Context, memberEmail string, sessionID int64, content string) (*types.VisualChatItem, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.New(apperrors.KindInvalidInput, "content is required")
	}
	if _, err := c.authorizeSession(ctx, sessionID, memberEmail, false); err != nil {
		return nil, err
	}

	t, err := c.transcripts.GetOrCreate(ctx, sessionID, memberEmail)
	if err != nil {
		return nil, err
	}

	history := make([]llm.Message, 0, len(t.MsgData.Content))
	for _, turn := range t.MsgData.Content {
		role := "assistant"
		if turn.Speaker == models.SpeakerUser {
			role = "user"
		}
		history = append(history, llm.Message{Role: role, Content: turn.Text})
	}

	reply, err := c.llm.Reply(ctx, history, content)
	if err != nil {
		return nil, err
	}

	exchange := []models.Turn{
		models.NewTurn(models.SpeakerUser, content),
		models.NewTurn(models.SpeakerAI, reply),
	}
	t, err = c.transcripts.AppendTurns(ctx, sessionID, memberEmail, exchange)
	if err != nil {
		return nil, err
	}

	// The caller already renders the history; hand back only the new
	// assistant turn.
	last := len(t.MsgData.Content) - 1
	item := visual.FormatTurn(t, last, t.MsgData.Content[last])
	return &item, nil
}

// Summarize renders the full turn log, asks the summarization service
// for a digest and persists it into both the transcript row and the
// session registry row.
func (c *ChatController) Summarize(ctx context.Context, memberEmail string, sessionID int64) (string, error) {
	if _, err := c.authorizeSession(ctx, sessionID, memberEmail, false); err != nil {
		return "", err
	}
	t, err := c.transcripts.Get(ctx, sessionID, memberEmail)
	if err != nil {
		return "", err
	}
	if len(t.MsgData.Content) == 0 {
		return "", apperrors.New(apperrors.KindNotFound, "nothing to summarize")
	}

	lines := make([]string, 0, len(t.MsgData.Content))
	for _, turn := range t.MsgData.Content {
		lines = append(lines, fmt.Sprintf("%s: %s", turn.Speaker, turn.Text))
	}

	summary, err := c.llm.Summarize(ctx, strings.Join(lines, "\n"))
	if err != nil {
		return "", err
	}

	if err := c.transcripts.SetSummary(ctx, sessionID, memberEmail, summary); err != nil {
		return "", err
	}
	if err := c.sessions.UpdateContent(ctx, sessionID, summary); err != nil {
		// The transcript half landed; report the miss instead of
		// silently dropping the registry write.
		logging.ErrorLogger.Error("session content write failed after transcript summary",
			zap.Int64("session_id", sessionID), zap.Error(err))
		return "", apperrors.Partial(
			"summary saved to the transcript but not to the session",
			"repeat the summary request; regenerating and rewriting are safe",
			err,
		)
	}
	return summary, nil
}

// ListSessions lists the member's AI counseling history, newest first,
// soft-deleted sessions excluded.
func (c *ChatController) ListSessions(ctx context.Context, memberEmail string) ([]types.SessionSummary, error) {
	sessions, err := c.sessions.ListAIByMember(ctx, memberEmail)
	if err != nil {
		return nil, err
	}
	out := make([]types.SessionSummary, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, types.SessionSummary{
			SessionID: s.ID,
			Status:    s.Status,
			Title:     s.Title,
			Content:   s.Content,
			StartAt:   formatTimePtr(s.StartAt),
			EndAt:     formatTimePtr(s.EndAt),
			CreatedAt: s.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return out, nil
}

// Delete soft-deletes the session; the transcript stays for audit and
// possible restore. Deleting twice succeeds.
func (c *ChatController) Delete(ctx context.Context, memberEmail string, sessionID int64) error {
	s, err := c.authorizeSession(ctx, sessionID, memberEmail, true)
	if err != nil {
		return err
	}
	if s.Deleted {
		return nil
	}
	return c.sessions.SoftDelete(ctx, sessionID)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
