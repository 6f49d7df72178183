package controllers

import (
	"bytes"
	"context"
	"strings"

	"counsel/counsel/services/llm"
	"counsel/counsel/sources/storage"
	"counsel/counsel/types"
	"counsel/counsel/utils/apperrors"
	"counsel/counsel/utils/logging"

	"go.uber.org/zap"
)

// RecordingController handles the stateless recording-summary flow:
// archive the upload, transcribe it, merge with the optional chat log,
// summarize. It never touches the transcript tables.
type RecordingController struct {
	store *storage.RecordingStore // nil when object storage is not configured
	llm   llm.Client
}

func NewRecordingController(store *storage.RecordingStore, client llm.Client) *RecordingController {
	return &RecordingController{store: store, llm: client}
}

const noContentSummary = "(no speech or chat content was recognized)"

// SummarizeRecording tolerates archive and STT failures: whatever text
// could be recovered is still summarized, and the chat log is always
// echoed back so the caller can persist it.
func (c *RecordingController) SummarizeRecording(ctx context.Context, filename string, audio []byte, chatLog []types.ChatLogEntry) (*types.SummarizeResponse, error) {
	transcript := ""
	key := ""

	if len(audio) > 0 {
		if c.store != nil {
			var err error
			key, err = c.store.SaveRecording(ctx, filename, audio)
			if err != nil {
				logging.ErrorLogger.Error("recording archive failed", zap.Error(err))
				key = ""
			}
		}
		text, err := c.llm.Transcribe(ctx, filename, bytes.NewReader(audio))
		if err != nil {
			logging.ErrorLogger.Error("transcription failed, summarizing chat log only", zap.Error(err))
		} else {
			transcript = text
		}
	}

	combined := transcript
	if lines := chatLogLines(chatLog); len(lines) > 0 {
		block := "[chat log]\n" + strings.Join(lines, "\n")
		if combined != "" {
			combined = combined + "\n\n" + block
		} else {
			combined = block
		}
	}

	resp := &types.SummarizeResponse{
		Transcript:   transcript,
		MsgData:      chatLog,
		RecordingKey: key,
	}
	if strings.TrimSpace(combined) == "" {
		resp.Summary = noContentSummary
		return resp, nil
	}

	summary, err := c.llm.Summarize(ctx, combined)
	if err != nil {
		return nil, err
	}
	resp.Summary = summary
	return resp, nil
}

// SummarizeText summarizes already-textual content (chat logs, earlier
// STT output).
func (c *RecordingController) SummarizeText(ctx context.Context, text string) (*types.SummarizeResponse, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.New(apperrors.KindInvalidInput, "text is required")
	}
	summary, err := c.llm.Summarize(ctx, text)
	if err != nil {
		return nil, err
	}
	return &types.SummarizeResponse{Transcript: text, Summary: summary}, nil
}

// FetchRecording returns an archived recording's bytes and MIME type.
func (c *RecordingController) FetchRecording(ctx context.Context, key string) ([]byte, string, error) {
	if strings.TrimSpace(key) == "" {
		return nil, "", apperrors.New(apperrors.KindInvalidInput, "recording key is required")
	}
	if c.store == nil {
		return nil, "", apperrors.New(apperrors.KindNotFound, "recording archive is not configured")
	}
	data, err := c.store.GetRecording(ctx, key)
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.KindNotFound, "recording not found", err)
	}
	return data, storage.ContentTypeFor(key), nil
}

func chatLogLines(chatLog []types.ChatLogEntry) []string {
	lines := make([]string, 0, len(chatLog))
	for _, m := range chatLog {
		if m.Text == "" {
			continue
		}
		from := m.From
		if from == "" {
			from = "?"
		}
		lines = append(lines, from+": "+m.Text)
	}
	return lines
}
