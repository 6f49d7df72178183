package llm

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	httputils "counsel/counsel/utils/http"

	"counsel/counsel/utils/apperrors"
	"counsel/counsel/utils/logging"

	"go.uber.org/zap"
)

const counselorPrompt = `You are an empathetic, calm AI counselor dedicated to personal concerns.
Allowed topics: the user's worries, feelings, relationships, career or study stress, and everyday difficulties.
Out of scope: finance and investing, politics, medical or legal advice, code or technical how-tos, general information lookups, quizzes and small talk.
When an out-of-scope topic comes up, do not answer it; acknowledge the user in one sentence and invite them to share whatever concern or worry is on their mind instead.
Otherwise: empathize with the user's feeling in one sentence first, then help them organize the situation with one or two reflective questions and one or two practical suggestions. Keep answers warm and short, two to four sentences.`

const summarizerPrompt = `Summarize the following counseling conversation in three to five sentences, at most 300 characters.
Capture only the core concerns, emotions and discussion points. Do not add new advice.`

// historyWindow caps how much prior conversation is replayed to the
// completion service per turn.
const historyWindow = 20

const summaryMaxRunes = 300

// GPTClient talks to an OpenAI-compatible API: chat completions for
// replies and summaries, audio transcriptions for recordings.
type GPTClient struct {
	apiKey  string
	baseURL string
	model   string

	httpClient   *http.Client
	maxAttempts  int
	retryBackoff time.Duration
}

func NewGPTClient(apiKey, baseURL, model string) *GPTClient {
	return &GPTClient{
		apiKey:       apiKey,
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		model:        model,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		maxAttempts:  3,
		retryBackoff: time.Second,
	}
}

type chatCompletionRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

func (c *GPTClient) Reply(ctx context.Context, history []Message, userText string) (string, error) {
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	msgs := make([]Message, 0, len(history)+2)
	msgs = append(msgs, Message{Role: "system", Content: counselorPrompt})
	msgs = append(msgs, history...)
	msgs = append(msgs, Message{Role: "user", Content: userText})
	return c.complete(ctx, "llm_reply", msgs, 500)
}

func (c *GPTClient) Summarize(ctx context.Context, conversation string) (string, error) {
	out, err := c.complete(ctx, "llm_summarize", []Message{
		{Role: "system", Content: summarizerPrompt},
		{Role: "user", Content: conversation},
	}, 400)
	if err != nil {
		return "", err
	}
	if runes := []rune(out); len(runes) > summaryMaxRunes {
		out = string(runes[:summaryMaxRunes])
	}
	return out, nil
}

func (c *GPTClient) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	defer logging.LogDuration(ctx, "llm_transcribe")()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, audio); err != nil {
		return "", err
	}
	if err := w.WriteField("model", "whisper-1"); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	var parsed transcriptionResponse
	err = c.withRetries(ctx, func() error {
		return httputils.PostMultipart(ctx, c.httpClient, c.baseURL+"/audio/transcriptions",
			w.FormDataContentType(), c.headers(), buf.Bytes(), &parsed)
	})
	if err != nil {
		logging.ErrorLogger.Error("transcription call failed", zap.Error(err))
		return "", apperrors.Wrap(apperrors.KindExternalService, "speech-to-text service failed", err)
	}
	return strings.TrimSpace(parsed.Text), nil
}

func (c *GPTClient) complete(ctx context.Context, op string, msgs []Message, maxTokens int) (string, error) {
	defer logging.LogDuration(ctx, op)()

	req := chatCompletionRequest{Model: c.model, Messages: msgs, MaxTokens: maxTokens}
	var parsed chatCompletionResponse
	err := c.withRetries(ctx, func() error {
		parsed = chatCompletionResponse{}
		return httputils.PostJSON(ctx, c.httpClient, c.baseURL+"/chat/completions", c.headers(), req, &parsed)
	})
	if err != nil {
		logging.ErrorLogger.Error("completion call failed", zap.String("op", op), zap.Error(err))
		return "", apperrors.Wrap(apperrors.KindExternalService, "AI service is unavailable", err)
	}
	if len(parsed.Choices) == 0 {
		return "", apperrors.New(apperrors.KindExternalService, "AI service returned no content")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// withRetries re-runs call on transient transport failures only, with
// doubling backoff, up to maxAttempts.
func (c *GPTClient) withRetries(ctx context.Context, call func() error) error {
	backoff := c.retryBackoff
	var err error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		err = call()
		if err == nil || !isTransient(err) || attempt == c.maxAttempts {
			return err
		}
		logging.AppLogger.Info("retrying external call",
			zap.Int("attempt", attempt), zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return err
}

func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *httputils.StatusError
	if errors.As(err, &se) {
		return se.Code == 429 || se.Code >= 500
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	var ue *url.Error
	return errors.As(err, &ue)
}

func (c *GPTClient) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + c.apiKey}
}
