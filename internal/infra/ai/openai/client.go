package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/Gioaltam/Inspection-agent/internal/domain/report"
	"github.com/Gioaltam/Inspection-agent/internal/infra/ai/prompt"
	"github.com/Gioaltam/Inspection-agent/internal/infra/imaging"
)

const maxTokens = 1024

// chatCompleter is the slice of the OpenAI client the analyzer uses;
// narrowed so tests can stub the network.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Client struct {
	api     chatCompleter
	log     *zap.SugaredLogger
	Model   string
	MaxPx   int
	Retries int
	Backoff time.Duration
}

func NewClient(apiKey, model string, maxPx, retries int, log *zap.SugaredLogger) *Client {
	return &Client{
		api:     openai.NewClient(apiKey),
		log:     log,
		Model:   model,
		MaxPx:   maxPx,
		Retries: retries,
		Backoff: time.Second,
	}
}

// Describe analyzes one image and returns free-text inspection notes.
// The image is downscaled for the request only. A first response that
// looks evasive triggers one defect-focused second pass; transient API
// errors are retried with exponential backoff.
func (c *Client) Describe(ctx context.Context, imagePath string) (string, error) {
	raw, mime, err := imaging.AnalysisBytes(imagePath, c.MaxPx)
	if err != nil {
		return "", fmt.Errorf("prepare analysis image: %w", err)
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(raw))

	out, err := c.completeWithRetry(ctx, prompt.GetUserPrompt(), dataURL)
	if err != nil {
		return "", err
	}

	if report.LooksEvasive(out) {
		c.log.Debugw("second pass nudge", "image", imagePath)
		out2, err := c.completeWithRetry(ctx, prompt.GetSecondPassPrompt(), dataURL)
		if err == nil && out2 != "" {
			out = out2
		}
	}

	if out == "" {
		return "", report.ErrAnalysisFailed
	}
	return out, nil
}

func (c *Client) completeWithRetry(ctx context.Context, userText, dataURL string) (string, error) {
	var lastErr error
	delay := c.Backoff
	for attempt := 0; attempt <= c.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
		out, err := c.complete(ctx, userText, dataURL)
		if err == nil {
			return out, nil
		}
		if errors.Is(err, report.ErrQuotaExceeded) || errors.Is(err, context.Canceled) {
			return "", err
		}
		lastErr = err
		c.log.Warnw("vision call failed", "attempt", attempt+1, "error", err)
	}
	return "", fmt.Errorf("%w: %v", report.ErrAnalysisFailed, lastErr)
}

func (c *Client) complete(ctx context.Context, userText, dataURL string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:     c.Model,
		MaxTokens: maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.GetSystemPrompt()},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: userText},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: dataURL},
					},
				},
			},
		},
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == 429 {
			return "", report.ErrQuotaExceeded
		}
		return "", fmt.Errorf("create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}
