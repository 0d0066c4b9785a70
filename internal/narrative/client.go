package narrative

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"strings"

	"github.com/nfnt/resize"
	"github.com/sashabaranov/go-openai"

	"formcheck/internal/config"
	"formcheck/internal/logging"
	"formcheck/internal/services/llm"
)

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Client asks an OpenAI vision model to critique the annotated frame.
type Client struct {
	api          chatCompleter
	model        string
	maxTokens    int
	maxDimension int
	retrier      *llm.Retrier
	logger       *slog.Logger
}

// NewClient builds a vision client from configuration.
func NewClient(cfg config.OpenAI, logger *slog.Logger, opts ...llm.Option) *Client {
	return &Client{
		api:          llm.NewOpenAI(cfg),
		model:        cfg.VisionModel,
		maxTokens:    cfg.VisionMaxTokens,
		maxDimension: cfg.ImageMaxDimension,
		retrier:      llm.NewRetrier(opts...),
		logger:       logging.NewComponentLogger(logger, "narrative"),
	}
}

// Generate never returns an error directly; failures travel in the Outcome so
// the caller can substitute a fallback.
func (c *Client) Generate(ctx context.Context, pngData []byte, angle float64) Outcome {
	logger := logging.WithContext(ctx, c.logger)

	payload, err := c.prepareImage(pngData)
	if err != nil {
		return Outcome{Err: fmt.Errorf("prepare image: %w", err)}
	}
	req := openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: Prompt(angle)},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL: "data:image/png;base64," + base64.StdEncoding.EncodeToString(payload),
						},
					},
				},
			},
		},
	}

	logger.Info("requesting narrative", logging.String("model", c.model))
	var text string
	err = c.retrier.Do(ctx, "vision completion", func(ctx context.Context) error {
		resp, err := c.api.CreateChatCompletion(ctx, req)
		if err != nil {
			return err
		}
		for _, choice := range resp.Choices {
			if content := strings.TrimSpace(choice.Message.Content); content != "" {
				text = content
				return nil
			}
		}
		return fmt.Errorf("%w (choices=%d)", llm.ErrEmptyContent, len(resp.Choices))
	})
	if errors.Is(err, llm.ErrEmptyContent) {
		logger.Warn("narrative reply empty after retries", logging.Error(err))
		return Outcome{}
	}
	if err != nil {
		return Outcome{Err: err}
	}
	logger.Info("narrative received", logging.Int("chars", len(text)))
	return Outcome{Text: text}
}

// prepareImage shrinks the frame so its longest side fits maxDimension.
// Frames already small enough are sent unchanged.
func (c *Client) prepareImage(pngData []byte) ([]byte, error) {
	if len(pngData) == 0 {
		return nil, errors.New("empty image")
	}
	if c.maxDimension <= 0 {
		return pngData, nil
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(pngData))
	if err != nil {
		return nil, fmt.Errorf("decode png header: %w", err)
	}
	if cfg.Width <= c.maxDimension && cfg.Height <= c.maxDimension {
		return pngData, nil
	}
	img, err := png.Decode(bytes.NewReader(pngData))
	if err != nil {
		return nil, fmt.Errorf("decode png: %w", err)
	}
	return encodeThumbnail(img, uint(c.maxDimension))
}

func encodeThumbnail(img image.Image, maxDimension uint) ([]byte, error) {
	thumb := resize.Thumbnail(maxDimension, maxDimension, img, resize.Lanczos3)
	var buf bytes.Buffer
	if err := png.Encode(&buf, thumb); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
