package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/sashabaranov/go-openai"

	"formcheck/internal/config"
	"formcheck/internal/logging"
	"formcheck/internal/services/llm"
)

// Outcome is the result of one synthesis request.
type Outcome struct {
	Audio []byte
	Err   error
}

// Synthesizer converts text to spoken MP3 audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) Outcome
}

type speechCreator interface {
	CreateSpeech(ctx context.Context, req openai.CreateSpeechRequest) (openai.RawResponse, error)
}

// Client synthesizes speech through the OpenAI audio API.
type Client struct {
	api     speechCreator
	model   string
	voice   string
	retrier *llm.Retrier
	logger  *slog.Logger
}

// NewClient builds a speech client from configuration.
func NewClient(cfg config.OpenAI, logger *slog.Logger, opts ...llm.Option) *Client {
	return &Client{
		api:     llm.NewOpenAI(cfg),
		model:   cfg.TTSModel,
		voice:   cfg.TTSVoice,
		retrier: llm.NewRetrier(opts...),
		logger:  logging.NewComponentLogger(logger, "speech"),
	}
}

func (c *Client) Synthesize(ctx context.Context, text string) Outcome {
	text = strings.TrimSpace(text)
	if text == "" {
		return Outcome{Err: errors.New("speech: empty text")}
	}
	logger := logging.WithContext(ctx, c.logger)
	logger.Info("generating audio", logging.String("text", preview(text, 50)))

	req := openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(c.model),
		Input:          text,
		Voice:          openai.SpeechVoice(c.voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	}
	var audio []byte
	err := c.retrier.Do(ctx, "speech synthesis", func(ctx context.Context) error {
		resp, err := c.api.CreateSpeech(ctx, req)
		if err != nil {
			return err
		}
		defer resp.Close()
		data, err := io.ReadAll(resp)
		if err != nil {
			return fmt.Errorf("read audio: %w", err)
		}
		if len(data) == 0 {
			return llm.ErrEmptyContent
		}
		audio = data
		return nil
	})
	if err != nil {
		return Outcome{Err: err}
	}
	logger.Info("audio generated", logging.Int("bytes", len(audio)))
	return Outcome{Audio: audio}
}

func preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
