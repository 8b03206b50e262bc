package line

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/yttsai/venuebot/internal/dialogue"
)

// Client delivers outbound messages through the LINE Messaging API. It
// implements the dialogue Notifier port on top of the SDK client.
type Client struct {
	api    *messaging_api.MessagingApiAPI
	logger *slog.Logger
}

// NewClient creates a Messaging API client.
func NewClient(baseURL, channelToken string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	api, err := messaging_api.NewMessagingApiAPI(channelToken,
		messaging_api.WithEndpoint(baseURL),
		messaging_api.WithHTTPClient(&http.Client{Timeout: timeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create messaging API client: %w", err)
	}

	return &Client{
		api:    api,
		logger: logger.With("component", "line_client"),
	}, nil
}

// Reply sends messages tied to the originating event's reply token.
func (c *Client) Reply(ctx context.Context, replyToken string, msgs ...dialogue.Message) error {
	_, err := c.api.ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: replyToken,
		Messages:   renderAll(msgs),
	})
	if err != nil {
		c.logger.ErrorContext(ctx, "Reply delivery rejected", "error", err)
		return fmt.Errorf("failed to send reply: %w", err)
	}

	c.logger.DebugContext(ctx, "Reply delivered", "messages", len(msgs))
	return nil
}

// Push sends messages addressed directly to a user id.
func (c *Client) Push(ctx context.Context, userID string, msgs ...dialogue.Message) error {
	_, err := c.api.PushMessage(&messaging_api.PushMessageRequest{
		To:       userID,
		Messages: renderAll(msgs),
	}, "")
	if err != nil {
		c.logger.ErrorContext(ctx, "Push delivery rejected", "user_id", userID, "error", err)
		return fmt.Errorf("failed to send push: %w", err)
	}

	c.logger.DebugContext(ctx, "Push delivered", "user_id", userID, "messages", len(msgs))
	return nil
}

func renderAll(msgs []dialogue.Message) []messaging_api.MessageInterface {
	out := make([]messaging_api.MessageInterface, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, render(msg)...)
	}
	return out
}
