package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"resty.dev/v3"
)

const defaultAPIBase = "https://api.telegram.org"

// TelegramNotifier talks to the Telegram Bot API.
type TelegramNotifier struct {
	BotToken string
	Client   *resty.Client
}

// InlineButton is a URL button under a message.
type InlineButton struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// InlineKeyboard is a reply markup made of button rows.
type InlineKeyboard struct {
	Rows [][]InlineButton `json:"inline_keyboard"`
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

// NewTelegramNotifier creates a notifier with optional proxy support.
func NewTelegramNotifier(botToken, proxyURL string) *TelegramNotifier {
	client := resty.New().
		SetBaseURL(defaultAPIBase).
		SetTimeout(35*time.Second).
		SetHeader("Content-Type", "application/json")
	if proxyURL != "" {
		client.SetProxy(proxyURL)
	}
	return &TelegramNotifier{BotToken: botToken, Client: client}
}

// SetAPIBase points the notifier at another Bot API server.
func (t *TelegramNotifier) SetAPIBase(base string) *TelegramNotifier {
	t.Client.SetBaseURL(base)
	return t
}

// Close releases idle connections.
func (t *TelegramNotifier) Close() error { return t.Client.Close() }

// call invokes a Bot API method and decodes its result into out when non-nil.
func (t *TelegramNotifier) call(ctx context.Context, method string, payload any, out any) error {
	var res apiResponse
	resp, err := t.Client.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&res).
		SetError(&res).
		SetForceResponseContentType("application/json").
		Post("/bot" + t.BotToken + "/" + method)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	if !res.OK {
		if res.Description != "" {
			return fmt.Errorf("telegram API error: %s: status %d: %s", method, resp.StatusCode(), res.Description)
		}
		return fmt.Errorf("telegram API error: %s: status %d", method, resp.StatusCode())
	}
	if out != nil && len(res.Result) > 0 {
		if err := json.Unmarshal(res.Result, out); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
	}
	return nil
}

// SendMessage sends an HTML message to a chat.
func (t *TelegramNotifier) SendMessage(ctx context.Context, chatID int64, text string, kb *InlineKeyboard) error {
	payload := map[string]any{
		"chat_id":                  chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}
	if kb != nil {
		payload["reply_markup"] = kb
	}
	return t.call(ctx, "sendMessage", payload, nil)
}

// SendPhoto sends a photo by URL with an HTML caption. If Telegram rejects
// the photo, the caption is sent as a plain message instead.
func (t *TelegramNotifier) SendPhoto(ctx context.Context, chatID int64, photoURL, caption string, kb *InlineKeyboard) error {
	payload := map[string]any{
		"chat_id":    chatID,
		"photo":      photoURL,
		"caption":    caption,
		"parse_mode": "HTML",
	}
	if kb != nil {
		payload["reply_markup"] = kb
	}
	err := t.call(ctx, "sendPhoto", payload, nil)
	if err == nil || ctx.Err() != nil {
		return err
	}
	log.Warn().Err(err).Int64("chat", chatID).Msg("send photo failed, falling back to text")
	return t.SendMessage(ctx, chatID, caption, kb)
}

// SendWithRetry sends a message with exponential backoff retry.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, chatID int64, text string, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		if err := t.SendMessage(ctx, chatID, text, nil); err != nil {
			lastErr = err
			if i == maxRetries {
				break
			}
			backoff := time.Duration(1<<uint(i)) * time.Second
			log.Warn().Err(err).Int("attempt", i+1).Dur("backoff", backoff).Msg("telegram send failed, retrying")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				continue
			}
		}
		return nil
	}
	return fmt.Errorf("all %d retries exhausted: %w", maxRetries+1, lastErr)
}

// DeleteWebhook switches the bot to long polling, optionally dropping
// updates that queued up while it was offline.
func (t *TelegramNotifier) DeleteWebhook(ctx context.Context, dropPending bool) error {
	return t.call(ctx, "deleteWebhook", map[string]any{"drop_pending_updates": dropPending}, nil)
}
