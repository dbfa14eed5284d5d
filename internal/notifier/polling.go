package notifier

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// User is the sender of a message.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
}

// Message is an incoming chat message.
type Message struct {
	MessageID int `json:"message_id"`
	Chat      struct {
		ID int64 `json:"id"`
	} `json:"chat"`
	From *User  `json:"from"`
	Text string `json:"text"`
}

// ChatID returns the id of the chat the message was posted in.
func (m Message) ChatID() int64 { return m.Chat.ID }

// Update represents a Telegram update from long polling.
type Update struct {
	UpdateID int      `json:"update_id"`
	Message  *Message `json:"message"`
}

// MessageHandler is called for every incoming text message. Handlers run
// concurrently, one goroutine per message.
type MessageHandler func(ctx context.Context, msg Message)

// GetUpdates fetches pending updates starting at offset, waiting up to
// timeout seconds for new ones.
func (t *TelegramNotifier) GetUpdates(ctx context.Context, offset, timeout int) ([]Update, error) {
	var updates []Update
	err := t.call(ctx, "getUpdates", map[string]any{
		"offset":          offset,
		"timeout":         timeout,
		"allowed_updates": []string{"message"},
	}, &updates)
	return updates, err
}

// StartPolling begins long-polling for messages. Blocks until ctx is
// cancelled and every running handler has returned.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler MessageHandler) {
	var wg sync.WaitGroup
	defer wg.Wait()

	offset := 0
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("telegram polling stopped")
			return
		default:
		}

		updates, err := t.GetUpdates(ctx, offset, 30)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			log.Warn().Err(err).Msg("polling request failed")
			select {
			case <-ctx.Done():
			case <-time.After(5 * time.Second):
			}
			continue
		}

		for _, update := range updates {
			offset = update.UpdateID + 1
			if update.Message == nil || strings.TrimSpace(update.Message.Text) == "" {
				continue
			}
			msg := *update.Message
			msg.Text = strings.TrimSpace(msg.Text)
			wg.Add(1)
			go func() {
				defer wg.Done()
				handler(ctx, msg)
			}()
		}
	}
}
