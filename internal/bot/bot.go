package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"PriceOracle/internal/failure"
	"PriceOracle/internal/metrics"
	"PriceOracle/internal/model"
	"PriceOracle/internal/notifier"
	"PriceOracle/internal/recorder"
	"PriceOracle/internal/steam"
)

// CurrencyLabel is appended to every price in replies.
const CurrencyLabel = "руб."

const sendRetries = 3

// Sender delivers replies to a chat.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string, kb *notifier.InlineKeyboard) error
	SendPhoto(ctx context.Context, chatID int64, photoURL, caption string, kb *notifier.InlineKeyboard) error
	SendWithRetry(ctx context.Context, chatID int64, text string, maxRetries int) error
}

// Runner produces a forecast from a chat message.
type Runner interface {
	Run(ctx context.Context, text string) (*model.Result, error)
}

// Bot routes incoming chat messages to the forecast pipeline.
type Bot struct {
	sender   Sender
	runner   Runner
	recorder recorder.Recorder
	metrics  *metrics.Metrics
	limiter  *rate.Limiter

	mu   sync.Mutex
	busy map[int64]struct{}
}

// New creates a bot. requestsPerMinute <= 0 disables throttling.
func New(sender Sender, runner Runner, rec recorder.Recorder, m *metrics.Metrics, requestsPerMinute int) *Bot {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if m == nil {
		m = metrics.New()
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if requestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), requestsPerMinute)
	}
	return &Bot{
		sender:   sender,
		runner:   runner,
		recorder: rec,
		metrics:  m,
		limiter:  limiter,
		busy:     make(map[int64]struct{}),
	}
}

// HandleMessage is a notifier.MessageHandler.
func (b *Bot) HandleMessage(ctx context.Context, msg notifier.Message) {
	chatID := msg.ChatID()
	text := strings.TrimSpace(msg.Text)

	switch {
	case text == "/start" || strings.HasPrefix(text, "/start "):
		name := ""
		if msg.From != nil {
			name = msg.From.FirstName
		}
		b.reply(ctx, chatID, notifier.FormatStart(name))
	case strings.HasPrefix(text, steam.ListingPrefix):
		if !b.acquire(chatID) {
			b.metrics.RecordBusy()
			b.reply(ctx, chatID, notifier.BusyMessage)
			return
		}
		defer b.release(chatID)
		b.forecast(ctx, msg, text)
	default:
		b.reply(ctx, chatID, notifier.HelpMessage)
	}
}

func (b *Bot) acquire(chatID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.busy[chatID]; ok {
		return false
	}
	b.busy[chatID] = struct{}{}
	return true
}

func (b *Bot) release(chatID int64) {
	b.mu.Lock()
	delete(b.busy, chatID)
	b.mu.Unlock()
}

func (b *Bot) forecast(ctx context.Context, msg notifier.Message, text string) {
	chatID := msg.ChatID()
	rec := &recorder.RequestRecord{
		RequestID: uuid.NewString(),
		ChatID:    chatID,
		Message:   text,
		CreatedAt: time.Now(),
	}
	if msg.From != nil {
		rec.Username = msg.From.Username
	}
	logger := log.With().Str("request_id", rec.RequestID).Int64("chat_id", chatID).Logger()

	b.reply(ctx, chatID, notifier.BeginMessage)

	if err := b.limiter.Wait(ctx); err != nil {
		logger.Warn().Err(err).Msg("request dropped while throttled")
		return
	}

	start := time.Now()
	res, err := b.runner.Run(ctx, text)
	rec.Duration = time.Since(start)

	if err != nil {
		rec.Status = recorder.StatusError
		rec.Error = err.Error()
		var ferr *failure.Error
		if errors.As(err, &ferr) {
			rec.FailureKind = string(ferr.Kind())
			rec.FailureReason = string(ferr.Reason)
		}
		b.metrics.RecordFailure(rec.FailureKind, rec.FailureReason, rec.Duration)
		b.save(rec)
		logger.Warn().Str("reason", rec.FailureReason).Dur("duration", rec.Duration).Msg(err.Error())

		if sendErr := b.sender.SendWithRetry(ctx, chatID, notifier.FormatError(err), sendRetries); sendErr != nil {
			logger.Error().Err(sendErr).Msg("send error report")
		}
		return
	}

	rec.Status = recorder.StatusOK
	rec.AppID = res.Item.AppID
	rec.ItemName = res.Item.Name
	rec.Summary = &res.Summary
	rec.Forecast = res.Forecast
	b.metrics.RecordSuccess(strconv.Itoa(res.Item.AppID), res.Summary.LastPrice, rec.Duration)
	b.save(rec)
	logger.Info().Int("app_id", res.Item.AppID).Str("item", res.Item.Name).Dur("duration", rec.Duration).Msg("forecast ready")

	caption := notifier.FormatForecast(res, CurrencyLabel)
	if err := b.sender.SendPhoto(ctx, chatID, res.Item.IconURL, caption, notifier.ItemKeyboard(res.Item.URL)); err != nil {
		logger.Error().Err(err).Msg("send forecast")
		return
	}
	b.reply(ctx, chatID, notifier.EndMessage)
}

func (b *Bot) save(rec *recorder.RequestRecord) {
	if err := b.recorder.RecordRequest(rec); err != nil {
		log.Error().Err(err).Str("request_id", rec.RequestID).Msg("record request")
	}
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if err := b.sender.SendMessage(ctx, chatID, text, nil); err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("send message")
	}
}
