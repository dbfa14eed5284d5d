package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"PriceOracle/internal/failure"
	"PriceOracle/internal/model"
	"PriceOracle/internal/notifier"
	"PriceOracle/internal/recorder"
)

const listingText = "https://steamcommunity.com/market/listings/730/AK-47%20%7C%20Redline"

type sent struct {
	kind   string
	chatID int64
	text   string
	photo  string
	kb     *notifier.InlineKeyboard
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sent
}

func (f *fakeSender) add(s sent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, s)
	return nil
}

func (f *fakeSender) SendMessage(_ context.Context, chatID int64, text string, kb *notifier.InlineKeyboard) error {
	return f.add(sent{kind: "message", chatID: chatID, text: text, kb: kb})
}

func (f *fakeSender) SendPhoto(_ context.Context, chatID int64, photoURL, caption string, kb *notifier.InlineKeyboard) error {
	return f.add(sent{kind: "photo", chatID: chatID, text: caption, photo: photoURL, kb: kb})
}

func (f *fakeSender) SendWithRetry(_ context.Context, chatID int64, text string, _ int) error {
	return f.add(sent{kind: "retry", chatID: chatID, text: text})
}

func (f *fakeSender) all() []sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sent(nil), f.sent...)
}

type runnerFunc func(ctx context.Context, text string) (*model.Result, error)

func (f runnerFunc) Run(ctx context.Context, text string) (*model.Result, error) { return f(ctx, text) }

type recorderSpy struct {
	recorder.NoopRecorder
	mu      sync.Mutex
	records []recorder.RequestRecord
}

func (r *recorderSpy) RecordRequest(rec *recorder.RequestRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, *rec)
	return nil
}

func message(chatID int64, text string) notifier.Message {
	var m notifier.Message
	m.Chat.ID = chatID
	m.Text = text
	m.From = &notifier.User{ID: chatID, Username: "gaben", FirstName: "Gabe"}
	return m
}

func sampleResult() *model.Result {
	return &model.Result{
		Item: model.ItemInfo{
			AppID:   730,
			Name:    "AK-47 | Redline",
			Type:    "Classified Rifle",
			IconURL: "https://community.cloudflare.steamstatic.com/economy/image/abc",
			URL:     listingText,
		},
		Summary: model.HistorySummary{Sales: 12, Days: 10, LastPrice: 250},
		Forecast: []model.ForecastPoint{
			{Date: time.Date(2024, 1, 4, 0, 0, 0, 0, time.Local), Value: decimal.RequireFromString("251.5")},
		},
	}
}

func TestHandleMessage_Start(t *testing.T) {
	s := &fakeSender{}
	b := New(s, runnerFunc(func(context.Context, string) (*model.Result, error) {
		t.Fatal("pipeline must not run for /start")
		return nil, nil
	}), nil, nil, 0)

	b.HandleMessage(context.Background(), message(1, "/start"))

	got := s.all()
	if len(got) != 1 || !strings.Contains(got[0].text, "Gabe") {
		t.Fatalf("sent = %+v, want greeting", got)
	}
}

func TestHandleMessage_Help(t *testing.T) {
	s := &fakeSender{}
	b := New(s, nil, nil, nil, 0)

	b.HandleMessage(context.Background(), message(1, "hello"))

	got := s.all()
	if len(got) != 1 || got[0].text != notifier.HelpMessage {
		t.Fatalf("sent = %+v, want help message", got)
	}
}

func TestHandleMessage_Forecast(t *testing.T) {
	s := &fakeSender{}
	rec := &recorderSpy{}
	var gotText string
	b := New(s, runnerFunc(func(_ context.Context, text string) (*model.Result, error) {
		gotText = text
		return sampleResult(), nil
	}), rec, nil, 60)

	b.HandleMessage(context.Background(), message(7, listingText))

	if gotText != listingText {
		t.Errorf("pipeline got %q, want %q", gotText, listingText)
	}
	got := s.all()
	if len(got) != 3 {
		t.Fatalf("sent %d replies, want 3: %+v", len(got), got)
	}
	if got[0].text != notifier.BeginMessage {
		t.Errorf("first reply = %q, want begin message", got[0].text)
	}
	photo := got[1]
	if photo.kind != "photo" || photo.photo != sampleResult().Item.IconURL {
		t.Errorf("second reply = %+v, want icon photo", photo)
	}
	if !strings.Contains(photo.text, "04.01.2024 - 251.50 руб.") {
		t.Errorf("caption missing forecast line:\n%s", photo.text)
	}
	if photo.kb == nil || photo.kb.Rows[0][0].URL != listingText {
		t.Errorf("keyboard = %+v, want listing button", photo.kb)
	}
	if got[2].text != notifier.EndMessage {
		t.Errorf("last reply = %q, want end message", got[2].text)
	}

	if len(rec.records) != 1 {
		t.Fatalf("recorded %d requests, want 1", len(rec.records))
	}
	r := rec.records[0]
	if r.Status != recorder.StatusOK || r.AppID != 730 || r.ChatID != 7 || r.Username != "gaben" || r.RequestID == "" {
		t.Errorf("record = %+v", r)
	}
	if len(r.Forecast) != 1 {
		t.Errorf("recorded forecast = %v, want 1 point", r.Forecast)
	}
}

func TestHandleMessage_Failure(t *testing.T) {
	s := &fakeSender{}
	rec := &recorderSpy{}
	ferr := failure.Wrap("get_market_item", failure.NewFetchStatus("get_item", 429), failure.FetchFailed)
	b := New(s, runnerFunc(func(context.Context, string) (*model.Result, error) {
		return nil, ferr
	}), rec, nil, 0)

	b.HandleMessage(context.Background(), message(7, listingText))

	got := s.all()
	if len(got) != 2 {
		t.Fatalf("sent %d replies, want 2: %+v", len(got), got)
	}
	if got[1].kind != "retry" || !strings.Contains(got[1].text, "get_market_item - get_item - status 429") {
		t.Errorf("error reply = %+v", got[1])
	}
	r := rec.records[0]
	if r.Status != recorder.StatusError || r.FailureKind != "NetworkError" || r.FailureReason != "FetchFailed" {
		t.Errorf("record = %+v", r)
	}
}

func TestHandleMessage_PlainError(t *testing.T) {
	s := &fakeSender{}
	rec := &recorderSpy{}
	b := New(s, runnerFunc(func(context.Context, string) (*model.Result, error) {
		return nil, errors.New("boom")
	}), rec, nil, 0)

	b.HandleMessage(context.Background(), message(7, listingText))

	if r := rec.records[0]; r.Error != "boom" || r.FailureReason != "" {
		t.Errorf("record = %+v", r)
	}
}

func TestHandleMessage_BusyChat(t *testing.T) {
	s := &fakeSender{}
	started := make(chan struct{})
	release := make(chan struct{})
	b := New(s, runnerFunc(func(context.Context, string) (*model.Result, error) {
		close(started)
		<-release
		return sampleResult(), nil
	}), nil, nil, 0)

	done := make(chan struct{})
	go func() {
		defer close(done)
		b.HandleMessage(context.Background(), message(7, listingText))
	}()
	<-started

	b.HandleMessage(context.Background(), message(7, listingText))
	b.HandleMessage(context.Background(), message(8, "hi"))

	close(release)
	<-done

	var busy, help int
	for _, m := range s.all() {
		switch m.text {
		case notifier.BusyMessage:
			busy++
			if m.chatID != 7 {
				t.Errorf("busy reply sent to chat %d", m.chatID)
			}
		case notifier.HelpMessage:
			help++
		}
	}
	if busy != 1 || help != 1 {
		t.Errorf("busy replies = %d, help replies = %d, want 1 and 1", busy, help)
	}

	// The chat is free again once the first request finished.
	if !b.acquire(7) {
		t.Error("chat still marked busy after the request finished")
	}
}

func TestHandleMessage_ThrottleCancelled(t *testing.T) {
	s := &fakeSender{}
	calls := 0
	b := New(s, runnerFunc(func(context.Context, string) (*model.Result, error) {
		calls++
		return sampleResult(), nil
	}), nil, nil, 1)

	b.HandleMessage(context.Background(), message(1, listingText))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b.HandleMessage(ctx, message(2, listingText))

	if calls != 1 {
		t.Errorf("pipeline ran %d times, want 1", calls)
	}
}
