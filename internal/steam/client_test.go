package steam

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"PriceOracle/internal/failure"
)

func TestClient_FetchItem(t *testing.T) {
	var gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(page(assetsScript, historyScript))
	}))
	defer server.Close()

	c := NewClient(ClientConfig{BaseURL: server.URL, Timeout: time.Second}, FixedRate(2))
	defer c.Close()

	l := Listing{AppID: 730, Name: "AK-47 | Redline (Field-Tested)"}
	item, err := c.FetchItem(context.Background(), l)
	if err != nil {
		t.Fatalf("FetchItem() returned unexpected error: %v", err)
	}
	if gotPath != "/market/listings/730/AK-47 | Redline (Field-Tested)" {
		t.Errorf("request path = %q", gotPath)
	}
	for _, want := range []string{"country=EU", "language=english", "currency=1"} {
		if !strings.Contains(gotQuery, want) {
			t.Errorf("query %q missing %q", gotQuery, want)
		}
	}
	if item.AppID != 730 || len(item.PriceHistory) != 2 {
		t.Errorf("FetchItem() = %+v", item)
	}
	if !strings.HasPrefix(item.URL, server.URL+"/market/listings/730/AK-47%20%7C%20Redline") {
		t.Errorf("URL = %q", item.URL)
	}
}

func TestClient_FetchItem_Status(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("slow down"))
	}))
	defer server.Close()

	c := NewClient(ClientConfig{BaseURL: server.URL, Timeout: time.Second}, FixedRate(1))
	_, err := c.FetchItem(context.Background(), Listing{AppID: 730, Name: "x"})

	var fe *failure.Error
	if !errors.As(err, &fe) {
		t.Fatalf("FetchItem() error = %v, want *failure.Error", err)
	}
	if fe.Reason != failure.FetchFailed || fe.StatusCode != http.StatusTooManyRequests {
		t.Errorf("FetchItem() error = %+v, want FetchFailed status 429", fe)
	}
	if fe.Error() != "get_item - status 429" {
		t.Errorf("Error() = %q", fe.Error())
	}
}

func TestClient_FetchItem_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	c := NewClient(ClientConfig{BaseURL: server.URL, Timeout: 5 * time.Second}, FixedRate(1))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.FetchItem(ctx, Listing{AppID: 730, Name: "x"})
	var fe *failure.Error
	if !errors.As(err, &fe) {
		t.Fatalf("FetchItem() error = %v, want *failure.Error", err)
	}
	if fe.Reason != failure.FetchFailed || !fe.Timeout {
		t.Errorf("FetchItem() error = %+v, want FetchFailed timeout", fe)
	}
}

func TestClient_FetchItem_RateFailure(t *testing.T) {
	c := NewClient(ClientConfig{BaseURL: "http://127.0.0.1:1"}, FallbackRate{})
	_, err := c.FetchItem(context.Background(), Listing{AppID: 730, Name: "x"})
	if !failure.Is(err, failure.RateUnavailable) {
		t.Fatalf("FetchItem() error = %v, want RateUnavailable", err)
	}
	if !strings.HasPrefix(err.Error(), "get_item - get_rate - ") {
		t.Errorf("Error() = %q, want get_item - get_rate prefix", err.Error())
	}
}

func TestMockFetcher(t *testing.T) {
	m := &MockFetcher{Price: 50, Days: 10}
	item, err := m.FetchItem(context.Background(), Listing{AppID: 440, Name: "Key"})
	if err != nil {
		t.Fatalf("FetchItem() returned unexpected error: %v", err)
	}
	if len(item.PriceHistory) != 10 {
		t.Errorf("len(PriceHistory) = %d, want 10", len(item.PriceHistory))
	}
}
