package notify

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWebhookDeliversJSON(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method=%s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content-type=%s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	if err := NewWebhook(srv.URL).Send("Order executed: BUY BTCUSDT", "details"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got["subject"] != "Order executed: BUY BTCUSDT" || got["content"] != "details" {
		t.Fatalf("payload=%v", got)
	}
}

func TestWebhookNonSuccessStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	if err := NewWebhook(srv.URL).Send("s", "b"); err == nil {
		t.Fatal("expected error for 403 response")
	}
}

func TestWebhookConnectFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	if err := NewWebhook(srv.URL).Send("s", "b"); err == nil {
		t.Fatal("expected error when endpoint is unreachable")
	}
}

type stubNotifier struct {
	err   error
	calls int
}

func (s *stubNotifier) Send(subject, body string) error {
	s.calls++
	return s.err
}

func TestMultiContinuesPastFailure(t *testing.T) {
	failing := &stubNotifier{err: errors.New("smtp down")}
	healthy := &stubNotifier{}

	err := Multi{failing, healthy}.Send("s", "b")
	if !errors.Is(err, failing.err) {
		t.Fatalf("err=%v, want first failure", err)
	}
	if healthy.calls != 1 {
		t.Fatal("later sink skipped after a failure")
	}
}

func TestMultiAllHealthy(t *testing.T) {
	a, b := &stubNotifier{}, &stubNotifier{}
	if err := (Multi{a, b}).Send("s", "b"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if a.calls != 1 || b.calls != 1 {
		t.Fatalf("calls=%d,%d", a.calls, b.calls)
	}
}

func TestNopDiscards(t *testing.T) {
	if err := (Nop{}).Send("s", "b"); err != nil {
		t.Fatalf("Send: %v", err)
	}
}
