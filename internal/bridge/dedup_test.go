package bridge

import (
	"fmt"
	"testing"
	"time"
)

func TestDedupSeenWithinWindow(t *testing.T) {
	d := NewDedupStore(time.Minute)
	if d.Seen("alert-1") {
		t.Fatal("fresh id reported as seen")
	}
	if !d.Seen("alert-1") {
		t.Fatal("repeat id not suppressed")
	}
	if d.Seen("alert-2") {
		t.Fatal("unrelated id suppressed")
	}
}

func TestDedupExpiry(t *testing.T) {
	d := NewDedupStore(20 * time.Millisecond)
	d.Seen("alert-1")
	time.Sleep(40 * time.Millisecond)
	if d.Seen("alert-1") {
		t.Fatal("id still suppressed after the window elapsed")
	}
}

func TestDedupSweepEviction(t *testing.T) {
	d := NewDedupStore(10 * time.Millisecond)
	for i := 0; i < 64; i++ {
		d.Seen(fmt.Sprintf("alert-%d", i))
	}
	time.Sleep(30 * time.Millisecond)

	// Touching every shard sweeps the expired entries out.
	for i := 0; i < 64; i++ {
		d.Seen(fmt.Sprintf("fresh-%d", i))
	}
	if got := d.Len(); got > 64 {
		t.Fatalf("Len=%d, expired entries not swept", got)
	}
}

func TestNormalizePair(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"BTCUSDT", "BTCUSDT"},
		{"btc/usdt", "BTCUSDT"},
		{"BTC_USDT", "BTCUSDT"},
		{"eth-usdt", "ETHUSDT"},
		{"  doge usdt ", "DOGEUSDT"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizePair(tt.in); got != tt.want {
			t.Errorf("NormalizePair(%q)=%q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBaseAsset(t *testing.T) {
	tests := []struct {
		symbol, quote, want string
	}{
		{"BTCUSDT", "USDT", "BTC"},
		{"ETHUSDT", "USDT", "ETH"},
		{"USDT", "USDT", "USDT"},
		{"BTCEUR", "USDT", "BTCEUR"},
	}
	for _, tt := range tests {
		if got := BaseAsset(tt.symbol, tt.quote); got != tt.want {
			t.Errorf("BaseAsset(%q,%q)=%q, want %q", tt.symbol, tt.quote, got, tt.want)
		}
	}
}
