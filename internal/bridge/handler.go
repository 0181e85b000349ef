package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"signal-bridge/internal/events"
	"signal-bridge/internal/notify"
	"signal-bridge/internal/status"
	"signal-bridge/pkg/exchange/pionex"
)

// Venue is the slice of the exchange client the handler needs.
type Venue interface {
	FreeBalance(ctx context.Context, asset string) (decimal.Decimal, error)
	PlaceMarketOrder(ctx context.Context, req pionex.OrderRequest) (*pionex.OrderOutcome, error)
}

// Config carries the trade-sizing policy.
type Config struct {
	QuoteAsset  string          // asset buys are funded from, normally USDT
	MinNotional decimal.Decimal // minimum balance-resolved buy size
	DryRun      bool            // fabricate fills instead of calling the venue
}

// Handler drives one signal through validation, amount resolution, order
// submission and reporting. Each inbound signal runs independently; the only
// shared mutable state is the status store, which locks internally.
type Handler struct {
	venue    Venue
	store    *status.Store
	notifier notify.Notifier
	bus      *events.Bus
	dedup    *DedupStore // nil when suppression is disabled
	cfg      Config
}

// NewHandler wires the handler. notifier and bus may be nil in tests.
func NewHandler(venue Venue, store *status.Store, notifier notify.Notifier, bus *events.Bus, dedup *DedupStore, cfg Config) *Handler {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if cfg.QuoteAsset == "" {
		cfg.QuoteAsset = "USDT"
	}
	return &Handler{
		venue:    venue,
		store:    store,
		notifier: notifier,
		bus:      bus,
		dedup:    dedup,
		cfg:      cfg,
	}
}

// Process runs the signal to a terminal reply. There is no retry transition:
// whatever comes back is final for this signal.
func (h *Handler) Process(ctx context.Context, sig Signal) Reply {
	// Received -> Validated
	pair := NormalizePair(sig.Pair)
	side, ok := pionex.ParseSide(sig.Side)
	if pair == "" || !ok {
		return errorReply(http.StatusBadRequest, CodeInvalidSignal, "pair and signal (buy/sell) are required")
	}

	if sig.ID != "" && h.dedup != nil && h.dedup.Seen(sig.ID) {
		logrus.WithField("signal_id", sig.ID).Info("duplicate signal suppressed")
		return errorReply(http.StatusConflict, CodeDuplicate, fmt.Sprintf("signal %q already processed", sig.ID))
	}

	if h.bus != nil {
		h.bus.Publish(events.EventSignalReceived, sig)
	}

	// Validated -> AmountResolved
	amount, reply, ok := h.resolveAmount(ctx, pair, side, sig.Amount)
	if !ok {
		return reply
	}

	log := logrus.WithFields(logrus.Fields{
		"pair":   pair,
		"side":   side,
		"amount": amount.String(),
	})

	// AmountResolved -> Submitted
	outcome, err := h.submit(ctx, pair, side, amount)

	// Submitted -> Reported. The status store is updated even on failure:
	// "last signal received" is not "last order filled".
	summary := string(side) + " " + pair
	now := time.Now()
	h.store.RecordSignal(summary, now)

	if err != nil {
		log.WithError(err).Error("order submission failed")
		h.report(summary, amount, false, "", err.Error())
		return errorReply(http.StatusInternalServerError, CodeTransport, err.Error())
	}

	if outcome.Kind == pionex.OutcomeFilled {
		h.store.RecordFill(outcome.OrderID, now)
		log.WithField("order_id", outcome.OrderID).Info("order filled")
		h.report(summary, amount, true, outcome.OrderID, string(outcome.Raw))
		return Reply{HTTPStatus: http.StatusOK, Body: outcome.Raw}
	}

	// Exchange rejection: forward its status and message verbatim.
	log.WithFields(logrus.Fields{
		"code": outcome.Code,
		"msg":  outcome.Message,
	}).Warn("order rejected by exchange")
	h.report(summary, amount, false, "", string(outcome.Raw))

	httpStatus := outcome.HTTPStatus
	if httpStatus < 400 {
		httpStatus = http.StatusBadGateway
	}
	return Reply{HTTPStatus: httpStatus, Body: outcome.Raw}
}

// resolveAmount applies the sizing policy. Explicit amounts must be positive
// decimals. Omitted amounts fall back to the free balance: the quote asset
// for buys, the base asset for sells. An explicit sell amount is taken as
// base-currency quantity; no price conversion is attempted.
func (h *Handler) resolveAmount(ctx context.Context, pair string, side pionex.Side, raw json.RawMessage) (decimal.Decimal, Reply, bool) {
	if s := strings.TrimSpace(string(raw)); s != "" && s != "null" {
		d, err := decimal.NewFromString(strings.Trim(s, `"`))
		if err != nil || d.Sign() <= 0 {
			return decimal.Zero, errorReply(http.StatusBadRequest, CodeInvalidAmount, fmt.Sprintf("amount %s is not a positive number", s)), false
		}
		return d, Reply{}, true
	}

	asset := h.cfg.QuoteAsset
	if side == pionex.SideSell {
		asset = BaseAsset(pair, h.cfg.QuoteAsset)
	}

	free, err := h.venue.FreeBalance(ctx, asset)
	if err != nil {
		logrus.WithError(err).WithField("asset", asset).Error("balance query failed")
		h.notifier.Send("Balance query failed", err.Error())
		return decimal.Zero, errorReply(http.StatusInternalServerError, CodeBalanceQuery, err.Error()), false
	}

	// A buy funded from the quote balance must clear the venue minimum;
	// a sell just needs something to liquidate.
	insufficient := free.Sign() <= 0
	if side == pionex.SideBuy && free.LessThan(h.cfg.MinNotional) {
		insufficient = true
	}
	if insufficient {
		msg := fmt.Sprintf("free %s balance %s is below the tradable minimum", asset, free.String())
		h.notifier.Send("Signal skipped: insufficient balance", msg)
		return decimal.Zero, errorReply(http.StatusBadRequest, CodeInsufficientBalance, msg), false
	}
	return free, Reply{}, true
}

func (h *Handler) submit(ctx context.Context, pair string, side pionex.Side, amount decimal.Decimal) (*pionex.OrderOutcome, error) {
	if h.cfg.DryRun {
		orderID := "dry-" + uuid.NewString()
		raw, _ := json.Marshal(map[string]any{
			"symbol":  pair,
			"status":  "FILLED",
			"orderId": orderID,
			"dryRun":  true,
		})
		return &pionex.OrderOutcome{Kind: pionex.OutcomeFilled, OrderID: orderID, Raw: raw}, nil
	}

	return h.venue.PlaceMarketOrder(ctx, pionex.OrderRequest{
		Symbol:        pair,
		Side:          side,
		Amount:        amount,
		ClientOrderID: uuid.NewString(),
	})
}

// report alerts a human and feeds the live stream. Notifier errors are logged
// inside the notifier and never affect the reply.
func (h *Handler) report(summary string, amount decimal.Decimal, success bool, orderID, detail string) {
	subject := "Order executed: " + summary
	if !success {
		subject = "Order failed: " + summary
	}
	body := fmt.Sprintf("Signal: %s\nAmount: %s\n\nExchange response:\n%s", summary, amount.String(), detail)
	h.notifier.Send(subject, body)

	if h.bus != nil {
		parts := strings.SplitN(summary, " ", 2)
		rep := events.OrderReport{
			Side:    parts[0],
			Amount:  amount.String(),
			Success: success,
			OrderID: orderID,
			Detail:  detail,
		}
		if len(parts) == 2 {
			rep.Pair = parts[1]
		}
		h.bus.Publish(events.EventOrderReported, rep)
	}
}
