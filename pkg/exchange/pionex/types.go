package pionex

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Side is an order direction.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// ParseSide normalizes a signal side. Anything outside buy/sell is rejected
// before any network call happens.
func ParseSide(s string) (Side, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY":
		return SideBuy, true
	case "SELL":
		return SideSell, true
	default:
		return "", false
	}
}

// OrderRequest describes one market order. Amount is quote-currency notional
// for a buy ("spend this much USDT") and base-currency quantity for a sell
// ("liquidate this many coins"). The two are never interchangeable.
type OrderRequest struct {
	Symbol        string
	Side          Side
	Amount        decimal.Decimal
	ClientOrderID string
}

// OutcomeKind classifies an acknowledged exchange response.
type OutcomeKind string

const (
	OutcomeFilled   OutcomeKind = "FILLED"
	OutcomeRejected OutcomeKind = "REJECTED"
)

// OrderOutcome is the exchange's answer to an order. Transport faults (no
// answer at all) are returned as errors instead, so an OrderOutcome always
// reflects something the exchange actually said.
type OrderOutcome struct {
	Kind     OutcomeKind
	OrderID  string
	AvgPrice decimal.Decimal

	// Rejection details, forwarded verbatim.
	HTTPStatus int
	Code       string
	Message    string

	// Raw response body for notification and pass-through to the caller.
	Raw json.RawMessage
}

// TransportError marks a failure to get any structured answer from the
// exchange: connect errors, timeouts, non-JSON bodies.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("exchange transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// BalanceQueryError marks a failed balance lookup. It must propagate instead
// of degrading to a zero balance, so connectivity faults do not masquerade as
// "nothing to sell".
type BalanceQueryError struct {
	Asset string
	Err   error
}

func (e *BalanceQueryError) Error() string {
	return fmt.Sprintf("balance query for %s: %v", e.Asset, e.Err)
}

func (e *BalanceQueryError) Unwrap() error { return e.Err }
