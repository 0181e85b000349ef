package bridge

import (
	"encoding/json"
	"strings"
)

// Signal is the inbound alert body. Amount is kept raw because alerting tools
// send it as either a JSON number or a string; it is parsed (and rejected)
// during amount resolution, not during binding. ID is the optional
// idempotency key for duplicate suppression.
type Signal struct {
	Pair   string          `json:"pair"`
	Side   string          `json:"signal"`
	Amount json.RawMessage `json:"amount,omitempty"`
	ID     string          `json:"id,omitempty"`
}

// NormalizePair folds an alert pair like "btc/usdt" into the exchange symbol
// form "BTCUSDT".
func NormalizePair(pair string) string {
	r := strings.NewReplacer("/", "", "_", "", "-", "", " ", "")
	return strings.ToUpper(r.Replace(strings.TrimSpace(pair)))
}

// BaseAsset strips the quote suffix from a symbol: BTCUSDT/USDT -> BTC.
// Symbols that do not end in the quote asset are returned unchanged.
func BaseAsset(symbol, quote string) string {
	if strings.HasSuffix(symbol, quote) && len(symbol) > len(quote) {
		return strings.TrimSuffix(symbol, quote)
	}
	return symbol
}

// Reply is what the HTTP layer writes back: a status code and a JSON body.
// Body may be a json.RawMessage when the exchange response is forwarded
// verbatim.
type Reply struct {
	HTTPStatus int
	Body       any
}

func errorReply(status int, code, message string) Reply {
	return Reply{
		HTTPStatus: status,
		Body: map[string]any{
			"code":  code,
			"error": message,
		},
	}
}

// Error taxonomy codes surfaced to callers.
const (
	CodeInvalidSignal       = "INVALID_SIGNAL"
	CodeInvalidAmount       = "INVALID_AMOUNT"
	CodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	CodeBalanceQuery        = "BALANCE_QUERY_ERROR"
	CodeTransport           = "TRANSPORT_ERROR"
	CodeDuplicate           = "DUPLICATE_SIGNAL"
)
