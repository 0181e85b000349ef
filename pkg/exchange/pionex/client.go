package pionex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"signal-bridge/pkg/config"
	"signal-bridge/pkg/exchange/sign"
)

// Client talks to the exchange REST API described by its profile. One client,
// one exchange, one signing scheme for the process lifetime.
type Client struct {
	profile    config.ExchangeProfile
	signer     *sign.Signer
	httpClient *http.Client
}

// ClientOption customizes the client at construction.
type ClientOption func(*Client)

// WithTimeout bounds every outbound call. The exchange is the only
// unbounded-latency dependency in the request path, so this must stay set.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient swaps the underlying HTTP client (tests).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates an exchange client.
func New(profile config.ExchangeProfile, signer *sign.Signer, opts ...ClientOption) *Client {
	c := &Client{
		profile:    profile,
		signer:     signer,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetServerTime fetches the exchange clock in ms. Unsigned.
func (c *Client) GetServerTime(ctx context.Context) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.profile.BaseURL+c.profile.TimePath, nil)
	if err != nil {
		return 0, err
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return 0, &TransportError{Op: "server time", Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		b, _ := io.ReadAll(res.Body)
		return 0, fmt.Errorf("server time status %d: %s", res.StatusCode, string(b))
	}
	var out struct {
		ServerTime int64 `json:"serverTime"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode server time: %w", err)
	}
	return out.ServerTime, nil
}

// FreeBalance returns the free balance of one asset. An asset missing from
// the account response is a normal no-holdings case and reads as zero; any
// transport or HTTP failure is a BalanceQueryError and must not be flattened
// to zero.
func (c *Client) FreeBalance(ctx context.Context, asset string) (decimal.Decimal, error) {
	body, status, err := c.doSigned(ctx, http.MethodGet, c.profile.BalancePath, url.Values{}, nil)
	if err != nil {
		return decimal.Zero, &BalanceQueryError{Asset: asset, Err: err}
	}
	if status >= 300 {
		return decimal.Zero, &BalanceQueryError{
			Asset: asset,
			Err:   fmt.Errorf("account endpoint status %d: %s", status, truncate(body, 256)),
		}
	}

	var account struct {
		Balances []struct {
			Asset string `json:"asset"`
			Free  string `json:"free"`
		} `json:"balances"`
	}
	if err := json.Unmarshal(body, &account); err != nil {
		return decimal.Zero, &BalanceQueryError{Asset: asset, Err: fmt.Errorf("decode account: %w", err)}
	}

	for _, b := range account.Balances {
		if !strings.EqualFold(b.Asset, asset) {
			continue
		}
		free, err := decimal.NewFromString(b.Free)
		if err != nil {
			return decimal.Zero, &BalanceQueryError{Asset: asset, Err: fmt.Errorf("bad free amount %q: %w", b.Free, err)}
		}
		return free, nil
	}
	return decimal.Zero, nil
}

// orderBody is the wire form of a market order. Exactly one of quoteOrderQty
// and quantity is set, depending on side.
type orderBody struct {
	Symbol        string `json:"symbol"`
	Side          string `json:"side"`
	Type          string `json:"type"`
	QuoteOrderQty string `json:"quoteOrderQty,omitempty"`
	Quantity      string `json:"quantity,omitempty"`
	ClientOrderID string `json:"newClientOrderId,omitempty"`
}

// PlaceMarketOrder submits one market order and classifies the exchange's
// answer. No retries: a rejection or transport fault is terminal for the
// signal that caused it.
func (c *Client) PlaceMarketOrder(ctx context.Context, req OrderRequest) (*OrderOutcome, error) {
	ob := orderBody{
		Symbol:        req.Symbol,
		Side:          string(req.Side),
		Type:          "MARKET",
		ClientOrderID: req.ClientOrderID,
	}
	if req.Side == SideBuy {
		ob.QuoteOrderQty = req.Amount.String()
	} else {
		ob.Quantity = req.Amount.String()
	}

	// Serialized once; the same bytes are signed and transmitted.
	payload, err := json.Marshal(ob)
	if err != nil {
		return nil, fmt.Errorf("encode order: %w", err)
	}

	body, status, err := c.doSigned(ctx, http.MethodPost, c.profile.OrderPath, url.Values{}, payload)
	if err != nil {
		return nil, err
	}
	return classifyOrderResponse(status, body)
}

func classifyOrderResponse(status int, body []byte) (*OrderOutcome, error) {
	var resp struct {
		OrderID  json.Number `json:"orderId"`
		Status   string      `json:"status"`
		AvgPrice string      `json:"avgPrice"`
		Code     json.Number `json:"code"`
		Msg      string      `json:"msg"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &TransportError{Op: "order response", Err: fmt.Errorf("non-JSON body (status %d): %s", status, truncate(body, 256))}
	}

	out := &OrderOutcome{Raw: append(json.RawMessage(nil), body...)}

	if status >= 300 {
		out.Kind = OutcomeRejected
		out.HTTPStatus = status
		out.Code = resp.Code.String()
		out.Message = resp.Msg
		return out, nil
	}

	// Some gateways answer 200 with a structured rejection in the body.
	if s := strings.ToUpper(resp.Status); s == "REJECTED" || s == "EXPIRED" {
		out.Kind = OutcomeRejected
		out.Code = resp.Code.String()
		out.Message = resp.Msg
		if out.Message == "" {
			out.Message = s
		}
		return out, nil
	}

	out.Kind = OutcomeFilled
	out.OrderID = resp.OrderID.String()
	if resp.AvgPrice != "" {
		if avg, err := decimal.NewFromString(resp.AvgPrice); err == nil {
			out.AvgPrice = avg
		}
	}
	return out, nil
}

// doSigned stamps, signs and performs a request. The signature placement
// follows the scheme: query-string schemes append &signature=, the others
// carry signature and timestamp in headers.
func (c *Client) doSigned(ctx context.Context, method, path string, params url.Values, body []byte) ([]byte, int, error) {
	ts := c.signer.Timestamp()
	params.Set("timestamp", strconv.FormatInt(ts, 10))
	if c.profile.RecvWindow > 0 {
		params.Set("recvWindow", strconv.FormatInt(c.profile.RecvWindow, 10))
	}
	query := params.Encode()
	signature := c.signer.SignAt(ts, method, path, query, body)

	inQuery := false
	switch c.signer.Scheme().Name() {
	case "query", "sorted-query":
		inQuery = true
	}

	reqURL := c.profile.BaseURL + path + "?" + query
	if inQuery {
		reqURL += "&signature=" + signature
	}

	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set(c.profile.KeyHeader, c.signer.APIKey())
	if !inQuery {
		req.Header.Set(c.profile.SignatureHeader, signature)
		req.Header.Set(c.profile.TimestampHeader, strconv.FormatInt(ts, 10))
	}
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, &TransportError{Op: method + " " + path, Err: err}
	}
	defer res.Body.Close()

	respBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, 0, &TransportError{Op: method + " " + path, Err: err}
	}
	return respBody, res.StatusCode, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
