package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vitos/box_theory_bot/internal/domain"
)

const (
	BinanceBaseURL = "https://api.binance.com"
	BinanceWSURL   = "wss://stream.binance.com:9443/ws"
)

type BinanceAdapter struct {
	apiKey    string
	apiSecret string
	baseURL   string
	wsURL     string
	client    *http.Client

	wsConn    *websocket.Conn
	callbacks []func(symbol string, price float64)
	mu        sync.Mutex
}

func NewBinanceAdapter(apiKey, apiSecret, baseURL, wsURL string) *BinanceAdapter {
	if baseURL == "" {
		baseURL = BinanceBaseURL
	}
	if wsURL == "" {
		wsURL = BinanceWSURL
	}
	return &BinanceAdapter{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		baseURL:   baseURL,
		wsURL:     wsURL,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// --- REST API ---

func (b *BinanceAdapter) sign(query string) string {
	h := hmac.New(sha256.New, []byte(b.apiSecret))
	h.Write([]byte(query))
	return hex.EncodeToString(h.Sum(nil))
}

// sendSigned issues an authenticated request; params are carried in the
// query string with a timestamp and HMAC signature appended.
func (b *BinanceAdapter) sendSigned(ctx context.Context, method, path string, params url.Values) ([]byte, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
	params.Set("recvWindow", "5000")

	query := params.Encode()
	query += "&signature=" + b.sign(query)

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path+"?"+query, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-MBX-APIKEY", b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Code int    `json:"code"`
			Msg  string `json:"msg"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Msg != "" {
			return nil, fmt.Errorf("binance error %d: %s", apiErr.Code, apiErr.Msg)
		}
		return nil, fmt.Errorf("binance error: %s", string(body))
	}

	return body, nil
}

func (b *BinanceAdapter) sendPublic(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+path, nil)
	if err != nil {
		return nil, err
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("binance error: %s", string(body))
	}

	return body, nil
}

// GetCandles fetches klines ascending by open time. Binance returns each
// bar as a mixed-type JSON array: [openTime, open, high, low, close,
// volume, closeTime, ...], prices as strings.
func (b *BinanceAdapter) GetCandles(ctx context.Context, symbol, interval string, since time.Time, limit int) ([]domain.Candle, error) {
	path := fmt.Sprintf("/api/v3/klines?symbol=%s&interval=%s&startTime=%d&limit=%d",
		symbol, interval, since.UnixMilli(), limit)
	resp, err := b.sendPublic(ctx, path)
	if err != nil {
		return nil, err
	}

	var rows [][]interface{}
	if err := json.Unmarshal(resp, &rows); err != nil {
		return nil, err
	}

	candles := make([]domain.Candle, 0, len(rows))
	for _, raw := range rows {
		if len(raw) < 6 {
			continue
		}
		ts, ok := raw[0].(float64)
		if !ok {
			continue
		}
		open := parseFloatField(raw[1])
		high := parseFloatField(raw[2])
		low := parseFloatField(raw[3])
		closePrice := parseFloatField(raw[4])
		volume := parseFloatField(raw[5])

		candles = append(candles, domain.Candle{
			OpenTime: time.UnixMilli(int64(ts)).UTC(),
			Open:     open,
			High:     high,
			Low:      low,
			Close:    closePrice,
			Volume:   volume,
		})
	}

	return candles, nil
}

func parseFloatField(v interface{}) float64 {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

// GetBalance returns the total (free plus locked) amount of one asset on the
// spot account.
func (b *BinanceAdapter) GetBalance(ctx context.Context, asset string) (float64, error) {
	resp, err := b.sendSigned(ctx, http.MethodGet, "/api/v3/account", nil)
	if err != nil {
		return 0, err
	}

	var result struct {
		Balances []struct {
			Asset  string `json:"asset"`
			Free   string `json:"free"`
			Locked string `json:"locked"`
		} `json:"balances"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return 0, err
	}

	for _, bal := range result.Balances {
		if bal.Asset == asset {
			free, err := strconv.ParseFloat(bal.Free, 64)
			if err != nil {
				return 0, fmt.Errorf("bad balance value %q: %w", bal.Free, err)
			}
			locked, err := strconv.ParseFloat(bal.Locked, 64)
			if err != nil {
				return 0, fmt.Errorf("bad balance value %q: %w", bal.Locked, err)
			}
			return free + locked, nil
		}
	}
	return 0, fmt.Errorf("asset %s not found in account", asset)
}

func (b *BinanceAdapter) MarketBuy(ctx context.Context, symbol string, quantity float64) (*domain.Fill, error) {
	return b.marketOrder(ctx, symbol, "BUY", quantity)
}

func (b *BinanceAdapter) MarketSell(ctx context.Context, symbol string, quantity float64) (*domain.Fill, error) {
	return b.marketOrder(ctx, symbol, "SELL", quantity)
}

func (b *BinanceAdapter) marketOrder(ctx context.Context, symbol, side string, quantity float64) (*domain.Fill, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("side", side)
	params.Set("type", "MARKET")
	params.Set("quantity", strconv.FormatFloat(quantity, 'f', -1, 64))

	resp, err := b.sendSigned(ctx, http.MethodPost, "/api/v3/order", params)
	if err != nil {
		return nil, err
	}

	var result struct {
		ExecutedQty         string `json:"executedQty"`
		CummulativeQuoteQty string `json:"cummulativeQuoteQty"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, err
	}

	executed, _ := strconv.ParseFloat(result.ExecutedQty, 64)
	quote, _ := strconv.ParseFloat(result.CummulativeQuoteQty, 64)

	fill := &domain.Fill{Quantity: executed}
	if executed > 0 {
		fill.Price = quote / executed
	}
	return fill, nil
}

// GetSymbolInfo resolves the sizing metadata for a spot symbol: quantity
// precision from the LOT_SIZE step and the minimum notional filter.
func (b *BinanceAdapter) GetSymbolInfo(ctx context.Context, symbol string) (*domain.SymbolInfo, error) {
	resp, err := b.sendPublic(ctx, "/api/v3/exchangeInfo?symbol="+symbol)
	if err != nil {
		return nil, err
	}

	var result struct {
		Symbols []struct {
			Symbol     string `json:"symbol"`
			BaseAsset  string `json:"baseAsset"`
			QuoteAsset string `json:"quoteAsset"`
			Filters    []struct {
				FilterType  string `json:"filterType"`
				StepSize    string `json:"stepSize"`
				MinNotional string `json:"minNotional"`
			} `json:"filters"`
		} `json:"symbols"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, err
	}
	if len(result.Symbols) == 0 {
		return nil, fmt.Errorf("symbol %s not found", symbol)
	}

	raw := result.Symbols[0]
	info := &domain.SymbolInfo{
		Symbol:     raw.Symbol,
		BaseAsset:  raw.BaseAsset,
		QuoteAsset: raw.QuoteAsset,
	}
	for _, f := range raw.Filters {
		switch f.FilterType {
		case "LOT_SIZE":
			info.QuantityPrecision = stepPrecision(f.StepSize)
		case "NOTIONAL", "MIN_NOTIONAL":
			info.MinNotional, _ = strconv.ParseFloat(f.MinNotional, 64)
		}
	}
	return info, nil
}

// stepPrecision converts a lot step like "0.01000000" into its number of
// significant decimal places (2).
func stepPrecision(step string) int {
	s := strings.TrimRight(step, "0")
	if i := strings.Index(s, "."); i >= 0 {
		return len(s) - i - 1
	}
	return 0
}

// --- WebSocket ---

// OnPriceUpdate registers a callback for streamed last prices.
func (b *BinanceAdapter) OnPriceUpdate(callback func(symbol string, price float64)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.callbacks = append(b.callbacks, callback)
}

// Subscribe connects the miniTicker stream for the given symbols, dialing
// on first use.
func (b *BinanceAdapter) Subscribe(symbols []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.wsConn == nil {
		c, _, err := websocket.DefaultDialer.Dial(b.wsURL, nil)
		if err != nil {
			return err
		}
		b.wsConn = c
		go b.readLoop(c)
	}

	if len(symbols) == 0 {
		return nil
	}
	params := make([]string, len(symbols))
	for i, s := range symbols {
		params[i] = strings.ToLower(s) + "@miniTicker"
	}
	return b.wsConn.WriteJSON(map[string]interface{}{
		"method": "SUBSCRIBE",
		"params": params,
		"id":     time.Now().UnixMilli(),
	})
}

func (b *BinanceAdapter) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.wsConn != nil {
		b.wsConn.Close()
		b.wsConn = nil
	}
}

func (b *BinanceAdapter) readLoop(conn *websocket.Conn) {
	defer func() {
		conn.Close()
		b.mu.Lock()
		if b.wsConn == conn {
			b.wsConn = nil
		}
		b.mu.Unlock()
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Println("WS read error:", err)
			return
		}

		var event struct {
			EventType string `json:"e"`
			Symbol    string `json:"s"`
			Close     string `json:"c"`
		}
		if err := json.Unmarshal(message, &event); err != nil {
			continue
		}
		if event.EventType != "24hrMiniTicker" {
			continue
		}

		price, err := strconv.ParseFloat(event.Close, 64)
		if err != nil {
			continue
		}

		b.mu.Lock()
		callbacks := make([]func(string, float64), len(b.callbacks))
		copy(callbacks, b.callbacks)
		b.mu.Unlock()

		for _, cb := range callbacks {
			cb(event.Symbol, price)
		}
	}
}
