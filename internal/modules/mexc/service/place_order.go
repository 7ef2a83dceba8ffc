package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"pump_bot/internal/models"
	"pump_bot/pkg/tracing"
)

var ErrEmptyCreds = errors.New("mexc: api key/secret are empty")

// Credentials копируются из состояния до вызова, держать лок во время запроса нельзя.
type Credentials struct {
	APIKey    string
	APISecret string
}

// OrderRequest — рыночный ордер. Для BUY задаётся QuoteQty (сумма в USDT),
// для SELL — Quantity в базовой монете.
type OrderRequest struct {
	Symbol   string
	Side     models.Side
	QuoteQty float64
	Quantity float64
}

// PlaceMarketOrder отправляет подписанный POST /api/v3/order.
// Успех — любой 2xx, тело ответа не разбираем.
func (c *Client) PlaceMarketOrder(ctx context.Context, creds Credentials, req OrderRequest) (err error) {
	span, ctx := tracing.StartSpan(ctx, "mexc.place_order")
	span.SetTag("symbol", req.Symbol)
	span.SetTag("side", string(req.Side))
	defer func() { tracing.Finish(span, err) }()

	if creds.APIKey == "" || creds.APISecret == "" {
		return ErrEmptyCreds
	}

	query, err := c.orderQuery(req)
	if err != nil {
		return err
	}
	signature := sign(creds.APISecret, query)
	url := fmt.Sprintf("%s/api/v3/order?%s&signature=%s", c.baseURL, query, signature)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return errors.Wrap(err, "mexc order: new request")
	}
	httpReq.Header.Set(apiKeyHeader, creds.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return errors.Wrapf(err, "mexc order %s %s", req.Side, req.Symbol)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		rb, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return errors.Errorf("mexc order %s %s: http %d: %s",
			req.Side, req.Symbol, resp.StatusCode, strings.TrimSpace(string(rb)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// orderQuery собирает строку параметров в том порядке, в каком её подписываем.
// Порядок и формат чисел менять нельзя: биржа считает HMAC по тем же байтам.
func (c *Client) orderQuery(req OrderRequest) (string, error) {
	if req.Symbol == "" {
		return "", errors.New("mexc order: empty symbol")
	}

	var b strings.Builder
	b.WriteString("symbol=")
	b.WriteString(req.Symbol)
	b.WriteString("&side=")
	b.WriteString(string(req.Side))
	b.WriteString("&type=MARKET&timestamp=")
	b.WriteString(strconv.FormatInt(c.now().UnixMilli(), 10))
	b.WriteString("&recvWindow=")
	b.WriteString(strconv.FormatInt(c.recvWindow, 10))

	switch req.Side {
	case models.SideBuy:
		if !(req.QuoteQty > 0) {
			return "", errors.Errorf("mexc order: quoteOrderQty must be > 0, got %v", req.QuoteQty)
		}
		b.WriteString("&quoteOrderQty=")
		b.WriteString(formatQuoteQty(req.QuoteQty))
	case models.SideSell:
		if !(req.Quantity > 0) {
			return "", errors.Errorf("mexc order: quantity must be > 0, got %v", req.Quantity)
		}
		b.WriteString("&quantity=")
		b.WriteString(formatQuantity(req.Quantity))
	default:
		return "", errors.Errorf("mexc order: unknown side %q", req.Side)
	}
	return b.String(), nil
}

// formatQuoteQty — кратчайшее десятичное представление без экспоненты (100, 12.5).
func formatQuoteQty(v float64) string {
	return decimal.NewFromFloat(v).String()
}

// formatQuantity — ровно 4 знака после точки.
func formatQuantity(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
