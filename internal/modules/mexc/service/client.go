package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"pump_bot/internal/modules/config"
)

const (
	defaultRestURL    = "https://api.mexc.com"
	defaultRecvWindow = 5000
	apiKeyHeader      = "X-MEXC-APIKEY"
)

// Client — REST-часть MEXC spot: подписанные ордера и exchangeInfo.
type Client struct {
	http       *http.Client
	baseURL    string
	recvWindow int64
	now        func() time.Time
}

func NewClient(cfg *config.Config) *Client {
	timeout := cfg.Mexc.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return newClient(cfg.Mexc.RestURL, cfg.Mexc.RecvWindow, &http.Client{Timeout: timeout})
}

func newClient(baseURL string, recvWindow int64, hc *http.Client) *Client {
	if baseURL == "" {
		baseURL = defaultRestURL
	}
	if recvWindow <= 0 {
		recvWindow = defaultRecvWindow
	}
	return &Client{
		http:       hc,
		baseURL:    strings.TrimRight(baseURL, "/"),
		recvWindow: recvWindow,
		now:        time.Now,
	}
}

// sign — HMAC-SHA256 по точным байтам query-строки, hex в нижнем регистре.
func sign(secret, query string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(query))
	return hex.EncodeToString(h.Sum(nil))
}
