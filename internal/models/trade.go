package models

import "time"

// CloseTimeLayout — формат времени в истории сделок и в отчётах оператору.
const CloseTimeLayout = "2006-01-02 15:04:05"

// PriceSample — одна цена в скользящем окне (ts в секундах).
type PriceSample struct {
	Ts    int64
	Price float64
}

// Position — открытая сделка. PeakPrice только растёт и не ниже EntryPrice.
// Ключи в файле те же, что писала прежняя версия бота: старый trades.json читается как есть.
type Position struct {
	Symbol     string  `json:"symbol" yaml:"symbol"`
	EntryPrice float64 `json:"buy_price" yaml:"buy_price"`
	PeakPrice  float64 `json:"peak_price" yaml:"peak_price"`
	Quantity   float64 `json:"quantity" yaml:"quantity"`
	OpenedAt   int64   `json:"timestamp" yaml:"timestamp"` // unix seconds
	EntryTime  string  `json:"entry_time_str" yaml:"entry_time_str"`
}

// ClosedTrade — запись истории, после создания не меняется.
type ClosedTrade struct {
	ID          string  `json:"id" yaml:"id"`
	Symbol      string  `json:"symbol" yaml:"symbol"`
	PnLPercent  float64 `json:"pnl_percent" yaml:"pnl_percent"`
	ProfitQuote float64 `json:"profit_usdt" yaml:"profit_usdt"`
	CloseTime   string  `json:"close_time" yaml:"close_time"`
}

// FormatTime приводит время к CloseTimeLayout в UTC.
func FormatTime(t time.Time) string {
	return t.UTC().Format(CloseTimeLayout)
}
