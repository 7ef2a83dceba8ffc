package engine

import "pump_bot/internal/models"

// trailingStopHit двигает пик и проверяет просадку от него. Только чистая математика.
func trailingStopHit(p *models.Position, price float64, cfg Config) bool {
	if price > p.PeakPrice {
		p.PeakPrice = price
	}
	if p.PeakPrice <= 0 {
		return false
	}
	drawdown := (p.PeakPrice - price) / p.PeakPrice
	return drawdown >= cfg.TrailPct
}

// pumpDetected кладёт тик в окно, чистит всё старше окна и проверяет рост
// от самой старой цены.
func pumpDetected(w *priceWindow, now int64, price float64, cfg Config) bool {
	w.push(models.PriceSample{Ts: now, Price: price})
	w.pruneBefore(now - cfg.windowSecs())

	if w.len() < cfg.MinSamples {
		return false
	}
	oldest := w.front().Price
	if oldest <= cfg.MinPrice {
		return false
	}
	increase := (price - oldest) / oldest
	return increase >= cfg.PumpPct
}
