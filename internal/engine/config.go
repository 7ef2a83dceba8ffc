package engine

import (
	"fmt"
	"time"
)

// Config — пороги детектора. Значения по умолчанию: памп 5% за 30s минимум по 3 тикам,
// трейлинг-стоп 3% от пика.
type Config struct {
	Window     time.Duration
	MinSamples int
	PumpPct    float64
	TrailPct   float64
	MinPrice   float64
	FeeHaircut float64
}

func DefaultConfig() Config {
	return Config{
		Window:     30 * time.Second,
		MinSamples: 3,
		PumpPct:    0.05,
		TrailPct:   0.03,
		MinPrice:   1e-8,
		FeeHaircut: 0.998,
	}
}

func (c Config) Validate() error {
	if c.Window < time.Second {
		return fmt.Errorf("engine: window must be >= 1s, got %s", c.Window)
	}
	if c.MinSamples < 2 {
		return fmt.Errorf("engine: min_samples must be >= 2, got %d", c.MinSamples)
	}
	if c.PumpPct <= 0 || c.PumpPct >= 1 {
		return fmt.Errorf("engine: pump_pct must be in (0,1), got %v", c.PumpPct)
	}
	if c.TrailPct <= 0 || c.TrailPct >= 1 {
		return fmt.Errorf("engine: trail_pct must be in (0,1), got %v", c.TrailPct)
	}
	if c.MinPrice < 0 {
		return fmt.Errorf("engine: min_price must be >= 0, got %v", c.MinPrice)
	}
	if c.FeeHaircut <= 0 || c.FeeHaircut > 1 {
		return fmt.Errorf("engine: fee_haircut must be in (0,1], got %v", c.FeeHaircut)
	}
	return nil
}

func (c Config) windowSecs() int64 {
	return int64(c.Window / time.Second)
}
