package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"pump_bot/internal/models"
)

func formatStatus(running bool, positions []models.Position) string {
	sort.Slice(positions, func(i, j int) bool { return positions[i].Symbol < positions[j].Symbol })

	var b strings.Builder
	fmt.Fprintf(&b, "*📊 Status*\n\nState: *%s*\nActive: `%d`\n", onOff(running), len(positions))
	for _, p := range positions {
		fmt.Fprintf(&b, "▫️ %s | buy %s | peak %s\n", p.Symbol, f4(p.EntryPrice), f4(p.PeakPrice))
	}
	return b.String()
}

// formatReport — сумма считается в decimal, чтобы сотня мелких сделок не давала хвостов.
func formatReport(trades []models.ClosedTrade) string {
	net := decimal.Zero
	for _, tr := range trades {
		net = net.Add(decimal.NewFromFloat(tr.ProfitQuote))
	}
	return fmt.Sprintf("*📈 Report*\n\nTrades: `%d`\nNet PNL: `%s USDT`", len(trades), net.StringFixed(2))
}
