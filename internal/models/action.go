package models

// Side как на бирже: "BUY"/"SELL".
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// TradeAction — единственный контракт между детектором и исполнителем.
// Для Buy заполнены Symbol и Price, для Sell ещё Quantity и EntryPrice.
type TradeAction struct {
	Side       Side
	Symbol     string
	Price      float64
	Quantity   float64
	EntryPrice float64
}

func NewBuy(symbol string, price float64) TradeAction {
	return TradeAction{Side: SideBuy, Symbol: symbol, Price: price}
}

func NewSell(symbol string, price, quantity, entryPrice float64) TradeAction {
	return TradeAction{
		Side:       SideSell,
		Symbol:     symbol,
		Price:      price,
		Quantity:   quantity,
		EntryPrice: entryPrice,
	}
}

func (a TradeAction) IsBuy() bool  { return a.Side == SideBuy }
func (a TradeAction) IsSell() bool { return a.Side == SideSell }
