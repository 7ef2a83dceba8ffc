package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
)

const DealsChannelPrefix = "spot@public.deals.v3.api@"

// Deal — одна сделка из публичного канала deals.
type Deal struct {
	Symbol string
	Price  float64
}

type dealsFrame struct {
	Symbol string `json:"s"`
	Data   struct {
		Deals []struct {
			Price string `json:"p"`
		} `json:"deals"`
	} `json:"d"`
	// служебные ответы: {"id":0,"code":0,"msg":"PONG"}
	Msg string `json:"msg"`
}

// DecodeDeals разбирает фрейм канала сделок. Служебные фреймы дают (nil, 0, nil),
// сделки с кривой ценой пропускаются и считаются в dropped.
func DecodeDeals(frame []byte) (deals []Deal, dropped int, err error) {
	var f dealsFrame
	if err := sonic.Unmarshal(frame, &f); err != nil {
		return nil, 0, fmt.Errorf("decode deals frame: %w", err)
	}
	if f.Symbol == "" || len(f.Data.Deals) == 0 {
		return nil, 0, nil
	}

	deals = make([]Deal, 0, len(f.Data.Deals))
	for _, d := range f.Data.Deals {
		p, err := strconv.ParseFloat(strings.TrimSpace(d.Price), 64)
		if err != nil || math.IsNaN(p) || math.IsInf(p, 0) {
			dropped++
			continue
		}
		deals = append(deals, Deal{Symbol: f.Symbol, Price: p})
	}
	return deals, dropped, nil
}

type wsRequest struct {
	Method string   `json:"method"`
	Params []string `json:"params,omitempty"`
}

// SubscribeDeals — запрос подписки на сделки по пачке символов.
func SubscribeDeals(symbols []string) ([]byte, error) {
	params := make([]string, 0, len(symbols))
	for _, s := range symbols {
		params = append(params, DealsChannelPrefix+s)
	}
	return sonic.Marshal(wsRequest{Method: "SUBSCRIPTION", Params: params})
}

// Ping — keepalive для публичного стрима.
func Ping() []byte {
	b, _ := sonic.Marshal(wsRequest{Method: "PING"})
	return b
}
