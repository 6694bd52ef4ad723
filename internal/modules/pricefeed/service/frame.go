package service

import (
	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"
)

type miniTicker struct {
	Event  string `json:"e"`
	Symbol string `json:"s"`
	Close  string `json:"c"`
}

// ParseMiniTicker accepts both a raw mini-ticker payload and the combined-stream
// envelope {"stream":..., "data":{...}}.
func ParseMiniTicker(msg []byte) (string, decimal.Decimal, bool) {
	var envelope struct {
		Stream string     `json:"stream"`
		Data   miniTicker `json:"data"`
	}
	if err := sonic.Unmarshal(msg, &envelope); err != nil {
		return "", decimal.Zero, false
	}
	t := envelope.Data
	if envelope.Stream == "" {
		if err := sonic.Unmarshal(msg, &t); err != nil {
			return "", decimal.Zero, false
		}
	}
	if t.Symbol == "" || t.Close == "" {
		return "", decimal.Zero, false
	}

	price, err := decimal.NewFromString(t.Close)
	if err != nil || !price.IsPositive() {
		return "", decimal.Zero, false
	}
	return t.Symbol, price, true
}
