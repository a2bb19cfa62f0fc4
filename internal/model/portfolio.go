package model

import "github.com/shopspring/decimal"

type CashBalance struct {
	Total     decimal.Decimal `json:"total"`
	Available decimal.Decimal `json:"available"`
	Reserved  decimal.Decimal `json:"reserved"`
}

type Quantity struct {
	Total     decimal.Decimal `json:"total"`
	Available decimal.Decimal `json:"available"`
	Reserved  decimal.Decimal `json:"reserved"`
}

type Position struct {
	InstrumentID       string          `json:"instrument_id"`
	Quantity           Quantity        `json:"quantity"`
	AverageCost        decimal.Decimal `json:"average_cost"`
	CurrentPrice       decimal.Decimal `json:"current_price"`
	MarketValue        decimal.Decimal `json:"market_value"`
	RealizedGains      decimal.Decimal `json:"realized_gains"`
	TotalReturnPercent decimal.Decimal `json:"total_return_percent"`
}

type Portfolio struct {
	UserID    string      `json:"user_id"`
	Cash      CashBalance `json:"cash_balance"`
	Positions []Position  `json:"positions"`
}
