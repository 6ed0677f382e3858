package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/fx-booking-transformer/internal/accessor"
)

// Base holds the hedge staging fields every aggregated record carries,
// whatever its instruction event.
type Base struct {
	Contract           string          `json:"contract"`
	Comment0           string          `json:"comment0"`
	Typology           string          `json:"typology"`
	LegType            string          `json:"legType"`
	Portfolio          string          `json:"portfolio"`
	Counterparty       string          `json:"counterparty"`
	BuySell            string          `json:"buySell"`
	Currency1          string          `json:"currency1"`
	Currency2          string          `json:"currency2"`
	Amount1            decimal.Decimal `json:"amount1"`
	Amount2            decimal.Decimal `json:"amount2"`
	SpotRate           decimal.Decimal `json:"spotRate"`
	ForwardPoints      decimal.Decimal `json:"forwardPoints"`
	ContractRate       decimal.Decimal `json:"contractRate"`
	BusinessDate       time.Time       `json:"businessDate"`
	TradeDate          time.Time       `json:"tradeDate"`
	ValueDate          time.Time       `json:"valueDate"`
	MaturityDate       time.Time       `json:"maturityDate"`
	FixingDate         time.Time       `json:"fixingDate"`
	SettlementCurrency string          `json:"settlementCurrency"`
	TradeTimestamp     time.Time       `json:"tradeTimestamp"`
}

// BaseShape describes Base on its own.
var BaseShape = accessor.Define("Base", func() *Base { return &Base{} }, baseFields)

func (*Base) Shape() *accessor.Shape { return BaseShape }

// Common returns the base fields.
func (b *Base) Common() *Base { return b }

func baseFields() []accessor.Field {
	return []accessor.Field{
		accessor.String("contract", func(r *Base) string { return r.Contract }, func(r *Base, v string) { r.Contract = v }),
		accessor.String("comment0", func(r *Base) string { return r.Comment0 }, func(r *Base, v string) { r.Comment0 = v }),
		accessor.String("typology", func(r *Base) string { return r.Typology }, func(r *Base, v string) { r.Typology = v }),
		accessor.String("legType", func(r *Base) string { return r.LegType }, func(r *Base, v string) { r.LegType = v }),
		accessor.String("portfolio", func(r *Base) string { return r.Portfolio }, func(r *Base, v string) { r.Portfolio = v }),
		accessor.String("counterparty", func(r *Base) string { return r.Counterparty }, func(r *Base, v string) { r.Counterparty = v }),
		accessor.String("buySell", func(r *Base) string { return r.BuySell }, func(r *Base, v string) { r.BuySell = v }),
		accessor.String("currency1", func(r *Base) string { return r.Currency1 }, func(r *Base, v string) { r.Currency1 = v }),
		accessor.String("currency2", func(r *Base) string { return r.Currency2 }, func(r *Base, v string) { r.Currency2 = v }),
		accessor.Decimal("amount1", func(r *Base) decimal.Decimal { return r.Amount1 }, func(r *Base, v decimal.Decimal) { r.Amount1 = v }),
		accessor.Decimal("amount2", func(r *Base) decimal.Decimal { return r.Amount2 }, func(r *Base, v decimal.Decimal) { r.Amount2 = v }),
		accessor.Decimal("spotRate", func(r *Base) decimal.Decimal { return r.SpotRate }, func(r *Base, v decimal.Decimal) { r.SpotRate = v }),
		accessor.Decimal("forwardPoints", func(r *Base) decimal.Decimal { return r.ForwardPoints }, func(r *Base, v decimal.Decimal) { r.ForwardPoints = v }),
		accessor.Decimal("contractRate", func(r *Base) decimal.Decimal { return r.ContractRate }, func(r *Base, v decimal.Decimal) { r.ContractRate = v }),
		accessor.Date("businessDate", func(r *Base) time.Time { return r.BusinessDate }, func(r *Base, v time.Time) { r.BusinessDate = v }),
		accessor.Date("tradeDate", func(r *Base) time.Time { return r.TradeDate }, func(r *Base, v time.Time) { r.TradeDate = v }),
		accessor.Date("valueDate", func(r *Base) time.Time { return r.ValueDate }, func(r *Base, v time.Time) { r.ValueDate = v }),
		accessor.Date("maturityDate", func(r *Base) time.Time { return r.MaturityDate }, func(r *Base, v time.Time) { r.MaturityDate = v }),
		accessor.Date("fixingDate", func(r *Base) time.Time { return r.FixingDate }, func(r *Base, v time.Time) { r.FixingDate = v }),
		accessor.String("settlementCurrency", func(r *Base) string { return r.SettlementCurrency }, func(r *Base, v string) { r.SettlementCurrency = v }),
		accessor.DateTime("tradeTimestamp", func(r *Base) time.Time { return r.TradeTimestamp }, func(r *Base, v time.Time) { r.TradeTimestamp = v }),
	}
}
