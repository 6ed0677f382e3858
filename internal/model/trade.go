package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/fx-booking-transformer/internal/accessor"
)

// TradeLeg is one generated domain trade: a single leg to be booked.
//
// Key is stamped by the handler and is not part of the shape, so neither
// mapping nor overrides can change it.
type TradeLeg struct {
	Key GroupKey `json:"groupKey"`

	BookingID              string          `json:"bookingId"`
	LegIndex               int64           `json:"legIndex"`
	InstructionEvent       string          `json:"instructionEvent"`
	TransformationType     string          `json:"transformationType"`
	InputCurrency          string          `json:"inputCurrency"`
	SwapPairRef            string          `json:"swapPairRef,omitempty"`
	Contract               string          `json:"contract"`
	Comment0               string          `json:"comment0"`
	Typology               string          `json:"typology"`
	NavType                string          `json:"navType"`
	LegType                string          `json:"legType"`
	Portfolio              string          `json:"portfolio"`
	Counterparty           string          `json:"counterparty"`
	BuySell                string          `json:"buySell"`
	Currency1              string          `json:"currency1"`
	Currency2              string          `json:"currency2"`
	Amount1                decimal.Decimal `json:"amount1"`
	Amount2                decimal.Decimal `json:"amount2"`
	SpotRate               decimal.Decimal `json:"spotRate"`
	ForwardPoints          decimal.Decimal `json:"forwardPoints"`
	ContractRate           decimal.Decimal `json:"contractRate"`
	HistoricalExchangeRate decimal.Decimal `json:"historicalExchangeRate"`
	TradeDate              time.Time       `json:"tradeDate"`
	ValueDate              time.Time       `json:"valueDate"`
	MaturityDate           time.Time       `json:"maturityDate"`
	FixingDate             time.Time       `json:"fixingDate"`
	SettlementCurrency     string          `json:"settlementCurrency"`
	ExposureCurrency       string          `json:"exposureCurrency"`
	EntityID               string          `json:"entityId"`
	MurexComment           string          `json:"murexComment"`
}

// ExternalRecord is the external representation of a booked leg as it is
// sent downstream. The externalDealId, groupComment, groupNavType and
// groupTypology fields carry the group key of the source records.
type ExternalRecord struct {
	ID               string          `json:"id"`
	ExternalDealID   string          `json:"externalDealId"`
	GroupComment     string          `json:"groupComment"`
	GroupNavType     string          `json:"groupNavType"`
	GroupTypology    string          `json:"groupTypology"`
	InstructionEvent string          `json:"instructionEvent"`
	BookingID        string          `json:"bookingId"`
	LegIndex         int64           `json:"legIndex"`
	Comment0         string          `json:"comment0"`
	LegType          string          `json:"legType"`
	Portfolio        string          `json:"portfolio"`
	Counterparty     string          `json:"counterparty"`
	BuySell          string          `json:"buySell"`
	Currency1        string          `json:"currency1"`
	Currency2        string          `json:"currency2"`
	Amount1          decimal.Decimal `json:"amount1"`
	Amount2          decimal.Decimal `json:"amount2"`
	ContractRate     decimal.Decimal `json:"contractRate"`
	ValueDate        time.Time       `json:"valueDate"`
	MaturityDate     time.Time       `json:"maturityDate"`
	MurexComment     string          `json:"murexComment"`
	Status           string          `json:"status"`
	Exported         bool            `json:"exported"`
}

// StatusNew is the status of an external record that has not been sent.
const StatusNew = "NEW"

var (
	TradeLegShape       = accessor.Define("TradeLeg", func() *TradeLeg { return &TradeLeg{} }, tradeLegFields)
	ExternalRecordShape = accessor.Define("ExternalRecord", func() *ExternalRecord { return &ExternalRecord{} }, externalRecordFields)
)

func (*TradeLeg) Shape() *accessor.Shape       { return TradeLegShape }
func (*ExternalRecord) Shape() *accessor.Shape { return ExternalRecordShape }

// GroupKeyFields are the ExternalRecord fields that carry the group key.
// They are stamped from the group and never rewritten afterwards.
var GroupKeyFields = []string{"externalDealId", "groupComment", "groupNavType", "groupTypology"}

// IsGroupKeyField reports whether name is one of GroupKeyFields.
func IsGroupKeyField(name string) bool {
	for _, f := range GroupKeyFields {
		if f == name {
			return true
		}
	}
	return false
}

// Key returns the group key carried by the record.
func (r *ExternalRecord) Key() GroupKey {
	return GroupKey{
		ExternalDealID: r.ExternalDealID,
		Comment:        r.GroupComment,
		NavType:        r.GroupNavType,
		Typology:       Typology(r.GroupTypology),
	}
}

func tradeLegFields() []accessor.Field {
	type L = TradeLeg
	return []accessor.Field{
		accessor.String("bookingId", func(r *L) string { return r.BookingID }, func(r *L, v string) { r.BookingID = v }),
		accessor.Int("legIndex", func(r *L) int64 { return r.LegIndex }, func(r *L, v int64) { r.LegIndex = v }),
		accessor.String("instructionEvent", func(r *L) string { return r.InstructionEvent }, func(r *L, v string) { r.InstructionEvent = v }),
		accessor.String("transformationType", func(r *L) string { return r.TransformationType }, func(r *L, v string) { r.TransformationType = v }),
		accessor.String("inputCurrency", func(r *L) string { return r.InputCurrency }, func(r *L, v string) { r.InputCurrency = v }),
		accessor.String("swapPairRef", func(r *L) string { return r.SwapPairRef }, func(r *L, v string) { r.SwapPairRef = v }),
		accessor.String("contract", func(r *L) string { return r.Contract }, func(r *L, v string) { r.Contract = v }),
		accessor.String("comment0", func(r *L) string { return r.Comment0 }, func(r *L, v string) { r.Comment0 = v }),
		accessor.String("typology", func(r *L) string { return r.Typology }, func(r *L, v string) { r.Typology = v }),
		accessor.String("navType", func(r *L) string { return r.NavType }, func(r *L, v string) { r.NavType = v }),
		accessor.String("legType", func(r *L) string { return r.LegType }, func(r *L, v string) { r.LegType = v }),
		accessor.String("portfolio", func(r *L) string { return r.Portfolio }, func(r *L, v string) { r.Portfolio = v }),
		accessor.String("counterparty", func(r *L) string { return r.Counterparty }, func(r *L, v string) { r.Counterparty = v }),
		accessor.String("buySell", func(r *L) string { return r.BuySell }, func(r *L, v string) { r.BuySell = v }),
		accessor.String("currency1", func(r *L) string { return r.Currency1 }, func(r *L, v string) { r.Currency1 = v }),
		accessor.String("currency2", func(r *L) string { return r.Currency2 }, func(r *L, v string) { r.Currency2 = v }),
		accessor.Decimal("amount1", func(r *L) decimal.Decimal { return r.Amount1 }, func(r *L, v decimal.Decimal) { r.Amount1 = v }),
		accessor.Decimal("amount2", func(r *L) decimal.Decimal { return r.Amount2 }, func(r *L, v decimal.Decimal) { r.Amount2 = v }),
		accessor.Decimal("spotRate", func(r *L) decimal.Decimal { return r.SpotRate }, func(r *L, v decimal.Decimal) { r.SpotRate = v }),
		accessor.Decimal("forwardPoints", func(r *L) decimal.Decimal { return r.ForwardPoints }, func(r *L, v decimal.Decimal) { r.ForwardPoints = v }),
		accessor.Decimal("contractRate", func(r *L) decimal.Decimal { return r.ContractRate }, func(r *L, v decimal.Decimal) { r.ContractRate = v }),
		accessor.Decimal("historicalExchangeRate",
			func(r *L) decimal.Decimal { return r.HistoricalExchangeRate },
			func(r *L, v decimal.Decimal) { r.HistoricalExchangeRate = v }),
		accessor.Date("tradeDate", func(r *L) time.Time { return r.TradeDate }, func(r *L, v time.Time) { r.TradeDate = v }),
		accessor.Date("valueDate", func(r *L) time.Time { return r.ValueDate }, func(r *L, v time.Time) { r.ValueDate = v }),
		accessor.Date("maturityDate", func(r *L) time.Time { return r.MaturityDate }, func(r *L, v time.Time) { r.MaturityDate = v }),
		accessor.Date("fixingDate", func(r *L) time.Time { return r.FixingDate }, func(r *L, v time.Time) { r.FixingDate = v }),
		accessor.String("settlementCurrency", func(r *L) string { return r.SettlementCurrency }, func(r *L, v string) { r.SettlementCurrency = v }),
		accessor.String("exposureCurrency", func(r *L) string { return r.ExposureCurrency }, func(r *L, v string) { r.ExposureCurrency = v }),
		accessor.String("entityId", func(r *L) string { return r.EntityID }, func(r *L, v string) { r.EntityID = v }),
		accessor.String("murexComment", func(r *L) string { return r.MurexComment }, func(r *L, v string) { r.MurexComment = v }),
	}
}

func externalRecordFields() []accessor.Field {
	type X = ExternalRecord
	return []accessor.Field{
		accessor.String("id", func(r *X) string { return r.ID }, func(r *X, v string) { r.ID = v }),
		accessor.String("externalDealId", func(r *X) string { return r.ExternalDealID }, func(r *X, v string) { r.ExternalDealID = v }),
		accessor.String("groupComment", func(r *X) string { return r.GroupComment }, func(r *X, v string) { r.GroupComment = v }),
		accessor.String("groupNavType", func(r *X) string { return r.GroupNavType }, func(r *X, v string) { r.GroupNavType = v }),
		accessor.String("groupTypology", func(r *X) string { return r.GroupTypology }, func(r *X, v string) { r.GroupTypology = v }),
		accessor.String("instructionEvent", func(r *X) string { return r.InstructionEvent }, func(r *X, v string) { r.InstructionEvent = v }),
		accessor.String("bookingId", func(r *X) string { return r.BookingID }, func(r *X, v string) { r.BookingID = v }),
		accessor.Int("legIndex", func(r *X) int64 { return r.LegIndex }, func(r *X, v int64) { r.LegIndex = v }),
		accessor.String("comment0", func(r *X) string { return r.Comment0 }, func(r *X, v string) { r.Comment0 = v }),
		accessor.String("legType", func(r *X) string { return r.LegType }, func(r *X, v string) { r.LegType = v }),
		accessor.String("portfolio", func(r *X) string { return r.Portfolio }, func(r *X, v string) { r.Portfolio = v }),
		accessor.String("counterparty", func(r *X) string { return r.Counterparty }, func(r *X, v string) { r.Counterparty = v }),
		accessor.String("buySell", func(r *X) string { return r.BuySell }, func(r *X, v string) { r.BuySell = v }),
		accessor.String("currency1", func(r *X) string { return r.Currency1 }, func(r *X, v string) { r.Currency1 = v }),
		accessor.String("currency2", func(r *X) string { return r.Currency2 }, func(r *X, v string) { r.Currency2 = v }),
		accessor.Decimal("amount1", func(r *X) decimal.Decimal { return r.Amount1 }, func(r *X, v decimal.Decimal) { r.Amount1 = v }),
		accessor.Decimal("amount2", func(r *X) decimal.Decimal { return r.Amount2 }, func(r *X, v decimal.Decimal) { r.Amount2 = v }),
		accessor.Decimal("contractRate", func(r *X) decimal.Decimal { return r.ContractRate }, func(r *X, v decimal.Decimal) { r.ContractRate = v }),
		accessor.Date("valueDate", func(r *X) time.Time { return r.ValueDate }, func(r *X, v time.Time) { r.ValueDate = v }),
		accessor.Date("maturityDate", func(r *X) time.Time { return r.MaturityDate }, func(r *X, v time.Time) { r.MaturityDate = v }),
		accessor.String("murexComment", func(r *X) string { return r.MurexComment }, func(r *X, v string) { r.MurexComment = v }),
		accessor.String("status", func(r *X) string { return r.Status }, func(r *X, v string) { r.Status = v }),
		accessor.Bool("exported", func(r *X) bool { return r.Exported }, func(r *X, v bool) { r.Exported = v }),
	}
}
