package analytics

import (
	"time"

	"github.com/salesinsight/backend/internal/domain/analytics"
	"github.com/shopspring/decimal"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func window(sy int, sm time.Month, sd int, ey int, em time.Month, ed int) analytics.Window {
	return analytics.Window{Start: date(sy, sm, sd), End: date(ey, em, ed)}
}

func dec(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func strPtr(s string) *string {
	return &s
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// txn builds a transaction for unit U1 with the given region, customer and quantity
type txnBuilder struct {
	t analytics.Transaction
}

func newTxn(order string, d time.Time, qty float64) *txnBuilder {
	return &txnBuilder{t: analytics.Transaction{
		OrderID:        order,
		Date:           d,
		BusinessUnitID: "U1",
		CustomerID:     "C1",
		CustomerName:   "Customer 1",
		Region:         "North",
		Area:           "Area 1",
		Territory:      "T1",
		ItemName:       "Item 1",
		Quantity:       dec(qty),
		UOM:            "KG",
		Revenue:        dec(qty * 10),
		PaymentMode:    analytics.PaymentModeCash,
	}}
}

func (b *txnBuilder) unit(id string) *txnBuilder      { b.t.BusinessUnitID = id; return b }
func (b *txnBuilder) region(r string) *txnBuilder     { b.t.Region = r; return b }
func (b *txnBuilder) area(a string) *txnBuilder       { b.t.Area = a; return b }
func (b *txnBuilder) territory(tr string) *txnBuilder { b.t.Territory = tr; return b }
func (b *txnBuilder) item(i string) *txnBuilder       { b.t.ItemName = i; return b }
func (b *txnBuilder) revenue(r float64) *txnBuilder   { b.t.Revenue = dec(r); return b }
func (b *txnBuilder) uom(u string) *txnBuilder        { b.t.UOM = u; return b }
func (b *txnBuilder) channel(c string) *txnBuilder    { b.t.ChannelName = c; return b }

func (b *txnBuilder) paidBy(mode analytics.PaymentMode) *txnBuilder {
	b.t.PaymentMode = mode
	return b
}

func (b *txnBuilder) customer(id, name string) *txnBuilder {
	b.t.CustomerID = id
	b.t.CustomerName = name
	return b
}

func (b *txnBuilder) build() analytics.Transaction { return b.t }

func groupsOf(pairs ...any) []analytics.DimensionAggregate {
	out := make([]analytics.DimensionAggregate, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, analytics.DimensionAggregate{
			Key:      pairs[i].(string),
			Quantity: dec(float64(pairs[i+1].(int))),
		})
	}
	return out
}

func keysOf(groups []analytics.DimensionAggregate) []string {
	keys := make([]string, len(groups))
	for i, g := range groups {
		keys[i] = g.Key
	}
	return keys
}
