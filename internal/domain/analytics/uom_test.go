package analytics

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func metricTonPolicy() UOMPolicy {
	return UOMPolicy{
		DisplayUnit:          "MT",
		WeightPerDisplayUnit: decimal.NewFromInt(1000),
		Units: map[string]UOMRule{
			"4":   {NativeUOMs: []string{"Ton"}},
			"188": {},
		},
	}
}

func TestUOMPolicy_Apply(t *testing.T) {
	policy := metricTonPolicy()

	tests := []struct {
		name    string
		txn     Transaction
		wantQty decimal.Decimal
		wantUOM string
	}{
		{
			name:    "bags converted through gross weight",
			txn:     Transaction{BusinessUnitID: "4", Quantity: decimal.NewFromInt(200), UOM: "Bag", GrossWeight: decimal.NewFromInt(50)},
			wantQty: decimal.NewFromInt(10),
			wantUOM: "MT",
		},
		{
			name:    "native unit kept",
			txn:     Transaction{BusinessUnitID: "4", Quantity: decimal.NewFromInt(3), UOM: "ton", GrossWeight: decimal.NewFromInt(50)},
			wantQty: decimal.NewFromInt(3),
			wantUOM: "MT",
		},
		{
			name:    "rule without native units always converts",
			txn:     Transaction{BusinessUnitID: "188", Quantity: decimal.NewFromInt(4), UOM: "Ton", GrossWeight: decimal.NewFromInt(250)},
			wantQty: decimal.NewFromInt(1),
			wantUOM: "MT",
		},
		{
			name:    "unit without rule keeps its uom",
			txn:     Transaction{BusinessUnitID: "9", Quantity: decimal.NewFromInt(7), UOM: "Litre", GrossWeight: decimal.NewFromInt(1)},
			wantQty: decimal.NewFromInt(7),
			wantUOM: "Litre",
		},
		{
			name:    "blank uom gets the default label",
			txn:     Transaction{BusinessUnitID: "9", Quantity: decimal.NewFromInt(7)},
			wantQty: decimal.NewFromInt(7),
			wantUOM: DefaultUOMLabel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := policy.Apply(tt.txn)
			assert.True(t, tt.wantQty.Equal(got.Quantity), got.Quantity.String())
			assert.Equal(t, tt.wantUOM, got.UOM)
		})
	}
}

func TestUOMPolicy_ZeroValue(t *testing.T) {
	var policy UOMPolicy
	txn := Transaction{BusinessUnitID: "4", Quantity: decimal.NewFromInt(5), UOM: "Bag"}

	assert.False(t, policy.Converts("4"))
	assert.Equal(t, txn, policy.Apply(txn))
}
