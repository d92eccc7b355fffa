package analytics

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// UnknownKey is the group key used for transactions missing a dimension value
const UnknownKey = "Unknown"

// PaymentMode represents how a delivery was paid for
type PaymentMode string

const (
	PaymentModeCredit PaymentMode = "credit"
	PaymentModeCash   PaymentMode = "cash"
	PaymentModeBoth   PaymentMode = "both"
	PaymentModeOther  PaymentMode = "other"
)

// AllPaymentModes returns payment modes in display order
func AllPaymentModes() []PaymentMode {
	return []PaymentMode{PaymentModeCredit, PaymentModeCash, PaymentModeBoth, PaymentModeOther}
}

// ParsePaymentMode normalizes a raw payment mode, case-insensitively.
// Anything unrecognized is reported as other.
func ParsePaymentMode(raw string) PaymentMode {
	switch PaymentMode(strings.ToLower(strings.TrimSpace(raw))) {
	case PaymentModeCredit:
		return PaymentModeCredit
	case PaymentModeCash:
		return PaymentModeCash
	case PaymentModeBoth:
		return PaymentModeBoth
	default:
		return PaymentModeOther
	}
}

// Dimension is an attribute used to group transactions
type Dimension string

const (
	DimensionRegion    Dimension = "region"
	DimensionArea      Dimension = "area"
	DimensionTerritory Dimension = "territory"
	DimensionItem      Dimension = "item"
	DimensionCustomer  Dimension = "customer"
)

// AllDimensions returns every supported dimension
func AllDimensions() []Dimension {
	return []Dimension{DimensionRegion, DimensionArea, DimensionTerritory, DimensionItem, DimensionCustomer}
}

// ParseDimension validates a dimension name
func ParseDimension(raw string) (Dimension, error) {
	d := Dimension(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range AllDimensions() {
		if d == known {
			return d, nil
		}
	}
	return "", ErrInvalidDimension.WithMessage("unknown dimension: " + raw)
}

// Transaction is an immutable delivery fact record
type Transaction struct {
	OrderID        string          `json:"order_id"`
	Date           time.Time       `json:"date"`
	BusinessUnitID string          `json:"business_unit_id"`
	CustomerID     string          `json:"customer_id"`
	CustomerName   string          `json:"customer_name"`
	Region         string          `json:"region"`
	Area           string          `json:"area"`
	Territory      string          `json:"territory"`
	ItemName       string          `json:"item_name"`
	ChannelName    string          `json:"channel_name,omitempty"`
	Quantity       decimal.Decimal `json:"quantity"`
	UOM            string          `json:"uom"`
	GrossWeight    decimal.Decimal `json:"gross_weight"`
	Revenue        decimal.Decimal `json:"revenue"`
	PaymentMode    PaymentMode     `json:"payment_mode"`
}

// Key returns the transaction's value for the given dimension
func (t Transaction) Key(d Dimension) string {
	var v string
	switch d {
	case DimensionRegion:
		v = t.Region
	case DimensionArea:
		v = t.Area
	case DimensionTerritory:
		v = t.Territory
	case DimensionItem:
		v = t.ItemName
	case DimensionCustomer:
		v = t.CustomerID
	}
	if strings.TrimSpace(v) == "" {
		return UnknownKey
	}
	return v
}

// BusinessUnit identifies a business unit present in the ledger
type BusinessUnit struct {
	UnitID string `json:"unit_id"`
	Name   string `json:"business_unit_name"`
}

// TransactionFilter defines the read predicate against the transaction store
type TransactionFilter struct {
	UnitID          *string
	Window          Window
	Dimension       Dimension
	DimensionValues []string
}
