package models

import (
	"time"

	"github.com/salesinsight/backend/internal/domain/analytics"
	"github.com/shopspring/decimal"
)

// SalesTransactionModel is one delivery line in the sales ledger
type SalesTransactionModel struct {
	ID             uint            `gorm:"primaryKey"`
	OrderID        string          `gorm:"size:64;not null;index"`
	DeliveryDate   time.Time       `gorm:"not null;index"`
	BusinessUnitID string          `gorm:"size:64;not null;index"`
	CustomerID     string          `gorm:"size:64;index"`
	CustomerName   string          `gorm:"size:200"`
	Region         string          `gorm:"size:100"`
	Area           string          `gorm:"size:100"`
	Territory      string          `gorm:"size:100"`
	ItemName       string          `gorm:"size:200"`
	ChannelName    string          `gorm:"size:100"`
	Quantity       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UOM            string          `gorm:"column:uom;size:20"`
	GrossWeight    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Revenue        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PaymentMode    string          `gorm:"size:20"`
}

// TableName returns the ledger table name
func (SalesTransactionModel) TableName() string {
	return "sales_transactions"
}

// ToDomain converts the row to an analytics transaction
func (m *SalesTransactionModel) ToDomain() analytics.Transaction {
	return analytics.Transaction{
		OrderID:        m.OrderID,
		Date:           analytics.Date(m.DeliveryDate),
		BusinessUnitID: m.BusinessUnitID,
		CustomerID:     m.CustomerID,
		CustomerName:   m.CustomerName,
		Region:         m.Region,
		Area:           m.Area,
		Territory:      m.Territory,
		ItemName:       m.ItemName,
		ChannelName:    m.ChannelName,
		Quantity:       m.Quantity,
		UOM:            m.UOM,
		GrossWeight:    m.GrossWeight,
		Revenue:        m.Revenue,
		PaymentMode:    analytics.ParsePaymentMode(m.PaymentMode),
	}
}

// SalesTransactionFromDomain builds a ledger row, used by seeding and tests
func SalesTransactionFromDomain(t analytics.Transaction) SalesTransactionModel {
	return SalesTransactionModel{
		OrderID:        t.OrderID,
		DeliveryDate:   analytics.Date(t.Date),
		BusinessUnitID: t.BusinessUnitID,
		CustomerID:     t.CustomerID,
		CustomerName:   t.CustomerName,
		Region:         t.Region,
		Area:           t.Area,
		Territory:      t.Territory,
		ItemName:       t.ItemName,
		ChannelName:    t.ChannelName,
		Quantity:       t.Quantity,
		UOM:            t.UOM,
		GrossWeight:    t.GrossWeight,
		Revenue:        t.Revenue,
		PaymentMode:    string(t.PaymentMode),
	}
}

// BusinessUnitModel names a business unit
type BusinessUnitModel struct {
	UnitID string `gorm:"primaryKey;size:64"`
	Name   string `gorm:"size:200;not null"`
}

// TableName returns the business unit dimension table name
func (BusinessUnitModel) TableName() string {
	return "business_units"
}

// ForecastRowType distinguishes published forecasts from the history the
// forecasting pipeline was trained on
const (
	ForecastRowForecasted = "Forecasted"
	ForecastRowHistorical = "Historical"
)

// ForecastMonthlyModel is one month of a published forecast series
type ForecastMonthlyModel struct {
	ID             uint            `gorm:"primaryKey"`
	BusinessUnitID string          `gorm:"size:64;not null;index"`
	Kind           string          `gorm:"size:20;not null;index"` // global, item, territory
	SeriesKey      string          `gorm:"size:200;not null"`
	MonthStart     time.Time       `gorm:"not null"`
	Quantity       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Type           string          `gorm:"size:20;not null"`
}

// TableName returns the forecast table name
func (ForecastMonthlyModel) TableName() string {
	return "forecast_monthly"
}
