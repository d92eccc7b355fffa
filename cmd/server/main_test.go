package main

import (
	"testing"
	"time"

	domain "github.com/salesinsight/backend/internal/domain/analytics"
	"github.com/salesinsight/backend/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsFromConfig(t *testing.T) {
	cfg := &config.Config{
		Analytics: config.AnalyticsConfig{
			DefaultTopN:       7,
			CustomerTopN:      3,
			ConcentrationTopK: 4,
			TrendMonths:       6,
			ForecastTopLimit:  20,
			MaxConcurrency:    2,
			MonetaryBasis:     "revenue",
			Weights:           config.WeightsConfig{Recency: 0.5, Frequency: 0.3, Monetary: 0.2},
			Bands:             config.BandsConfig{Platinum: 0.1, Gold: 0.3, Silver: 0.6, Occasional: 0.9},
		},
		Cache:     config.CacheConfig{TTL: time.Minute},
		Narration: config.NarrationConfig{Timeout: 5 * time.Second},
	}

	s := settingsFromConfig(cfg)

	assert.Equal(t, 7, s.DefaultTopN)
	assert.Equal(t, 3, s.CustomerTopN)
	assert.Equal(t, 4, s.ConcentrationTopK)
	assert.Equal(t, 6, s.TrendMonths)
	assert.Equal(t, 20, s.ForecastTopLimit)
	assert.Equal(t, 2, s.MaxConcurrency)
	assert.Equal(t, time.Minute, s.CacheTTL)
	assert.Equal(t, 5*time.Second, s.NarrationTimeout)
	assert.Equal(t, domain.BasisRevenue, s.RFM.Basis)
	assert.Equal(t, 0.5, s.RFM.Weights.Recency)
	assert.Equal(t, 0.9, s.RFM.Bands.Occasional)
	assert.NoError(t, s.RFM.Validate())
}

func TestSettingsFromConfig_InvalidBasisFailsValidation(t *testing.T) {
	cfg := &config.Config{Analytics: config.AnalyticsConfig{MonetaryBasis: "margin"}}

	s := settingsFromConfig(cfg)
	opts := s.RFM
	opts.Weights = domain.EqualWeights()
	opts.Bands = domain.DefaultBands()

	assert.ErrorIs(t, opts.Validate(), domain.ErrInvalidBasis)
}

func TestUOMPolicyFromConfig(t *testing.T) {
	policy, err := uomPolicyFromConfig(config.UOMConfig{
		DisplayUnit:          "MT",
		WeightPerDisplayUnit: 1000,
		Units:                []string{"4:Ton", "188"},
	})
	require.NoError(t, err)

	assert.True(t, policy.Converts("4"))
	assert.True(t, policy.Converts("188"))
	assert.False(t, policy.Converts("7"))
	assert.True(t, policy.IsNative("4", "TON"))
	assert.True(t, policy.WeightPerDisplayUnit.Equal(decimal.NewFromInt(1000)))

	bags := domain.Transaction{BusinessUnitID: "188", Quantity: decimal.NewFromInt(40), GrossWeight: decimal.NewFromInt(50), UOM: "Bag"}
	assert.True(t, policy.Quantity(bags).Equal(decimal.NewFromInt(2)))

	none, err := uomPolicyFromConfig(config.UOMConfig{DisplayUnit: "MT", WeightPerDisplayUnit: 1000})
	require.NoError(t, err)
	assert.False(t, none.Converts("4"))

	_, err = uomPolicyFromConfig(config.UOMConfig{Units: []string{":Ton"}})
	assert.Error(t, err)
}

func TestDBSystem(t *testing.T) {
	assert.Equal(t, "sqlite", dbSystem("sqlite"))
	assert.Equal(t, "postgresql", dbSystem("postgres"))
}
