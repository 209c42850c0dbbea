// Package modelstoretest provides deterministic models for tests.
package modelstoretest

import (
	"github.com/smallbiznis/churnlens/internal/modelstore"
)

// ChurnFeatures is the feature order used by Classifier.
var ChurnFeatures = []string{
	"Frequency",
	"monetary",
	"PurchaseRate",
	"AvgInterpurchaseDays",
	"ActiveMonths",
	"TenureDays",
	"InactivityRatio",
}

// Classifier returns InactivityRatio clamped to [0, 1] as the churn
// probability, unless Fixed is set.
type Classifier struct {
	Fixed *float64
}

func (Classifier) Features() []string {
	return append([]string(nil), ChurnFeatures...)
}

func (c Classifier) PredictProba(vector []float64) (float64, error) {
	if c.Fixed != nil {
		return *c.Fixed, nil
	}
	p := vector[len(vector)-1]
	switch {
	case p < 0:
		return 0, nil
	case p > 1:
		return 1, nil
	default:
		return p, nil
	}
}

// Transactions expects PerMonth purchases every 30 days, regardless of history.
type Transactions struct {
	PerMonth float64
}

func (m Transactions) ExpectedPurchases(t, _, _, _ float64) (float64, error) {
	return m.PerMonth * t / 30, nil
}

// Profit always predicts the observed average order value.
type Profit struct{}

func (Profit) ExpectedAverageProfit(_, monetaryValue float64) (float64, error) {
	return monetaryValue, nil
}

// Bundle wires the stubs with one purchase per month.
func Bundle() *modelstore.Bundle {
	return modelstore.NewBundle(Classifier{}, Transactions{PerMonth: 1}, Profit{})
}

// Registry serves Bundle.
func Registry() *modelstore.Registry {
	return modelstore.NewStaticRegistry(Bundle())
}
