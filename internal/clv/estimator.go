// Package clv projects customer lifetime value from a purchase-frequency model
// and a monetary-value model.
package clv

import (
	"fmt"
	"math"

	"github.com/smallbiznis/churnlens/pkg/numeric"
)

const (
	DefaultHorizonMonths = 6
	DefaultDiscountRate  = 0.01

	daysPerMonth = 30.0
)

// Inputs are the RFM summary statistics of one customer. Time values are in
// days; MonetaryValue is the average order value.
type Inputs struct {
	Frequency     float64 `json:"frequency"`
	Recency       float64 `json:"recency"`
	Tenure        float64 `json:"T"`
	MonetaryValue float64 `json:"monetary_value"`
}

// TransactionModel predicts how many repeat purchases a customer makes in the
// next t days.
type TransactionModel interface {
	ExpectedPurchases(t, frequency, recency, tenure float64) (float64, error)
}

// MonetaryModel predicts the expected value of a single future purchase.
type MonetaryModel interface {
	ExpectedAverageProfit(frequency, monetaryValue float64) (float64, error)
}

// ModelInputError reports inputs a model cannot score.
type ModelInputError struct {
	Field  string
	Reason string
}

func (e *ModelInputError) Error() string {
	if e.Field == "" {
		return "clv model input: " + e.Reason
	}
	return fmt.Sprintf("clv model input %s: %s", e.Field, e.Reason)
}

type Estimator struct {
	transactions TransactionModel
	monetary     MonetaryModel
	discountRate float64
}

func NewEstimator(transactions TransactionModel, monetary MonetaryModel) *Estimator {
	return &Estimator{
		transactions: transactions,
		monetary:     monetary,
		discountRate: DefaultDiscountRate,
	}
}

// Estimate returns the discounted value of the customer's purchases over the
// next horizonMonths months, rounded to cents.
func (e *Estimator) Estimate(in Inputs, horizonMonths int) (float64, error) {
	if err := validateInputs(in); err != nil {
		return 0, err
	}
	if horizonMonths < 0 {
		return 0, &ModelInputError{Field: "horizon_months", Reason: "must not be negative"}
	}

	profit, err := e.monetary.ExpectedAverageProfit(in.Frequency, in.MonetaryValue)
	if err != nil {
		return 0, asInputError(err)
	}

	value := 0.0
	previous := 0.0
	for month := 1; month <= horizonMonths; month++ {
		t := float64(month) * daysPerMonth
		cumulative, err := e.transactions.ExpectedPurchases(t, in.Frequency, in.Recency, in.Tenure)
		if err != nil {
			return 0, asInputError(err)
		}
		value += profit * (cumulative - previous) / math.Pow(1+e.discountRate, float64(month))
		previous = cumulative
	}

	if !numeric.IsFinite(value) {
		return 0, &ModelInputError{Reason: "model produced a non-finite value"}
	}
	return numeric.Money(value), nil
}

func validateInputs(in Inputs) error {
	fields := []struct {
		name  string
		value float64
	}{
		{"frequency", in.Frequency},
		{"recency", in.Recency},
		{"T", in.Tenure},
		{"monetary_value", in.MonetaryValue},
	}
	for _, f := range fields {
		if !numeric.IsFinite(f.value) {
			return &ModelInputError{Field: f.name, Reason: "must be finite"}
		}
		if f.value < 0 {
			return &ModelInputError{Field: f.name, Reason: "must not be negative"}
		}
	}
	return nil
}

func asInputError(err error) error {
	if _, ok := err.(*ModelInputError); ok {
		return err
	}
	return &ModelInputError{Reason: err.Error()}
}
