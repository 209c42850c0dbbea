package clv

import (
	"fmt"
	"math"

	"github.com/smallbiznis/churnlens/pkg/numeric"
	"gonum.org/v1/gonum/mathext"
)

// BetaGeoParams are the fitted BG/NBD parameters.
type BetaGeoParams struct {
	R     float64 `json:"r" mapstructure:"r" validate:"gt=0"`
	Alpha float64 `json:"alpha" mapstructure:"alpha" validate:"gt=0"`
	A     float64 `json:"a" mapstructure:"a" validate:"gt=0"`
	B     float64 `json:"b" mapstructure:"b" validate:"gt=0"`
}

// BetaGeo is the BG/NBD purchase-frequency model.
type BetaGeo struct {
	params BetaGeoParams
}

func NewBetaGeo(params BetaGeoParams) (*BetaGeo, error) {
	for name, v := range map[string]float64{"r": params.R, "alpha": params.Alpha, "a": params.A, "b": params.B} {
		if !numeric.IsFinite(v) || v <= 0 {
			return nil, fmt.Errorf("bg/nbd parameter %s must be positive, got %v", name, v)
		}
	}
	if params.A == 1 {
		return nil, fmt.Errorf("bg/nbd parameter a must not equal 1")
	}
	return &BetaGeo{params: params}, nil
}

func (m *BetaGeo) Params() BetaGeoParams {
	return m.params
}

// ExpectedPurchases is the conditional expected number of repeat purchases in
// (0, t] for a customer with the given history.
func (m *BetaGeo) ExpectedPurchases(t, frequency, recency, tenure float64) (float64, error) {
	if t < 0 {
		return 0, &ModelInputError{Field: "t", Reason: "must not be negative"}
	}
	if frequency < 0 || recency < 0 || tenure < 0 {
		return 0, &ModelInputError{Reason: "frequency, recency and T must not be negative"}
	}
	if t == 0 {
		return 0, nil
	}

	r, alpha, a, b := m.params.R, m.params.Alpha, m.params.A, m.params.B
	x := frequency

	ha := r + x
	hb := b + x
	hc := a + b + x - 1
	z := t / (alpha + tenure + t)

	lnHyp := logHypergeo(ha, hb, hc, z)

	first := (a + b + x - 1) / (a - 1)
	second := 1 - math.Exp(lnHyp+(r+x)*math.Log((alpha+tenure)/(alpha+t+tenure)))
	numerator := first * second

	denominator := 1.0
	if x > 0 {
		denominator += (a / (b + x - 1)) * math.Pow((alpha+tenure)/(alpha+recency), r+x)
	}

	out := numerator / denominator
	if !numeric.IsFinite(out) {
		return 0, &ModelInputError{Reason: "bg/nbd produced a non-finite value"}
	}
	return out, nil
}

// logHypergeo returns log 2F1(a, b; c; z), using the Euler transformation when
// the direct series does not give a usable value.
func logHypergeo(a, b, c, z float64) float64 {
	if h := safeHypergeo(a, b, c, z); h > 0 && numeric.IsFinite(h) {
		return math.Log(h)
	}
	alt := safeHypergeo(c-a, c-b, c, z)
	return math.Log(alt) + (c-a-b)*math.Log1p(-z)
}

func safeHypergeo(a, b, c, z float64) (out float64) {
	defer func() {
		if recover() != nil {
			out = math.NaN()
		}
	}()
	return mathext.Hypergeo(a, b, c, z)
}
