package clv

import (
	"fmt"

	"github.com/smallbiznis/churnlens/pkg/numeric"
)

// GammaGammaParams are the fitted Gamma-Gamma parameters.
type GammaGammaParams struct {
	P float64 `json:"p" mapstructure:"p" validate:"gt=0"`
	Q float64 `json:"q" mapstructure:"q" validate:"gt=1"`
	V float64 `json:"v" mapstructure:"v" validate:"gt=0"`
}

// GammaGamma is the monetary-value model.
type GammaGamma struct {
	params GammaGammaParams
}

func NewGammaGamma(params GammaGammaParams) (*GammaGamma, error) {
	if !numeric.IsFinite(params.P) || params.P <= 0 {
		return nil, fmt.Errorf("gamma-gamma parameter p must be positive, got %v", params.P)
	}
	if !numeric.IsFinite(params.Q) || params.Q <= 1 {
		return nil, fmt.Errorf("gamma-gamma parameter q must be greater than 1, got %v", params.Q)
	}
	if !numeric.IsFinite(params.V) || params.V <= 0 {
		return nil, fmt.Errorf("gamma-gamma parameter v must be positive, got %v", params.V)
	}
	return &GammaGamma{params: params}, nil
}

func (m *GammaGamma) Params() GammaGammaParams {
	return m.params
}

// ExpectedAverageProfit shrinks the observed average order value towards the
// population mean, weighted by the number of repeat purchases.
func (m *GammaGamma) ExpectedAverageProfit(frequency, monetaryValue float64) (float64, error) {
	if frequency < 0 || monetaryValue < 0 {
		return 0, &ModelInputError{Reason: "frequency and monetary_value must not be negative"}
	}
	p, q, v := m.params.P, m.params.Q, m.params.V

	weight := p * frequency / (p*frequency + q - 1)
	populationMean := v * p / (q - 1)
	return (1-weight)*populationMean + weight*monetaryValue, nil
}
