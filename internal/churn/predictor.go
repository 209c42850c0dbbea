// Package churn scores the probability that a customer stops buying and maps
// it onto the risk tiers used across the dashboard.
package churn

import (
	"fmt"
	"math"

	"github.com/smallbiznis/churnlens/internal/taxonomy"
	"github.com/smallbiznis/churnlens/pkg/numeric"
)

const (
	HighRiskThreshold   = 0.70
	MediumRiskThreshold = 0.40

	probabilityPlaces = 5
)

// Classifier is a trained binary classifier over a fixed feature order.
type Classifier interface {
	Features() []string
	PredictProba(vector []float64) (float64, error)
}

// ModelInputError reports a feature vector the classifier cannot score.
type ModelInputError struct {
	Reason string
}

func (e *ModelInputError) Error() string {
	return "churn model input: " + e.Reason
}

type Prediction struct {
	Probability float64 `json:"churn_probability"`
	RiskLabel   string  `json:"churn_risk"`
	PAlive      float64 `json:"p_alive"`
}

// RiskLabel maps a churn probability onto a risk tier. Lower bounds are
// inclusive.
func RiskLabel(probability float64) string {
	switch {
	case probability >= HighRiskThreshold:
		return taxonomy.RiskHigh
	case probability >= MediumRiskThreshold:
		return taxonomy.RiskMedium
	default:
		return taxonomy.RiskLow
	}
}

type Predictor struct {
	classifier Classifier
}

func NewPredictor(classifier Classifier) *Predictor {
	return &Predictor{classifier: classifier}
}

// Features returns the order in which Predict expects its vector.
func (p *Predictor) Features() []string {
	return p.classifier.Features()
}

func (p *Predictor) Predict(vector []float64) (Prediction, error) {
	want := len(p.classifier.Features())
	if len(vector) != want {
		return Prediction{}, &ModelInputError{
			Reason: fmt.Sprintf("expected %d features, got %d", want, len(vector)),
		}
	}
	for i, v := range vector {
		if !numeric.IsFinite(v) {
			return Prediction{}, &ModelInputError{
				Reason: fmt.Sprintf("feature %s is not a finite number", p.classifier.Features()[i]),
			}
		}
	}

	proba, err := p.classifier.PredictProba(vector)
	if err != nil {
		return Prediction{}, err
	}
	if math.IsNaN(proba) || proba < 0 || proba > 1 {
		return Prediction{}, &ModelInputError{Reason: fmt.Sprintf("classifier returned probability %v", proba)}
	}

	return Prediction{
		Probability: numeric.Round(proba, probabilityPlaces),
		RiskLabel:   RiskLabel(proba),
		PAlive:      numeric.Round(1-proba, probabilityPlaces),
	}, nil
}
