// Package modelstore loads the pretrained churn and lifetime-value models and
// publishes them to request handlers.
package modelstore

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/smallbiznis/churnlens/internal/churn"
	"github.com/smallbiznis/churnlens/internal/clv"
	"github.com/smallbiznis/churnlens/internal/config"
)

// Bundle is one consistent set of models. It is never mutated after it is
// published.
type Bundle struct {
	Churn    *churn.Predictor
	CLV      *clv.Estimator
	Manifest config.ModelManifest
	LoadedAt time.Time
}

func NewBundle(classifier churn.Classifier, transactions clv.TransactionModel, monetary clv.MonetaryModel) *Bundle {
	return &Bundle{
		Churn: churn.NewPredictor(classifier),
		CLV:   clv.NewEstimator(transactions, monetary),
	}
}

var validate = validator.New()

// Load reads every artifact named by the manifest.
func Load(m config.ModelManifest, now time.Time) (*Bundle, error) {
	classifier, err := churn.LoadTreeEnsemble(m.Churn)
	if err != nil {
		return nil, err
	}

	var bgParams clv.BetaGeoParams
	if err := readParams(m.BetaGeo, &bgParams); err != nil {
		return nil, fmt.Errorf("bg/nbd model: %w", err)
	}
	transactions, err := clv.NewBetaGeo(bgParams)
	if err != nil {
		return nil, fmt.Errorf("bg/nbd model: %w", err)
	}

	var ggParams clv.GammaGammaParams
	if err := readParams(m.GammaGamma, &ggParams); err != nil {
		return nil, fmt.Errorf("gamma-gamma model: %w", err)
	}
	monetary, err := clv.NewGammaGamma(ggParams)
	if err != nil {
		return nil, fmt.Errorf("gamma-gamma model: %w", err)
	}

	bundle := NewBundle(classifier, transactions, monetary)
	bundle.Manifest = m
	bundle.LoadedAt = now
	return bundle, nil
}

func readParams(path string, out any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	if err := validate.Struct(out); err != nil {
		return fmt.Errorf("validate %s: %w", path, err)
	}
	return nil
}
