package churn

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/smallbiznis/churnlens/internal/taxonomy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClassifier struct {
	features []string
	proba    float64
	err      error
}

func (f fixedClassifier) Features() []string { return f.features }

func (f fixedClassifier) PredictProba([]float64) (float64, error) { return f.proba, f.err }

func TestRiskLabelBoundaries(t *testing.T) {
	cases := []struct {
		p    float64
		want string
	}{
		{0.70, taxonomy.RiskHigh},
		{0.6999, taxonomy.RiskMedium},
		{0.40, taxonomy.RiskMedium},
		{0.3999, taxonomy.RiskLow},
		{0, taxonomy.RiskLow},
		{1, taxonomy.RiskHigh},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, RiskLabel(tc.p), "p=%v", tc.p)
	}
}

func TestPredictRoundsAndDerivesPAlive(t *testing.T) {
	p := NewPredictor(fixedClassifier{features: []string{"a", "b"}, proba: 0.123456789})

	got, err := p.Predict([]float64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 0.12346, got.Probability)
	assert.Equal(t, 0.87654, got.PAlive)
	assert.Equal(t, taxonomy.RiskLow, got.RiskLabel)
}

func TestPredictLabelUsesUnroundedProbability(t *testing.T) {
	p := NewPredictor(fixedClassifier{features: []string{"a"}, proba: 0.399999999})

	got, err := p.Predict([]float64{0})
	require.NoError(t, err)
	assert.Equal(t, 0.4, got.Probability)
	assert.Equal(t, taxonomy.RiskLow, got.RiskLabel)
}

func TestPredictRejectsWrongLength(t *testing.T) {
	p := NewPredictor(fixedClassifier{features: []string{"a", "b", "c"}, proba: 0.5})

	_, err := p.Predict([]float64{1, 2})
	var inputErr *ModelInputError
	require.True(t, errors.As(err, &inputErr))
	assert.Contains(t, inputErr.Error(), "expected 3 features, got 2")
}

func TestPredictRejectsNonFinite(t *testing.T) {
	p := NewPredictor(fixedClassifier{features: []string{"a"}, proba: 0.5})

	_, err := p.Predict([]float64{math.Inf(1)})
	var inputErr *ModelInputError
	assert.True(t, errors.As(err, &inputErr))
}

func TestPredictPropagatesClassifierError(t *testing.T) {
	boom := errors.New("boom")
	p := NewPredictor(fixedClassifier{features: []string{"a"}, err: boom})

	_, err := p.Predict([]float64{1})
	assert.ErrorIs(t, err, boom)
}

func TestTreeEnsemblePredictProba(t *testing.T) {
	model, err := LoadTreeEnsemble("testdata/ensemble.json")
	require.NoError(t, err)
	assert.Equal(t, []string{"Frequency", "monetary", "InactivityRatio"}, model.Features())

	cases := []struct {
		name   string
		vector []float64
		margin float64
	}{
		{"infrequent", []float64{1, 50, 0.9}, 1.0},
		{"frequent active", []float64{4, 50, 0.1}, -1.0},
		{"frequent inactive big spender", []float64{4, 5000, 0.8}, 0.0},
		{"missing frequency", []float64{math.NaN(), 50, 0}, 1.0},
		{"missing inactivity", []float64{4, 50, math.NaN()}, 0.5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := model.PredictProba(tc.vector)
			require.NoError(t, err)
			assert.InDelta(t, 1/(1+math.Exp(-tc.margin)), got, 1e-12)
		})
	}
}

func TestTreeEnsembleWithPredictor(t *testing.T) {
	model, err := LoadTreeEnsemble("testdata/ensemble.json")
	require.NoError(t, err)

	got, err := NewPredictor(model).Predict([]float64{1, 50, 0.9})
	require.NoError(t, err)
	assert.Equal(t, 0.73106, got.Probability)
	assert.Equal(t, 0.26894, got.PAlive)
	assert.Equal(t, taxonomy.RiskHigh, got.RiskLabel)
}

func TestDecodeTreeEnsembleRejectsBrokenArtifacts(t *testing.T) {
	cases := map[string]string{
		"no features":    `{"features":[],"base_score":0.5,"trees":[{"nodeid":0,"leaf":0.1}]}`,
		"bad base score": `{"features":["a"],"base_score":1,"trees":[{"nodeid":0,"leaf":0.1}]}`,
		"objective":      `{"features":["a"],"base_score":0.5,"objective":"reg:squarederror","trees":[{"nodeid":0,"leaf":0.1}]}`,
		"no trees":       `{"features":["a"],"base_score":0.5,"trees":[]}`,
		"unknown split": `{"features":["a"],"base_score":0.5,"trees":[{"nodeid":0,"split":"b","split_condition":1,"yes":1,"no":2,"missing":1,
			"children":[{"nodeid":1,"leaf":0.1},{"nodeid":2,"leaf":0.2}]}]}`,
		"dangling branch": `{"features":["a"],"base_score":0.5,"trees":[{"nodeid":0,"split":"a","split_condition":1,"yes":1,"no":7,"missing":1,
			"children":[{"nodeid":1,"leaf":0.1}]}]}`,
		"cycle": `{"features":["a"],"base_score":0.5,"trees":[{"nodeid":0,"split":"a","split_condition":1,"yes":1,"no":0,"missing":1,
			"children":[{"nodeid":1,"leaf":0.1}]}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeTreeEnsemble(strings.NewReader(body))
			assert.ErrorIs(t, err, ErrInvalidEnsemble)
		})
	}
}

func TestTreeEnsemblePositionalSplit(t *testing.T) {
	body := `{"features":["a","b"],"base_score":0.5,"trees":[{"nodeid":0,"split":"f1","split_condition":10,"yes":1,"no":2,"missing":1,
		"children":[{"nodeid":1,"leaf":-2},{"nodeid":2,"leaf":2}]}]}`
	model, err := DecodeTreeEnsemble(strings.NewReader(body))
	require.NoError(t, err)

	low, err := model.PredictProba([]float64{100, 5})
	require.NoError(t, err)
	high, err := model.PredictProba([]float64{0, 50})
	require.NoError(t, err)
	assert.Less(t, low, 0.5)
	assert.Greater(t, high, 0.5)
}
