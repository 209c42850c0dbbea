package clv

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// linearTransactions predicts rate purchases per day.
type linearTransactions struct {
	rate float64
	err  error
}

func (l linearTransactions) ExpectedPurchases(t, frequency, recency, tenure float64) (float64, error) {
	if l.err != nil {
		return 0, l.err
	}
	return l.rate * t, nil
}

type fixedProfit struct {
	value float64
}

func (f fixedProfit) ExpectedAverageProfit(frequency, monetaryValue float64) (float64, error) {
	return f.value, nil
}

func TestEstimateDiscountsEachMonth(t *testing.T) {
	est := NewEstimator(linearTransactions{rate: 1.0 / 30}, fixedProfit{value: 100})

	got, err := est.Estimate(Inputs{Frequency: 2, Recency: 30, Tenure: 60, MonetaryValue: 50}, 6)
	require.NoError(t, err)

	want := 0.0
	for month := 1; month <= 6; month++ {
		want += 100 / math.Pow(1.01, float64(month))
	}
	assert.InDelta(t, want, got, 0.005)
}

func TestEstimateZeroHorizonIsZero(t *testing.T) {
	est := NewEstimator(linearTransactions{rate: 1}, fixedProfit{value: 100})
	got, err := est.Estimate(Inputs{}, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestEstimateRejectsNegativeInputs(t *testing.T) {
	est := NewEstimator(linearTransactions{rate: 1}, fixedProfit{value: 100})

	for _, in := range []Inputs{
		{Frequency: -1},
		{Recency: -1},
		{Tenure: -0.5},
		{MonetaryValue: -10},
		{Frequency: math.NaN()},
	} {
		_, err := est.Estimate(in, 6)
		var inputErr *ModelInputError
		assert.True(t, errors.As(err, &inputErr), "inputs %+v", in)
	}
}

func TestEstimateAllowsRecencyBeyondTenure(t *testing.T) {
	est := NewEstimator(linearTransactions{rate: 0.01}, fixedProfit{value: 10})
	_, err := est.Estimate(Inputs{Frequency: 1, Recency: 400, Tenure: 100}, 6)
	assert.NoError(t, err)
}

func TestEstimateWrapsModelErrors(t *testing.T) {
	est := NewEstimator(linearTransactions{err: errors.New("boom")}, fixedProfit{value: 10})
	_, err := est.Estimate(Inputs{Frequency: 1, Recency: 1, Tenure: 1}, 6)

	var inputErr *ModelInputError
	require.True(t, errors.As(err, &inputErr))
	assert.Contains(t, inputErr.Error(), "boom")
}

func TestGammaGammaShrinksTowardsPopulationMean(t *testing.T) {
	gg, err := NewGammaGamma(GammaGammaParams{P: 6.25, Q: 3.74, V: 15.44})
	require.NoError(t, err)

	populationMean := 15.44 * 6.25 / (3.74 - 1)

	noHistory, err := gg.ExpectedAverageProfit(0, 0)
	require.NoError(t, err)
	assert.InDelta(t, populationMean, noHistory, 1e-9)

	weight := 6.25 * 4 / (6.25*4 + 3.74 - 1)
	got, err := gg.ExpectedAverageProfit(4, 100)
	require.NoError(t, err)
	assert.InDelta(t, (1-weight)*populationMean+weight*100, got, 1e-9)
}

func TestNewGammaGammaValidatesParams(t *testing.T) {
	_, err := NewGammaGamma(GammaGammaParams{P: 1, Q: 1, V: 1})
	assert.Error(t, err)
	_, err = NewGammaGamma(GammaGammaParams{P: 0, Q: 2, V: 1})
	assert.Error(t, err)
}

func TestBetaGeoExpectedPurchases(t *testing.T) {
	bg, err := NewBetaGeo(BetaGeoParams{R: 0.243, Alpha: 4.414, A: 0.793, B: 2.426})
	require.NoError(t, err)

	atZero, err := bg.ExpectedPurchases(0, 3, 30, 60)
	require.NoError(t, err)
	assert.Equal(t, 0.0, atZero)

	previous := 0.0
	for month := 1; month <= 12; month++ {
		got, err := bg.ExpectedPurchases(float64(month)*30, 3, 30, 60)
		require.NoError(t, err)
		assert.Greater(t, got, previous)
		previous = got
	}
}

func TestBetaGeoFavoursRecentBuyers(t *testing.T) {
	bg, err := NewBetaGeo(BetaGeoParams{R: 0.243, Alpha: 4.414, A: 0.793, B: 2.426})
	require.NoError(t, err)

	recent, err := bg.ExpectedPurchases(30, 5, 350, 365)
	require.NoError(t, err)
	lapsed, err := bg.ExpectedPurchases(30, 5, 20, 365)
	require.NoError(t, err)
	assert.Greater(t, recent, lapsed)
}

func TestNewBetaGeoValidatesParams(t *testing.T) {
	_, err := NewBetaGeo(BetaGeoParams{R: 1, Alpha: 1, A: 1, B: 1})
	assert.Error(t, err)
	_, err = NewBetaGeo(BetaGeoParams{R: -1, Alpha: 1, A: 2, B: 1})
	assert.Error(t, err)
}

func TestEstimatorWithFittedModels(t *testing.T) {
	bg, err := NewBetaGeo(BetaGeoParams{R: 0.243, Alpha: 4.414, A: 0.793, B: 2.426})
	require.NoError(t, err)
	gg, err := NewGammaGamma(GammaGammaParams{P: 6.25, Q: 3.74, V: 15.44})
	require.NoError(t, err)
	est := NewEstimator(bg, gg)

	in := Inputs{Frequency: 5, Recency: 300, Tenure: 365, MonetaryValue: 100}
	six, err := est.Estimate(in, 6)
	require.NoError(t, err)
	twelve, err := est.Estimate(in, 12)
	require.NoError(t, err)

	assert.Greater(t, six, 0.0)
	assert.Greater(t, twelve, six)

	again, err := est.Estimate(in, 6)
	require.NoError(t, err)
	assert.Equal(t, six, again)

	noRepeat, err := est.Estimate(Inputs{Frequency: 0, Recency: 0, Tenure: 90, MonetaryValue: 0}, 6)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, noRepeat, 0.0)
}
