package features

import (
	"github.com/smallbiznis/churnlens/internal/clv"
)

// Field names with adapter-specific meaning.
const (
	// FieldMonetary is total revenue, as stored in the customer table.
	FieldMonetary = "monetary"
	// FieldMonetaryValue is average order value, as entered in the lab.
	FieldMonetaryValue = "monetary_value"
)

// Alias maps one model input to the field spellings accepted for it. The
// first spelling present in the source wins.
type Alias struct {
	Input string
	Keys  []string
}

const (
	InputFrequency = "frequency"
	InputRecency   = "recency"
	InputTenure    = "tenure"
)

var clvAliases = []Alias{
	{Input: InputFrequency, Keys: []string{"frequency", "Frequency"}},
	{Input: InputRecency, Keys: []string{"recency", "Recency"}},
	{Input: InputTenure, Keys: []string{"T", "TenureDays"}},
}

// CLVAliases returns the alias table used by CLVInputs.
func CLVAliases() []Alias {
	out := make([]Alias, len(clvAliases))
	for i, a := range clvAliases {
		out[i] = Alias{Input: a.Input, Keys: append([]string(nil), a.Keys...)}
	}
	return out
}

// Resolve reads the first present spelling of the alias. A source carrying
// none of them yields 0.
func (a Alias) Resolve(src Source) (float64, error) {
	for _, key := range a.Keys {
		if _, ok := src.Lookup(key); ok {
			return Number(src, key, 0)
		}
	}
	return 0, nil
}

// ChurnVector selects fields in the classifier's training order. Missing
// fields default to zero.
func ChurnVector(src Source, order []string) ([]float64, error) {
	vec := make([]float64, len(order))
	for i, field := range order {
		v, err := Number(src, field, 0)
		if err != nil {
			return nil, err
		}
		vec[i] = v
	}
	return vec, nil
}

// CLVInputs normalizes a source into lifetime-value model inputs.
func CLVInputs(src Source) (clv.Inputs, error) {
	values := make(map[string]float64, len(clvAliases))
	for _, alias := range clvAliases {
		v, err := alias.Resolve(src)
		if err != nil {
			return clv.Inputs{}, err
		}
		values[alias.Input] = v
	}

	aov, err := AverageOrderValue(src, values[InputFrequency])
	if err != nil {
		return clv.Inputs{}, err
	}

	return clv.Inputs{
		Frequency:     values[InputFrequency],
		Recency:       values[InputRecency],
		Tenure:        values[InputTenure],
		MonetaryValue: aov,
	}, nil
}

// AverageOrderValue reads the monetary input. A source with only
// FieldMonetary carries total revenue, which is divided by frequency;
// otherwise FieldMonetaryValue is already an average.
func AverageOrderValue(src Source, frequency float64) (float64, error) {
	_, hasTotal := src.Lookup(FieldMonetary)
	_, hasAverage := src.Lookup(FieldMonetaryValue)

	if hasTotal && !hasAverage {
		total, err := Number(src, FieldMonetary, 0)
		if err != nil {
			return 0, err
		}
		if frequency <= 0 {
			return 0, nil
		}
		return total / frequency, nil
	}

	return Number(src, FieldMonetaryValue, 0)
}
