package service

import (
	"context"
	"math"

	customerdomain "github.com/smallbiznis/churnlens/internal/customer/domain"
	"github.com/smallbiznis/churnlens/internal/decision"
	"github.com/smallbiznis/churnlens/internal/features"
	"github.com/smallbiznis/churnlens/internal/scoring/domain"
	"github.com/smallbiznis/churnlens/internal/taxonomy"
	"github.com/smallbiznis/churnlens/pkg/numeric"
)

// Scaling caps for the RFM lab.
const (
	labFrequencyCap = 50.0
	labMonetaryCap  = 5000.0
	labRecencyCap   = 365.0

	labMargin       = 0.3
	labServiceCost  = 15.0
	labCLVMonths    = 12.0
	labMediumRecent = 60.0
	labHighRecent   = 180.0
)

var labSegments = []struct {
	min     float64
	segment string
}{
	{80, taxonomy.SegmentChampion},
	{60, taxonomy.SegmentLoyalist},
	{40, taxonomy.SegmentPotentialLoyalist},
	{20, taxonomy.SegmentAtRisk},
}

// CalculateLab scores raw RFM figures on a 0-100 scale and recommends an
// action, using recency as a proxy for churn risk and a year of margin as a
// proxy for CLV.
func (s *Service) CalculateLab(ctx context.Context, payload features.Payload) (domain.LabResult, error) {
	_, span := tracer.Start(ctx, "scoring.CalculateLab")
	defer span.End()

	f, err := labNumber(payload, customerdomain.ColumnFrequency)
	if err != nil {
		return domain.LabResult{}, endSpan(span, err)
	}
	monetaryField := features.FieldMonetary
	if _, ok := payload.Lookup(monetaryField); !ok {
		monetaryField = features.FieldMonetaryValue
	}
	m, err := labNumber(payload, monetaryField)
	if err != nil {
		return domain.LabResult{}, endSpan(span, err)
	}
	r, err := labNumber(payload, customerdomain.ColumnRecency)
	if err != nil {
		return domain.LabResult{}, endSpan(span, err)
	}

	score := (math.Min(f/labFrequencyCap, 1)*0.4 +
		math.Min(m/labMonetaryCap, 1)*0.4 +
		math.Max(1-r/labRecencyCap, 0)*0.2) * 100
	profitability := m*labMargin - labServiceCost

	segment := taxonomy.SegmentHibernating
	for _, band := range labSegments {
		if score >= band.min {
			segment = band.segment
			break
		}
	}

	risk := taxonomy.RiskHigh
	switch {
	case r < labMediumRecent:
		risk = taxonomy.RiskLow
	case r < labHighRecent:
		risk = taxonomy.RiskMedium
	}

	d := decision.Decide(segment, risk, profitability*labCLVMonths)
	return domain.LabResult{
		RFMScore:           numeric.Round(score, 1),
		Segment:            segment,
		ProfitabilityScore: numeric.Money(profitability),
		Recommendation:     d.RecommendedAction,
		Priority:           d.Priority,
	}, nil
}

func labNumber(payload features.Payload, field string) (float64, error) {
	v, err := features.Number(payload, field, 0)
	if err != nil {
		return 0, err
	}
	return v, features.Finite(field, v)
}
