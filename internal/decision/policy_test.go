package decision_test

import (
	"math"
	"testing"

	"github.com/smallbiznis/churnlens/internal/decision"
	"github.com/smallbiznis/churnlens/internal/taxonomy"
	"github.com/stretchr/testify/assert"
)

func TestDecideTable(t *testing.T) {
	cases := []struct {
		name     string
		segment  string
		risk     string
		clv      float64
		action   string
		priority string
	}{
		{"high risk valuable", taxonomy.SegmentAtRisk, taxonomy.RiskHigh, 1500, decision.ActionConciergeCall, taxonomy.PriorityCritical},
		{"high risk champion", taxonomy.SegmentChampion, taxonomy.RiskHigh, 200, decision.ActionReengagementReward, taxonomy.PriorityHigh},
		{"high risk loyalist", taxonomy.SegmentLoyalist, taxonomy.RiskHigh, 200, decision.ActionReengagementReward, taxonomy.PriorityHigh},
		{"high risk other", taxonomy.SegmentHibernating, taxonomy.RiskHigh, 200, decision.ActionWinbackCampaign, taxonomy.PriorityMedium},
		{"medium risk valuable", taxonomy.SegmentChampion, taxonomy.RiskMedium, 501, decision.ActionExclusiveUpsell, taxonomy.PriorityHigh},
		{"medium risk potential loyalist", taxonomy.SegmentPotentialLoyalist, taxonomy.RiskMedium, 100, decision.ActionLoyaltyInvitation, taxonomy.PriorityMedium},
		{"medium risk other", taxonomy.SegmentChampion, taxonomy.RiskMedium, 500, decision.ActionFeedbackSurvey, taxonomy.PriorityLow},
		{"low risk valuable", taxonomy.SegmentNewCustomer, taxonomy.RiskLow, 2000.5, decision.ActionPlatinumPerks, taxonomy.PriorityHigh},
		{"low risk champion", taxonomy.SegmentChampion, taxonomy.RiskLow, 2000, decision.ActionEarlyAccess, taxonomy.PriorityMedium},
		{"low risk other", taxonomy.SegmentLost, taxonomy.RiskLow, 10, decision.ActionStayInTouchNewsletter, taxonomy.PriorityLow},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := decision.Decide(tc.segment, tc.risk, tc.clv)
			assert.Equal(t, tc.action, d.RecommendedAction)
			assert.Equal(t, tc.priority, d.Priority)
		})
	}
}

func TestDecideHighRiskThresholdIsStrict(t *testing.T) {
	atThreshold := decision.Decide(taxonomy.SegmentChampion, taxonomy.RiskHigh, 1000.00)
	assert.NotEqual(t, taxonomy.PriorityCritical, atThreshold.Priority)
	assert.Equal(t, decision.ActionReengagementReward, atThreshold.RecommendedAction)

	above := decision.Decide("anything", taxonomy.RiskHigh, 1000.01)
	assert.Equal(t, taxonomy.PriorityCritical, above.Priority)
}

func TestDecideUnknownRiskFallsToLowRiskBranch(t *testing.T) {
	assert.Equal(t,
		decision.Decide(taxonomy.SegmentChampion, taxonomy.RiskLow, 10),
		decision.Decide(taxonomy.SegmentChampion, "???", 10),
	)
	assert.Equal(t,
		decision.Decide(taxonomy.SegmentLost, taxonomy.RiskLow, 5000),
		decision.Decide(taxonomy.SegmentLost, "", 5000),
	)
}

func TestDecideIsTotal(t *testing.T) {
	segments := append(taxonomy.Segments(), "", "champion", "Ünknown")
	risks := []string{taxonomy.RiskLow, taxonomy.RiskMedium, taxonomy.RiskHigh, "", "high risk", "Critical"}
	values := []float64{math.Inf(-1), -1e9, -1, 0, 500, 1000, 2000, 1e12, math.Inf(1), math.NaN()}

	valid := map[string]bool{
		taxonomy.PriorityLow:      true,
		taxonomy.PriorityMedium:   true,
		taxonomy.PriorityHigh:     true,
		taxonomy.PriorityCritical: true,
	}

	for _, s := range segments {
		for _, r := range risks {
			for _, v := range values {
				first := decision.Decide(s, r, v)
				second := decision.Decide(s, r, v)
				assert.Equal(t, first, second)
				assert.NotEmpty(t, first.RecommendedAction)
				assert.True(t, valid[first.Priority], "priority %q", first.Priority)
			}
		}
	}
}
