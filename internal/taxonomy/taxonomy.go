// Package taxonomy holds the closed vocabularies shared by the customer table,
// the churn predictor and the decision policy.
package taxonomy

// RFM segments.
const (
	SegmentChampion          = "Champion"
	SegmentLoyalist          = "Loyalist"
	SegmentPotentialLoyalist = "Potential Loyalist"
	SegmentNewCustomer       = "New Customer"
	SegmentAtRisk            = "At Risk"
	SegmentHibernating       = "Hibernating"
	SegmentLost              = "Lost"
)

// Churn risk tiers.
const (
	RiskLow    = "Low Risk"
	RiskMedium = "Medium Risk"
	RiskHigh   = "High Risk"
)

// Decision priorities.
const (
	PriorityLow      = "Low"
	PriorityMedium   = "Medium"
	PriorityHigh     = "High"
	PriorityCritical = "Critical"
)

var segments = []string{
	SegmentChampion,
	SegmentLoyalist,
	SegmentPotentialLoyalist,
	SegmentNewCustomer,
	SegmentAtRisk,
	SegmentHibernating,
	SegmentLost,
}

var riskRank = map[string]int{
	RiskHigh:   0,
	RiskMedium: 1,
	RiskLow:    2,
}

// Segments returns the known segments in display order.
func Segments() []string {
	out := make([]string, len(segments))
	copy(out, segments)
	return out
}

func IsSegment(value string) bool {
	for _, s := range segments {
		if s == value {
			return true
		}
	}
	return false
}

func IsRisk(value string) bool {
	_, ok := riskRank[value]
	return ok
}

// RiskRank orders risk tiers most urgent first. Unknown values sort last.
func RiskRank(value string) int {
	if rank, ok := riskRank[value]; ok {
		return rank
	}
	return len(riskRank)
}
