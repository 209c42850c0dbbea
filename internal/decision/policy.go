// Package decision maps a customer's segment, churn risk and lifetime value
// to a retention action.
package decision

import "github.com/smallbiznis/churnlens/internal/taxonomy"

// Action catalog.
const (
	ActionStandardNurture       = "Standard Nurture"
	ActionConciergeCall         = "Personal Concierge Call + VIP Retention Bonus"
	ActionReengagementReward    = "Immediate Re-engagement Reward"
	ActionWinbackCampaign       = "Automated Win-back Campaign"
	ActionExclusiveUpsell       = "Exclusive Upsell Offer"
	ActionLoyaltyInvitation     = "Loyalty Program Invitation"
	ActionFeedbackSurvey        = "Feedback Survey + Discount Coupon"
	ActionPlatinumPerks         = "VIP Loyalty Perks (Platinum Tier)"
	ActionEarlyAccess           = "Early Access to New Products"
	ActionStayInTouchNewsletter = "Stay-in-touch Newsletter"
)

// CLV thresholds are strict: a value equal to the threshold does not qualify.
const (
	HighRiskCLVThreshold   = 1000.0
	MediumRiskCLVThreshold = 500.0
	LowRiskCLVThreshold    = 2000.0
)

type Decision struct {
	RecommendedAction string `json:"recommended_action"`
	Priority          string `json:"priority"`
}

// Decide evaluates the retention table top to bottom and returns the first
// matching action. Any segment, risk or clv is accepted; a risk outside the
// known tiers is treated as Low Risk.
func Decide(segment, risk string, clv float64) Decision {
	d := Decision{
		RecommendedAction: ActionStandardNurture,
		Priority:          taxonomy.PriorityLow,
	}

	switch risk {
	case taxonomy.RiskHigh:
		switch {
		case clv > HighRiskCLVThreshold:
			d = Decision{ActionConciergeCall, taxonomy.PriorityCritical}
		case segment == taxonomy.SegmentChampion || segment == taxonomy.SegmentLoyalist:
			d = Decision{ActionReengagementReward, taxonomy.PriorityHigh}
		default:
			d = Decision{ActionWinbackCampaign, taxonomy.PriorityMedium}
		}
	case taxonomy.RiskMedium:
		switch {
		case clv > MediumRiskCLVThreshold:
			d = Decision{ActionExclusiveUpsell, taxonomy.PriorityHigh}
		case segment == taxonomy.SegmentPotentialLoyalist:
			d = Decision{ActionLoyaltyInvitation, taxonomy.PriorityMedium}
		default:
			d = Decision{ActionFeedbackSurvey, taxonomy.PriorityLow}
		}
	default:
		switch {
		case clv > LowRiskCLVThreshold:
			d = Decision{ActionPlatinumPerks, taxonomy.PriorityHigh}
		case segment == taxonomy.SegmentChampion:
			d = Decision{ActionEarlyAccess, taxonomy.PriorityMedium}
		default:
			d = Decision{ActionStayInTouchNewsletter, taxonomy.PriorityLow}
		}
	}

	return d
}
