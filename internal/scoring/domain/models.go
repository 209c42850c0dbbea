package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/churnlens/internal/churn"
	"github.com/smallbiznis/churnlens/internal/decision"
	"github.com/smallbiznis/churnlens/internal/features"
)

// Payload fields read by the scoring operations.
const (
	FieldSegment            = "segment"
	FieldRisk               = "risk"
	FieldCLV                = "clv"
	FieldHorizonMonths      = "horizon_months"
	FieldRetentionCost      = "retention_cost"
	FieldSuccessProbability = "success_probability"
)

const (
	DefaultSuccessProbability = 0.3
	MaxHorizonMonths          = 120
)

// LookupResult scores a stored customer: stored CLV, live churn risk and the
// resulting decision.
type LookupResult struct {
	CustomerID int64   `json:"customer_id"`
	Segment    string  `json:"segment"`
	CLV6M      float64 `json:"clv_6m"`
	churn.Prediction
	decision.Decision
}

// ScoreResult scores an ad-hoc feature payload.
type ScoreResult struct {
	ScoreID       snowflake.ID `json:"score_id"`
	Segment       string       `json:"segment"`
	CLV           float64      `json:"clv"`
	HorizonMonths int          `json:"horizon_months"`
	churn.Prediction
	decision.Decision
}

type CLVResult struct {
	CLV           float64  `json:"clv"`
	HorizonMonths int      `json:"horizon_months"`
	CLV6M         *float64 `json:"clv_6m,omitempty"`
}

// LabResult is the RFM score lab output.
type LabResult struct {
	RFMScore           float64 `json:"rfm_score"`
	Segment            string  `json:"segment"`
	ProfitabilityScore float64 `json:"profitability_score"`
	Recommendation     string  `json:"recommendation"`
	Priority           string  `json:"priority"`
}

// SimulationResult echoes the simulated input next to its decision.
type SimulationResult struct {
	Input features.Payload `json:"input"`
	decision.Decision
}

type RetentionRequest struct {
	CLV                *float64 `json:"clv"`
	RetentionCost      *float64 `json:"retention_cost"`
	SuccessProbability *float64 `json:"success_probability"`
}

type RetentionResult struct {
	ExpectedGain float64 `json:"expected_gain"`
	ROI          float64 `json:"roi"`
	Recommend    bool    `json:"recommend"`
}

type Service interface {
	LookupCustomer(ctx context.Context, id string) (LookupResult, error)
	Score(ctx context.Context, payload features.Payload) (ScoreResult, error)
	PredictChurn(ctx context.Context, payload features.Payload) (churn.Prediction, error)
	PredictCLV(ctx context.Context, payload features.Payload) (CLVResult, error)
	CalculateLab(ctx context.Context, payload features.Payload) (LabResult, error)
	SimulateDecision(ctx context.Context, payload features.Payload) (SimulationResult, error)
	SimulateRetention(ctx context.Context, req RetentionRequest) (RetentionResult, error)
}

var ErrModelsUnavailable = errors.New("models_unavailable")
