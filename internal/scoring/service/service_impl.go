package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/churnlens/internal/churn"
	"github.com/smallbiznis/churnlens/internal/clv"
	"github.com/smallbiznis/churnlens/internal/config"
	customerdomain "github.com/smallbiznis/churnlens/internal/customer/domain"
	"github.com/smallbiznis/churnlens/internal/decision"
	"github.com/smallbiznis/churnlens/internal/features"
	"github.com/smallbiznis/churnlens/internal/modelstore"
	"github.com/smallbiznis/churnlens/internal/observability/metrics"
	"github.com/smallbiznis/churnlens/internal/observability/tracing"
	"github.com/smallbiznis/churnlens/internal/scoring/domain"
	"github.com/smallbiznis/churnlens/internal/taxonomy"
	"github.com/smallbiznis/churnlens/pkg/numeric"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	modelChurn = "churn"
	modelCLV   = "clv"
)

type Params struct {
	fx.In

	Config    config.Config
	Customers customerdomain.Service
	Models    *modelstore.Registry
	GenID     *snowflake.Node
	Metrics   *metrics.Metrics `optional:"true"`
	Log       *zap.Logger
}

type Service struct {
	customers      customerdomain.Service
	models         *modelstore.Registry
	genID          *snowflake.Node
	metrics        *metrics.Metrics
	log            *zap.Logger
	defaultHorizon int
}

func New(p Params) domain.Service {
	horizon := p.Config.Models.HorizonMonths
	if horizon <= 0 {
		horizon = clv.DefaultHorizonMonths
	}
	return &Service{
		customers:      p.Customers,
		models:         p.Models,
		genID:          p.GenID,
		metrics:        p.Metrics,
		log:            p.Log.Named("scoring.service"),
		defaultHorizon: horizon,
	}
}

var tracer = otel.Tracer("churnlens/scoring")

// LookupCustomer scores a stored customer with a live churn prediction. The
// decision uses the stored six-month CLV.
func (s *Service) LookupCustomer(ctx context.Context, id string) (domain.LookupResult, error) {
	ctx, span := tracer.Start(ctx, "scoring.LookupCustomer")
	defer span.End()

	customer, err := s.customers.GetByID(ctx, id)
	if err != nil {
		return domain.LookupResult{}, endSpan(span, err)
	}
	span.SetAttributes(attribute.Int64("customer.id", customer.ID))

	models, err := s.bundle()
	if err != nil {
		return domain.LookupResult{}, endSpan(span, err)
	}

	prediction, err := s.predictChurn(ctx, models, &customer, "lookup")
	if err != nil {
		s.log.Warn("failed to score stored customer",
			zap.Int64("customer_id", customer.ID),
			zap.Error(err),
		)
		return domain.LookupResult{}, endSpan(span, err)
	}

	segment := customer.Segment
	if segment == "" {
		segment = taxonomy.SegmentNewCustomer
	}

	return domain.LookupResult{
		CustomerID: customer.ID,
		Segment:    segment,
		CLV6M:      customer.CLV6M,
		Prediction: prediction,
		Decision:   decision.Decide(segment, prediction.RiskLabel, customer.CLV6M),
	}, nil
}

// Score runs churn, CLV and the decision policy over an ad-hoc payload without
// touching the customer table.
func (s *Service) Score(ctx context.Context, payload features.Payload) (domain.ScoreResult, error) {
	ctx, span := tracer.Start(ctx, "scoring.Score")
	defer span.End()

	models, err := s.bundle()
	if err != nil {
		return domain.ScoreResult{}, endSpan(span, err)
	}

	horizon, err := s.horizon(payload)
	if err != nil {
		return domain.ScoreResult{}, endSpan(span, err)
	}

	prediction, err := s.predictChurn(ctx, models, payload, "score")
	if err != nil {
		return domain.ScoreResult{}, endSpan(span, err)
	}

	value, err := s.estimateCLV(ctx, models, payload, horizon, "score")
	if err != nil {
		return domain.ScoreResult{}, endSpan(span, err)
	}

	segment := features.String(payload, domain.FieldSegment, "")
	if segment == "" {
		segment = features.String(payload, customerdomain.ColumnSegment, taxonomy.SegmentNewCustomer)
	}

	result := domain.ScoreResult{
		ScoreID:       s.genID.Generate(),
		Segment:       segment,
		CLV:           value,
		HorizonMonths: horizon,
		Prediction:    prediction,
		Decision:      decision.Decide(segment, prediction.RiskLabel, value),
	}
	span.SetAttributes(tracing.SafeAttributes(
		attribute.String("score.id", result.ScoreID.String()),
		attribute.String("score.priority", result.Priority),
	)...)
	return result, nil
}

func (s *Service) PredictChurn(ctx context.Context, payload features.Payload) (churn.Prediction, error) {
	ctx, span := tracer.Start(ctx, "scoring.PredictChurn")
	defer span.End()

	models, err := s.bundle()
	if err != nil {
		return churn.Prediction{}, endSpan(span, err)
	}
	prediction, err := s.predictChurn(ctx, models, payload, "lab")
	if err != nil {
		return churn.Prediction{}, endSpan(span, err)
	}
	return prediction, nil
}

// PredictCLV estimates lifetime value over horizon_months, or the configured
// default horizon.
func (s *Service) PredictCLV(ctx context.Context, payload features.Payload) (domain.CLVResult, error) {
	ctx, span := tracer.Start(ctx, "scoring.PredictCLV")
	defer span.End()

	models, err := s.bundle()
	if err != nil {
		return domain.CLVResult{}, endSpan(span, err)
	}
	horizon, err := s.horizon(payload)
	if err != nil {
		return domain.CLVResult{}, endSpan(span, err)
	}

	value, err := s.estimateCLV(ctx, models, payload, horizon, "lab")
	if err != nil {
		return domain.CLVResult{}, endSpan(span, err)
	}

	result := domain.CLVResult{CLV: value, HorizonMonths: horizon}
	if horizon == clv.DefaultHorizonMonths {
		result.CLV6M = &value
	}
	return result, nil
}

// SimulateDecision runs the decision policy over a hypothetical customer.
func (s *Service) SimulateDecision(ctx context.Context, payload features.Payload) (domain.SimulationResult, error) {
	_, span := tracer.Start(ctx, "scoring.SimulateDecision")
	defer span.End()

	segment := features.Label(payload, domain.FieldSegment, taxonomy.SegmentChampion)
	risk := features.Label(payload, domain.FieldRisk, taxonomy.RiskLow)
	value, err := features.Number(payload, domain.FieldCLV, 0)
	if err != nil {
		return domain.SimulationResult{}, endSpan(span, err)
	}

	input := payload
	if input == nil {
		input = features.Payload{}
	}
	return domain.SimulationResult{
		Input:    input,
		Decision: decision.Decide(segment, risk, value),
	}, nil
}

// SimulateRetention weighs a retention offer: expected gain is clv times the
// success probability, and the offer is recommended when it beats its cost.
func (s *Service) SimulateRetention(ctx context.Context, req domain.RetentionRequest) (domain.RetentionResult, error) {
	_, span := tracer.Start(ctx, "scoring.SimulateRetention")
	defer span.End()

	if req.CLV == nil {
		return domain.RetentionResult{}, endSpan(span, &features.ValidationError{Field: domain.FieldCLV, Reason: "is required"})
	}
	if req.RetentionCost == nil {
		return domain.RetentionResult{}, endSpan(span, &features.ValidationError{Field: domain.FieldRetentionCost, Reason: "is required"})
	}
	probability := domain.DefaultSuccessProbability
	if req.SuccessProbability != nil {
		probability = *req.SuccessProbability
	}

	for field, v := range map[string]float64{
		domain.FieldCLV:                *req.CLV,
		domain.FieldRetentionCost:      *req.RetentionCost,
		domain.FieldSuccessProbability: probability,
	} {
		if err := features.Finite(field, v); err != nil {
			return domain.RetentionResult{}, endSpan(span, err)
		}
	}

	gain := *req.CLV * probability
	roi := gain - *req.RetentionCost
	return domain.RetentionResult{
		ExpectedGain: numeric.Money(gain),
		ROI:          numeric.Money(roi),
		Recommend:    roi > 0,
	}, nil
}

func (s *Service) bundle() (*modelstore.Bundle, error) {
	b := s.models.Current()
	if b == nil || b.Churn == nil || b.CLV == nil {
		return nil, domain.ErrModelsUnavailable
	}
	return b, nil
}

func (s *Service) predictChurn(ctx context.Context, models *modelstore.Bundle, src features.Source, operation string) (churn.Prediction, error) {
	vector, err := features.ChurnVector(src, models.Churn.Features())
	if err != nil {
		s.metrics.RecordPredictionError(ctx, modelChurn, "invalid_input")
		return churn.Prediction{}, err
	}
	prediction, err := models.Churn.Predict(vector)
	if err != nil {
		s.metrics.RecordPredictionError(ctx, modelChurn, "model_input")
		return churn.Prediction{}, fmt.Errorf("predict churn: %w", err)
	}
	s.metrics.RecordPrediction(ctx, modelChurn, operation)
	s.metrics.RecordRiskLabel(ctx, prediction.RiskLabel)
	return prediction, nil
}

func (s *Service) estimateCLV(ctx context.Context, models *modelstore.Bundle, src features.Source, horizon int, operation string) (float64, error) {
	inputs, err := features.CLVInputs(src)
	if err != nil {
		s.metrics.RecordPredictionError(ctx, modelCLV, "invalid_input")
		return 0, err
	}
	value, err := models.CLV.Estimate(inputs, horizon)
	if err != nil {
		s.metrics.RecordPredictionError(ctx, modelCLV, "model_input")
		return 0, fmt.Errorf("estimate clv: %w", err)
	}
	s.metrics.RecordPrediction(ctx, modelCLV, operation)
	return value, nil
}

// horizon reads horizon_months as a whole number of months.
func (s *Service) horizon(payload features.Payload) (int, error) {
	v, err := features.Number(payload, domain.FieldHorizonMonths, float64(s.defaultHorizon))
	if err != nil {
		return 0, err
	}
	if err := features.Finite(domain.FieldHorizonMonths, v); err != nil {
		return 0, err
	}
	if v != math.Trunc(v) || v < 0 || v > domain.MaxHorizonMonths {
		return 0, &features.ValidationError{
			Field:  domain.FieldHorizonMonths,
			Reason: fmt.Sprintf("must be a whole number between 0 and %d", domain.MaxHorizonMonths),
		}
	}
	return int(v), nil
}

func endSpan(span trace.Span, err error) error {
	var validation *features.ValidationError
	var churnInput *churn.ModelInputError
	var clvInput *clv.ModelInputError
	switch {
	case errors.As(err, &validation), errors.As(err, &churnInput), errors.As(err, &clvInput),
		errors.Is(err, customerdomain.ErrInvalidID), errors.Is(err, customerdomain.ErrNotFound):
		span.SetAttributes(attribute.String("scoring.rejected", tracing.SafeError(err).Error()))
	default:
		span.RecordError(tracing.SafeError(err))
		span.SetStatus(codes.Error, "scoring failed")
	}
	return err
}
