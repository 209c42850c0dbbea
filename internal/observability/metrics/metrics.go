package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	predictions      metric.Int64Counter
	predictionErrors metric.Int64Counter
	riskLabels       metric.Int64Counter
	rateLimitAllowed metric.Int64Counter
	rateLimitDenied  metric.Int64Counter

	// Prometheus mirrors, gathered by /metrics and the pusher.
	promPredictions      *prometheus.CounterVec
	promPredictionErrors *prometheus.CounterVec
	promRiskLabels       *prometheus.CounterVec
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments. A nil registry skips the
// Prometheus mirrors.
func New(cfg Config, provider metric.MeterProvider, registry *prometheus.Registry) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "churnlens"
	}
	meter := provider.Meter(name)

	predictions, err := meter.Int64Counter("churnlens_predictions_total")
	if err != nil {
		return nil, err
	}
	predictionErrors, err := meter.Int64Counter("churnlens_prediction_errors_total")
	if err != nil {
		return nil, err
	}
	riskLabels, err := meter.Int64Counter("churnlens_churn_risk_total")
	if err != nil {
		return nil, err
	}
	rateLimitAllowed, err := meter.Int64Counter("churnlens_rate_limit_allowed_total")
	if err != nil {
		return nil, err
	}
	rateLimitDenied, err := meter.Int64Counter("churnlens_rate_limit_denied_total")
	if err != nil {
		return nil, err
	}

	m := &Metrics{
		predictions:      predictions,
		predictionErrors: predictionErrors,
		riskLabels:       riskLabels,
		rateLimitAllowed: rateLimitAllowed,
		rateLimitDenied:  rateLimitDenied,
	}
	if registry == nil {
		return m, nil
	}

	m.promPredictions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "churnlens_predictions_total",
		Help: "Model invocations by model and operation.",
	}, []string{"model", "operation"})
	m.promPredictionErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "churnlens_prediction_errors_total",
		Help: "Rejected model invocations by model and reason.",
	}, []string{"model", "reason"})
	m.promRiskLabels = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "churnlens_churn_risk_total",
		Help: "Churn predictions by risk tier.",
	}, []string{"risk"})
	for _, c := range []prometheus.Collector{m.promPredictions, m.promPredictionErrors, m.promRiskLabels} {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("register prediction metrics: %w", err)
		}
	}
	return m, nil
}

// RecordPrediction counts one model invocation for an operation.
func (m *Metrics) RecordPrediction(ctx context.Context, model, operation string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("model", strings.TrimSpace(model)),
		attribute.String("operation", strings.TrimSpace(operation)),
	)
	m.predictions.Add(ctx, 1, metric.WithAttributes(attrs...))
	if m.promPredictions != nil {
		m.promPredictions.WithLabelValues(promLabel(model), promLabel(operation)).Inc()
	}
}

func (m *Metrics) RecordPredictionError(ctx context.Context, model, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("model", strings.TrimSpace(model)),
		attribute.String("reason", strings.TrimSpace(reason)),
	)
	m.predictionErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	if m.promPredictionErrors != nil {
		m.promPredictionErrors.WithLabelValues(promLabel(model), promLabel(reason)).Inc()
	}
}

// RecordRiskLabel counts churn predictions per risk tier.
func (m *Metrics) RecordRiskLabel(ctx context.Context, risk string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("risk", strings.TrimSpace(risk)))
	m.riskLabels.Add(ctx, 1, metric.WithAttributes(attrs...))
	if m.promRiskLabels != nil {
		m.promRiskLabels.WithLabelValues(promLabel(risk)).Inc()
	}
}

func promLabel(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return value
}

func (m *Metrics) RecordRateLimitAllowed(ctx context.Context, endpoint string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("endpoint", strings.TrimSpace(endpoint)))
	m.rateLimitAllowed.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordRateLimitDenied(ctx context.Context, endpoint, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("endpoint", strings.TrimSpace(endpoint)),
		attribute.String("reason", strings.TrimSpace(reason)),
	)
	m.rateLimitDenied.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"model":       {},
	"operation":   {},
	"risk":        {},
	"endpoint":    {},
	"status_code": {},
	"reason":      {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
