package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("model", "churn"),
		attribute.String("customer_id", "456"),
		attribute.String("risk", "High Risk"),
	)
	require.Len(t, attrs, 2)
	assert.Equal(t, attribute.Key("model"), attrs[0].Key)
	assert.Equal(t, attribute.Key("risk"), attrs[1].Key)
}

func TestMetricsRecordersAcceptNoopProvider(t *testing.T) {
	m, err := New(Config{}, noop.NewMeterProvider(), nil)
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordPrediction(ctx, "churn", "score")
	m.RecordPredictionError(ctx, "clv", "invalid_input")
	m.RecordRiskLabel(ctx, "Low Risk")
	m.RecordRateLimitAllowed(ctx, "/api/score")
	m.RecordRateLimitDenied(ctx, "/api/score", "exhausted")

	var nilMetrics *Metrics
	nilMetrics.RecordPrediction(ctx, "churn", "score")
}

func TestPredictionCountersOnRegistry(t *testing.T) {
	registry := NewRegistry()
	m, err := New(Config{}, noop.NewMeterProvider(), registry)
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordPrediction(ctx, "churn", "score")
	m.RecordPrediction(ctx, "churn", "score")
	m.RecordPredictionError(ctx, "clv", "")
	m.RecordRiskLabel(ctx, "High Risk")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.promPredictions.WithLabelValues("churn", "score")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.promPredictionErrors.WithLabelValues("clv", "unknown")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.promRiskLabels.WithLabelValues("High Risk")))

	_, err = New(Config{}, noop.NewMeterProvider(), registry)
	assert.Error(t, err)
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewHTTPMetrics(NewRegistry())

	router := gin.New()
	router.Use(m.GinMiddleware())
	router.GET("/api/customer/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/customer/7", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/customer/8", nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `churnlens_http_requests_total{method="GET",route="/api/customer/:id",status="404"} 2`)
}
