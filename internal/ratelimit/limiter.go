package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/churnlens/internal/config"
	"github.com/smallbiznis/churnlens/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const keyLabClient = "churnlens:ratelimit:lab:%s"

var ErrRateLimited = errors.New("rate_limited")

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    config.Config
	Metrics   *metrics.Metrics `optional:"true"`
	Log       *zap.Logger
}

// Limiter throttles the lab endpoints per client IP. A nil or disabled
// Limiter allows every request.
type Limiter struct {
	bucket  Bucket
	rate    float64
	burst   int
	metrics *metrics.Metrics
	log     *zap.Logger
}

func NewLimiter(p Params) (*Limiter, error) {
	log := p.Log.Named("ratelimit")
	limitCfg := p.Config.RateLimit
	if !limitCfg.Enabled {
		return &Limiter{log: log}, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		log.Warn("rate limiting enabled without REDIS_ADDR, lab endpoints are not limited")
		return &Limiter{log: log}, nil
	}
	if limitCfg.LabRate <= 0 || limitCfg.LabBurst <= 0 {
		return nil, errors.New("lab rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})

	log.Info("lab rate limiting enabled",
		zap.String("redis_addr", addr),
		zap.Float64("rate", limitCfg.LabRate),
		zap.Int("burst", limitCfg.LabBurst),
	)
	return NewWithBucket(NewTokenBucket(client), limitCfg.LabRate, limitCfg.LabBurst, p.Metrics, log), nil
}

func NewWithBucket(bucket Bucket, rate float64, burst int, m *metrics.Metrics, log *zap.Logger) *Limiter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Limiter{
		bucket:  bucket,
		rate:    rate,
		burst:   burst,
		metrics: m,
		log:     log,
	}
}

func (l *Limiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

// Allow takes a token for clientIP. A nil result means the request was not
// checked.
func (l *Limiter) Allow(ctx context.Context, clientIP string) (*Result, error) {
	if !l.Enabled() {
		return nil, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyLabClient, strings.TrimSpace(clientIP)), l.rate, l.burst)
}
