package metricspush

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const defaultInterval = time.Minute

// Worker pushes the gatherer on a fixed interval and once more on stop.
type Worker struct {
	pusher   Pusher
	gatherer prometheus.Gatherer
	interval time.Duration
	log      *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewWorker(pusher Pusher, gatherer prometheus.Gatherer, interval time.Duration, log *zap.Logger) *Worker {
	if interval <= 0 {
		interval = defaultInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Worker{
		pusher:   pusher,
		gatherer: gatherer,
		interval: interval,
		log:      log.Named("metrics.push"),
	}
}

func (w *Worker) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				w.push(ctx, "periodic")
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop ends the loop and flushes the final counter values.
func (w *Worker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	w.push(ctx, "final")
	return nil
}

func (w *Worker) push(ctx context.Context, reason string) {
	pushCtx, cancel := context.WithTimeout(ctx, defaultPushTimeout)
	defer cancel()
	if err := w.pusher.Push(pushCtx, w.gatherer); err != nil {
		w.log.Warn("metrics push failed", zap.String("reason", reason), zap.Error(err))
	}
}

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    Config
	Registry  *prometheus.Registry
	Log       *zap.Logger
}

// Register starts a Worker when a push exporter is configured.
func Register(p Params) {
	pusher := NewPusher(p.Config, p.Log)
	if pusher == nil {
		return
	}

	w := NewWorker(pusher, p.Registry, p.Config.Interval, p.Log)
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			w.log.Info("metrics push enabled",
				zap.String("exporter", p.Config.Exporter),
				zap.Duration("interval", w.interval),
			)
			w.Start()
			return nil
		},
		OnStop: w.Stop,
	})
}
