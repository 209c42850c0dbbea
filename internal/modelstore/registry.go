package modelstore

import (
	"sync"
	"sync/atomic"

	"github.com/smallbiznis/churnlens/internal/clock"
	"github.com/smallbiznis/churnlens/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("modelstore",
	fx.Provide(NewRegistry),
)

// Registry hands out the current Bundle. Readers keep whatever bundle they
// loaded for the rest of their request.
type Registry struct {
	current atomic.Pointer[Bundle]
	clock   clock.Clock
	log     *zap.Logger

	reloadMu sync.Mutex
}

type Params struct {
	fx.In

	Manifest *config.ModelManifestHolder
	Clock    clock.Clock
	Log      *zap.Logger
}

// NewRegistry loads the manifest's models and follows later manifest changes.
func NewRegistry(p Params) (*Registry, error) {
	r := &Registry{clock: p.Clock, log: p.Log.Named("modelstore")}

	bundle, err := Load(p.Manifest.Get(), r.clock.Now())
	if err != nil {
		return nil, err
	}
	r.current.Store(bundle)
	r.log.Info("models loaded",
		zap.String("churn", bundle.Manifest.Churn),
		zap.String("bg_nbd", bundle.Manifest.BetaGeo),
		zap.String("gamma_gamma", bundle.Manifest.GammaGamma),
		zap.Strings("churn_features", bundle.Churn.Features()),
	)

	p.Manifest.OnChange(func(m config.ModelManifest) {
		_ = r.Reload(m)
	})

	return r, nil
}

// NewStaticRegistry serves a fixed bundle.
func NewStaticRegistry(b *Bundle) *Registry {
	r := &Registry{clock: clock.System{}, log: zap.NewNop()}
	r.current.Store(b)
	return r
}

func (r *Registry) Current() *Bundle {
	return r.current.Load()
}

// Reload builds a bundle from m and publishes it. On failure the previous
// bundle stays in place.
func (r *Registry) Reload(m config.ModelManifest) error {
	r.reloadMu.Lock()
	defer r.reloadMu.Unlock()

	bundle, err := Load(m, r.clock.Now())
	if err != nil {
		r.log.Error("model reload failed, keeping previous models", zap.Error(err))
		return err
	}
	r.current.Store(bundle)
	r.log.Info("models reloaded", zap.Strings("churn_features", bundle.Churn.Features()))
	return nil
}
