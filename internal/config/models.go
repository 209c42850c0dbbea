package config

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// ModelManifest names the artifact files of the pretrained models. Relative
// paths are resolved against the model directory.
type ModelManifest struct {
	Churn      string
	BetaGeo    string
	GammaGamma string
}

func DefaultModelManifest() ModelManifest {
	return ModelManifest{
		Churn:      "xgb_churn_model.json",
		BetaGeo:    "bgf_model.json",
		GammaGamma: "ggf_model.json",
	}
}

type ModelManifestHolder struct {
	dir     string
	current atomic.Value // holds ModelManifest
	log     *zap.Logger

	mu        sync.Mutex
	listeners []func(ModelManifest)
}

func NewModelManifestHolder(cfg Config, log *zap.Logger) (*ModelManifestHolder, error) {
	return newModelManifestHolder(cfg.Models, log)
}

func newModelManifestHolder(cfg ModelConfig, log *zap.Logger) (*ModelManifestHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	dir := strings.TrimSpace(cfg.Dir)
	if dir == "" {
		dir = "."
	}

	v := viper.New()
	v.SetConfigName("models")
	v.SetConfigType("yml")
	v.AddConfigPath(dir)

	v.SetEnvPrefix("CHURNLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultModelManifest()
	v.SetDefault("models.churn", defaults.Churn)
	v.SetDefault("models.bg_nbd", defaults.BetaGeo)
	v.SetDefault("models.gamma_gamma", defaults.GammaGamma)

	found := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		found = false
	}

	holder := &ModelManifestHolder{dir: dir, log: log.Named("config.models")}

	manifest, err := holder.decode(v)
	if err != nil {
		return nil, err
	}
	holder.current.Store(manifest)

	if found && cfg.Reload {
		v.OnConfigChange(func(e fsnotify.Event) {
			updated, err := holder.decode(v)
			if err != nil {
				holder.log.Warn("model manifest ignored", zap.String("file", e.Name), zap.Error(err))
				return
			}
			holder.update(updated)
			holder.log.Info("model manifest reloaded", zap.String("file", e.Name))
		})
		v.WatchConfig()
	}

	return holder, nil
}

func (h *ModelManifestHolder) Get() ModelManifest {
	return h.current.Load().(ModelManifest)
}

func (h *ModelManifestHolder) Dir() string {
	return h.dir
}

// OnChange registers fn to run with every accepted manifest update.
func (h *ModelManifestHolder) OnChange(fn func(ModelManifest)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, fn)
}

func (h *ModelManifestHolder) decode(v *viper.Viper) (ModelManifest, error) {
	m := ModelManifest{
		Churn:      v.GetString("models.churn"),
		BetaGeo:    v.GetString("models.bg_nbd"),
		GammaGamma: v.GetString("models.gamma_gamma"),
	}
	if err := validateModelManifest(m); err != nil {
		return ModelManifest{}, err
	}
	return h.resolve(m), nil
}

func (h *ModelManifestHolder) update(m ModelManifest) {
	h.current.Store(m)

	h.mu.Lock()
	listeners := append([]func(ModelManifest){}, h.listeners...)
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(m)
	}
}

func (h *ModelManifestHolder) resolve(m ModelManifest) ModelManifest {
	return ModelManifest{
		Churn:      h.path(m.Churn),
		BetaGeo:    h.path(m.BetaGeo),
		GammaGamma: h.path(m.GammaGamma),
	}
}

func (h *ModelManifestHolder) path(name string) string {
	name = strings.TrimSpace(name)
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(h.dir, name)
}

func validateModelManifest(m ModelManifest) error {
	if strings.TrimSpace(m.Churn) == "" {
		return errors.New("models.churn cannot be empty")
	}
	if strings.TrimSpace(m.BetaGeo) == "" {
		return errors.New("models.bg_nbd cannot be empty")
	}
	if strings.TrimSpace(m.GammaGamma) == "" {
		return errors.New("models.gamma_gamma cannot be empty")
	}
	return nil
}
