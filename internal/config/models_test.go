package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestModelManifestDefaultsWithoutFile(t *testing.T) {
	dir := t.TempDir()

	holder, err := newModelManifestHolder(ModelConfig{Dir: dir}, zap.NewNop())
	require.NoError(t, err)

	got := holder.Get()
	assert.Equal(t, filepath.Join(dir, "xgb_churn_model.json"), got.Churn)
	assert.Equal(t, filepath.Join(dir, "bgf_model.json"), got.BetaGeo)
	assert.Equal(t, filepath.Join(dir, "ggf_model.json"), got.GammaGamma)
}

func TestModelManifestReadsFile(t *testing.T) {
	dir := t.TempDir()
	body := "models:\n  churn: churn_v2.json\n  bg_nbd: /opt/models/bg.json\n  gamma_gamma: gg.json\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "models.yml"), []byte(body), 0o644))

	holder, err := newModelManifestHolder(ModelConfig{Dir: dir}, zap.NewNop())
	require.NoError(t, err)

	got := holder.Get()
	assert.Equal(t, filepath.Join(dir, "churn_v2.json"), got.Churn)
	assert.Equal(t, "/opt/models/bg.json", got.BetaGeo)
	assert.Equal(t, filepath.Join(dir, "gg.json"), got.GammaGamma)
}

func TestModelManifestRejectsEmptyEntry(t *testing.T) {
	dir := t.TempDir()
	body := "models:\n  churn: \"\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "models.yml"), []byte(body), 0o644))

	_, err := newModelManifestHolder(ModelConfig{Dir: dir}, zap.NewNop())
	assert.Error(t, err)
}

func TestModelManifestUpdateNotifiesListeners(t *testing.T) {
	holder, err := newModelManifestHolder(ModelConfig{Dir: t.TempDir()}, nil)
	require.NoError(t, err)

	var seen []ModelManifest
	holder.OnChange(func(m ModelManifest) { seen = append(seen, m) })

	next := ModelManifest{Churn: "/a.json", BetaGeo: "/b.json", GammaGamma: "/c.json"}
	holder.update(next)

	assert.Equal(t, next, holder.Get())
	assert.Equal(t, []ModelManifest{next}, seen)
}
