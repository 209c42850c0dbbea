package modelstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smallbiznis/churnlens/internal/clock"
	"github.com/smallbiznis/churnlens/internal/clv"
	"github.com/smallbiznis/churnlens/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testdataManifest() config.ModelManifest {
	return config.ModelManifest{
		Churn:      filepath.Join("testdata", "xgb_churn_model.json"),
		BetaGeo:    filepath.Join("testdata", "bgf_model.json"),
		GammaGamma: filepath.Join("testdata", "ggf_model.json"),
	}
}

func TestLoadBuildsBundle(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	bundle, err := Load(testdataManifest(), now)
	require.NoError(t, err)

	assert.Equal(t, now, bundle.LoadedAt)
	assert.Equal(t, []string{"Frequency", "monetary", "InactivityRatio"}, bundle.Churn.Features())

	value, err := bundle.CLV.Estimate(clv.Inputs{Frequency: 3, Recency: 200, Tenure: 300, MonetaryValue: 40}, 6)
	require.NoError(t, err)
	assert.Greater(t, value, 0.0)
}

func TestLoadRejectsInvalidParams(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "ggf.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"p": 6.25, "q": 0.5, "v": 15.44}`), 0o644))

	m := testdataManifest()
	m.GammaGamma = bad
	_, err := Load(m, time.Now())
	assert.Error(t, err)

	unknown := filepath.Join(dir, "bgf.json")
	require.NoError(t, os.WriteFile(unknown, []byte(`{"r": 1, "alpha": 1, "a": 2, "b": 1, "extra": 3}`), 0o644))
	m = testdataManifest()
	m.BetaGeo = unknown
	_, err = Load(m, time.Now())
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	m := testdataManifest()
	m.Churn = filepath.Join(t.TempDir(), "missing.json")

	_, err := Load(m, time.Now())
	assert.Error(t, err)
}

func TestReloadSwapsAndKeepsPreviousOnFailure(t *testing.T) {
	holder, err := config.NewModelManifestHolder(config.Config{
		Models: config.ModelConfig{Dir: "testdata"},
	}, zap.NewNop())
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	registry, err := NewRegistry(Params{Manifest: holder, Clock: fake, Log: zap.NewNop()})
	require.NoError(t, err)
	first := registry.Current()

	broken := testdataManifest()
	broken.Churn = filepath.Join(t.TempDir(), "missing.json")
	assert.Error(t, registry.Reload(broken))
	assert.Same(t, first, registry.Current())

	fake.Advance(time.Hour)
	require.NoError(t, registry.Reload(testdataManifest()))
	second := registry.Current()
	assert.NotSame(t, first, second)
	assert.Equal(t, first.LoadedAt.Add(time.Hour), second.LoadedAt)
}

func TestStaticRegistry(t *testing.T) {
	bundle, err := Load(testdataManifest(), time.Now())
	require.NoError(t, err)

	assert.Same(t, bundle, NewStaticRegistry(bundle).Current())
}
