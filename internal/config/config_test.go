package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigil-app/vigil/pkg/types"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Storage.Engine)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, 3, cfg.Detection.SpikeThreshold)
	assert.Equal(t, 7, cfg.Detection.SpikeWindowDays)
	assert.Equal(t, 3, cfg.Detection.ForecastHorizon)
	assert.True(t, cfg.Companion.ProactiveEnabled)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("VIGIL_SPIKE_THRESHOLD", "5")
	t.Setenv("VIGIL_LLM_PROVIDER", "openai")
	t.Setenv("VIGIL_PERSONALITY_STYLE", "supportive")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Detection.SpikeThreshold)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, types.StyleSupportive, cfg.CompanionSettings().PersonalityStyle)
}

func TestLoadConfigInvalidIntFallsBack(t *testing.T) {
	t.Setenv("VIGIL_SPIKE_THRESHOLD", "a lot")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Detection.SpikeThreshold)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vigil.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
detection:
  spike_threshold: 4
  forecast_horizon: 5
companion:
  personality_style: challenging
`), 0o600))

	cfg, err := LoadConfigFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Detection.SpikeThreshold)
	assert.Equal(t, 5, cfg.Detection.ForecastHorizon)
	assert.Equal(t, 7, cfg.Detection.SpikeWindowDays, "unset file fields keep defaults")
	assert.Equal(t, "challenging", cfg.Companion.PersonalityStyle)
}

func TestLoadConfigFromFileEnvWins(t *testing.T) {
	t.Setenv("VIGIL_SPIKE_THRESHOLD", "9")

	path := filepath.Join(t.TempDir(), "vigil.yaml")
	require.NoError(t, os.WriteFile(path, []byte("detection:\n  spike_threshold: 4\n"), 0o600))

	cfg, err := LoadConfigFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Detection.SpikeThreshold)
}

func TestLoadConfigFromFileMissing(t *testing.T) {
	_, err := LoadConfigFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestEngineDetectionConversion(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	det := cfg.EngineDetection()
	assert.Equal(t, cfg.Detection.AnomalyWindow, det.AnomalyWindow)
	assert.Equal(t, 7*24, int(det.SpikeWindow.Hours()))
}
