package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sdpower/token-savings-go/internal/pricing"
	"github.com/sdpower/token-savings-go/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	for _, key := range []string{EnvLogFile, EnvReadsPerFile, EnvRate, EnvDedupCapacity, EnvWorkingDays, EnvTimezone, EnvModel} {
		t.Setenv(key, "")
	}
}

func writeTOML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "token_savings.log", cfg.LogFilePath)
	assert.Equal(t, 5, cfg.ReadsPerFile)
	assert.Equal(t, 15.0, cfg.RatePerMillionUSD)
	assert.Equal(t, 100, cfg.DedupCacheCapacity)
	assert.Equal(t, 22, cfg.WorkingDaysPerMonth)
}

func TestLoad_TOMLThenEnv(t *testing.T) {
	isolate(t)
	path := writeTOML(t, `
log_file_path = "/var/log/savings.log"
reads_per_file = 3
working_days_per_month = 20
`)
	t.Setenv(EnvReadsPerFile, "10")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/log/savings.log", cfg.LogFilePath)
	assert.Equal(t, 10, cfg.ReadsPerFile)
	assert.Equal(t, 20, cfg.WorkingDaysPerMonth)
	assert.Equal(t, 15.0, cfg.RatePerMillionUSD)
}

func TestLoad_ExplicitFileMustExist(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"zero reads", EnvReadsPerFile, "0"},
		{"non-integer reads", EnvReadsPerFile, "five"},
		{"negative rate", EnvRate, "-1"},
		{"bad rate", EnvRate, "cheap"},
		{"zero capacity", EnvDedupCapacity, "0"},
		{"zero working days", EnvWorkingDays, "0"},
		{"bad timezone", EnvTimezone, "Mars/Olympus"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			t.Setenv(tt.key, tt.val)

			_, err := Load("")
			assert.ErrorIs(t, err, types.ErrInvalidConfig)
		})
	}
}

func TestRate_ModelAndExplicitRate(t *testing.T) {
	cfg := Default()
	cfg.Model = "claude-3-5-sonnet-20241022"

	rate, err := cfg.Rate()
	require.NoError(t, err)
	assert.Equal(t, 3.0, rate)

	cfg.SetRate(7.5)
	rate, err = cfg.Rate()
	require.NoError(t, err)
	assert.Equal(t, 7.5, rate)

	unknown := Default()
	unknown.Model = "mystery"
	_, err = unknown.CalculatorOptions()
	assert.ErrorIs(t, err, types.ErrInvalidConfig)
}

func TestRate_TOMLRateBeatsModel(t *testing.T) {
	isolate(t)
	path := writeTOML(t, "model = \"gpt-4o\"\nrate_per_million_usd = 9.0\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	opts, err := cfg.CalculatorOptions()
	require.NoError(t, err)
	assert.Equal(t, 9.0, opts.RatePerMillion)
}

func TestLocation(t *testing.T) {
	cfg := Default()
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	cfg.Timezone = "UTC"
	loc, err = cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

func TestSaveAndLoad(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.ReadsPerFile = 8
	cfg.Timezone = "UTC"
	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, loaded.ReadsPerFile)
	assert.Equal(t, "UTC", loaded.Timezone)
	assert.Equal(t, cfg.LogFilePath, loaded.LogFilePath)
}

func TestSave_ModelRateStaysDerived(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.Model = "claude-3-haiku"
	require.NoError(t, Save(cfg, path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "rate_per_million_usd")

	loaded, err := Load(path)
	require.NoError(t, err)
	want, err := pricing.RatePerMillion("claude-3-haiku")
	require.NoError(t, err)
	rate, err := loaded.Rate()
	require.NoError(t, err)
	assert.Equal(t, want, rate)
}

// inDir runs the test from dir so Load sees dir/.env.
func inDir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_DotEnv(t *testing.T) {
	isolate(t)
	require.NoError(t, os.Unsetenv(EnvReadsPerFile))
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(EnvReadsPerFile+"=3\n"), 0o644))
	inDir(t, dir)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.ReadsPerFile)
}

func TestLoad_MalformedDotEnv(t *testing.T) {
	isolate(t)
	require.NoError(t, os.Unsetenv(EnvReadsPerFile))
	dir := t.TempDir()
	body := EnvReadsPerFile + "=3\nNOT-VALID=1\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(body), 0o644))
	inDir(t, dir)

	_, err := Load("")
	assert.ErrorContains(t, err, "failed to load .env")
}
