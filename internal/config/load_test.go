package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("depgate", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoadDefaults(t *testing.T) {
	config, err := Load(newFlags(t), nil)
	require.NoError(t, err)

	assert.Equal(t, ".", config.Dir)
	assert.Equal(t, "auto", config.Ecosystem)
	assert.Equal(t, "ossindex", config.Oracle)
	assert.Equal(t, "terminal", config.OutputFormat)
	assert.True(t, config.FailOnVulnerable)
	assert.False(t, config.NoCache)
	assert.False(t, config.ClearCache)
	assert.Equal(t, 60*time.Second, config.Timeout)
	assert.Equal(t, 24*time.Hour, config.CacheTTL)
	assert.Equal(t, 3, config.MaxRetries)
}

func TestLoadFlags(t *testing.T) {
	fs := newFlags(t,
		"-f", "json", "-e", "go", "--indirect", "--oracle", "osv",
		"--policy", "policy.json", "--no-fail", "--clear-cache", "--timeout", "5s", "-v",
	)
	config, err := Load(fs, []string{"./project"})
	require.NoError(t, err)

	assert.Equal(t, "./project", config.Dir)
	assert.Equal(t, "json", config.OutputFormat)
	assert.Equal(t, "go", config.Ecosystem)
	assert.True(t, config.IncludeIndirect)
	assert.Equal(t, "osv", config.Oracle)
	assert.Equal(t, "policy.json", config.PolicyFile)
	assert.False(t, config.FailOnVulnerable)
	assert.Equal(t, 5*time.Second, config.Timeout)
	assert.True(t, config.Verbose)
	assert.True(t, config.ClearCache)
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("DEPGATE_FORMAT", "sarif")
	t.Setenv("DEPGATE_NO_CACHE", "true")
	t.Setenv("DEPGATE_ORACLE_URL", "http://localhost:8080/v2.0/package")

	config, err := Load(newFlags(t), nil)
	require.NoError(t, err)
	assert.Equal(t, "sarif", config.OutputFormat)
	assert.True(t, config.NoCache)
	assert.Equal(t, "http://localhost:8080/v2.0/package", config.OracleURL)
}

func TestLoadFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("DEPGATE_FORMAT", "sarif")

	config, err := Load(newFlags(t, "--format", "json"), nil)
	require.NoError(t, err)
	assert.Equal(t, "json", config.OutputFormat)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"format", []string{"--format", "xml"}},
		{"ecosystem", []string{"--ecosystem", "cargo"}},
		{"timeout", []string{"--timeout", "0s"}},
		{"retries", []string{"--retries", "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(newFlags(t, tt.args...), nil)
			assert.Error(t, err)
		})
	}
}
