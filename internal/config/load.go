package config

import (
	"fmt"
	"strings"

	"github.com/ethanolivertroy/depgate/internal/models"
	"github.com/ethanolivertroy/depgate/internal/policy"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces the environment variables that mirror each flag
const EnvPrefix = "DEPGATE"

var (
	validEcosystems = []string{"auto", "npm", "lockfile", "go", "pip"}
	validFormats    = []string{"terminal", "json", "sarif"}
)

// RegisterFlags adds every configuration flag to fs
func RegisterFlags(fs *pflag.FlagSet) {
	d := models.DefaultConfig()

	fs.StringP("output", "o", "", "Output file path (default: stdout)")
	fs.StringP("format", "f", d.OutputFormat, "Output format: terminal, json, sarif")
	fs.StringP("ecosystem", "e", d.Ecosystem, "Manifest source: auto, npm, lockfile, go, pip")
	fs.Bool("indirect", false, "Include // indirect requirements from go.mod")
	fs.String("oracle", d.Oracle, "Vulnerability oracle: ossindex, osv")
	fs.String("oracle-url", "", "Override the oracle endpoint")
	fs.String("policy", "", "Severity policy file (default: <dir>/"+policy.DefaultFile+")")
	fs.Bool("no-fail", false, "Exit 0 even if failing vulnerabilities are found")
	fs.Bool("no-cache", false, "Disable the oracle response cache")
	fs.Bool("clear-cache", false, "Remove cached oracle responses before checking")
	fs.Duration("cache-ttl", d.CacheTTL, "How long cached oracle responses stay valid")
	fs.Duration("timeout", d.Timeout, "HTTP request timeout")
	fs.Int("retries", d.MaxRetries, "Attempts per oracle request")
	fs.BoolP("verbose", "v", false, "Enable debug logging")
}

// Load builds a Config from .env, DEPGATE_* environment variables and the
// parsed flags, in increasing order of precedence.
func Load(fs *pflag.FlagSet, args []string) (*models.Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	config := models.DefaultConfig()
	if len(args) > 0 && args[0] != "" {
		config.Dir = args[0]
	}

	config.OutputFile = v.GetString("output")
	config.OutputFormat = strings.ToLower(v.GetString("format"))
	config.Ecosystem = strings.ToLower(v.GetString("ecosystem"))
	config.IncludeIndirect = v.GetBool("indirect")
	config.Oracle = strings.ToLower(v.GetString("oracle"))
	config.OracleURL = v.GetString("oracle-url")
	config.PolicyFile = v.GetString("policy")
	config.FailOnVulnerable = !v.GetBool("no-fail")
	config.NoCache = v.GetBool("no-cache")
	config.ClearCache = v.GetBool("clear-cache")
	config.CacheTTL = v.GetDuration("cache-ttl")
	config.Timeout = v.GetDuration("timeout")
	config.MaxRetries = v.GetInt("retries")
	config.Verbose = v.GetBool("verbose")

	if err := validate(config); err != nil {
		return nil, err
	}
	return config, nil
}

func validate(config *models.Config) error {
	if !contains(validEcosystems, config.Ecosystem) {
		return fmt.Errorf("invalid ecosystem %q (want one of %s)", config.Ecosystem, strings.Join(validEcosystems, ", "))
	}
	if !contains(validFormats, config.OutputFormat) {
		return fmt.Errorf("invalid format %q (want one of %s)", config.OutputFormat, strings.Join(validFormats, ", "))
	}
	if config.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", config.Timeout)
	}
	if config.MaxRetries < 1 {
		return fmt.Errorf("retries must be at least 1, got %d", config.MaxRetries)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
