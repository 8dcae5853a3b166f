package models

import "time"

// Config holds configuration for a check
type Config struct {
	// Project directory whose installed dependencies are audited
	Dir string

	// Manifest settings
	Ecosystem       string // "auto", "npm", "lockfile", "go", "pip"
	IncludeIndirect bool   // go.mod only

	// Vulnerability oracle settings
	Oracle    string // "ossindex", "osv"
	OracleURL string // Optional endpoint override

	// Severity policy file, defaults to .depgate.toml in Dir
	PolicyFile string

	// Output settings
	OutputFormat string // "terminal", "json", "sarif"
	OutputFile   string // Optional output file path

	// Behavior settings
	FailOnVulnerable bool // Exit non-zero if failing vulnerabilities found
	Verbose          bool

	// Cache settings
	CacheTTL   time.Duration
	NoCache    bool
	ClearCache bool // Drop cached oracle responses before the check

	// API settings
	Timeout    time.Duration
	MaxRetries int
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Dir:              ".",
		Ecosystem:        "auto",
		Oracle:           "ossindex",
		OutputFormat:     "terminal",
		FailOnVulnerable: true,
		CacheTTL:         24 * time.Hour,
		NoCache:          false,
		Timeout:          60 * time.Second,
		MaxRetries:       3,
	}
}
