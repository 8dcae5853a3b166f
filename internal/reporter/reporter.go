package reporter

import "github.com/ethanolivertroy/depgate/internal/models"

// ToolVersion is reported as the driver version in SARIF output
var ToolVersion = "dev"

// Reporter is the interface for output formatters
type Reporter interface {
	// Report generates output for the given report
	Report(report *models.VulnerabilityReport) ([]byte, error)
}

// Get returns a reporter for the specified format
func Get(format string) Reporter {
	switch format {
	case "json":
		return &JSONReporter{}
	case "sarif":
		return &SARIFReporter{}
	default:
		return NewTerminalReporter()
	}
}
