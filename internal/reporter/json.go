package reporter

import (
	"encoding/json"

	"github.com/ethanolivertroy/depgate/internal/models"
)

// JSONReporter outputs the report in JSON format
type JSONReporter struct{}

// jsonOutput represents the JSON output structure
type jsonOutput struct {
	Summary  jsonSummary   `json:"summary"`
	Packages []jsonPackage `json:"vulnerable_packages"`
}

type jsonSummary struct {
	Vulnerabilities  int      `json:"vulnerabilities"`
	Failing          int      `json:"failing"`
	Warnings         int      `json:"warnings"`
	AffectedPackages int      `json:"affected_packages"`
	Inconsistent     []string `json:"inconsistent,omitempty"`
}

type jsonPackage struct {
	Name            string              `json:"name"`
	Version         string              `json:"version"`
	Path            []string            `json:"path"`
	WarnOnly        bool                `json:"warn_only"`
	Vulnerabilities []jsonVulnerability `json:"vulnerabilities"`
}

type jsonVulnerability struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Versions    []string `json:"versions"`
	References  []string `json:"references"`
}

// Report generates JSON output for the given report
func (r *JSONReporter) Report(report *models.VulnerabilityReport) ([]byte, error) {
	output := jsonOutput{
		Summary: jsonSummary{
			Vulnerabilities:  report.Total(),
			Failing:          report.FailCount,
			Warnings:         report.WarnCount,
			AffectedPackages: len(report.VulnerablePackages),
		},
		Packages: make([]jsonPackage, 0, len(report.VulnerablePackages)),
	}

	for _, id := range report.Inconsistent {
		output.Summary.Inconsistent = append(output.Summary.Inconsistent, id.String())
	}

	for _, pkg := range report.VulnerablePackages {
		jp := jsonPackage{
			Name:            pkg.Name,
			Version:         pkg.Version,
			Path:            pkg.Path,
			WarnOnly:        pkg.WarnOnly,
			Vulnerabilities: make([]jsonVulnerability, 0, len(pkg.Vulnerabilities)),
		}

		for _, v := range pkg.Vulnerabilities {
			jv := jsonVulnerability{
				Title:       v.Title,
				Description: v.Description,
				Versions:    v.Versions,
				References:  v.References,
			}
			if jv.Versions == nil {
				jv.Versions = []string{}
			}
			if jv.References == nil {
				jv.References = []string{}
			}
			jp.Vulnerabilities = append(jp.Vulnerabilities, jv)
		}

		output.Packages = append(output.Packages, jp)
	}

	return json.MarshalIndent(output, "", "  ")
}
