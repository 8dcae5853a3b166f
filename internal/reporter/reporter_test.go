package reporter

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/ethanolivertroy/depgate/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *models.VulnerabilityReport {
	return &models.VulnerabilityReport{
		FailCount: 2,
		WarnCount: 1,
		VulnerablePackages: []models.VulnerablePackage{
			{
				Name:    "lodash",
				Version: "4.17.4",
				Path:    []string{"shop@1.0.0", "lodash@4.17.4"},
				Vulnerabilities: []models.Vulnerability{
					{
						Title:       "Prototype Pollution",
						Description: "Unsafe merge",
						Versions:    models.VersionList{"<4.17.5"},
						References:  []string{"https://nodesecurity.io/advisories/577"},
					},
					{Title: "ReDoS", Description: "Slow regex"},
				},
			},
			{
				Name:     "ms",
				Version:  "0.7.0",
				Path:     []string{"shop@1.0.0", "debug@2.2.0", "ms@0.7.0"},
				WarnOnly: true,
				Vulnerabilities: []models.Vulnerability{
					{Title: "ReDoS", Description: "Slow regex"},
				},
			},
		},
	}
}

func TestGet(t *testing.T) {
	assert.IsType(t, &JSONReporter{}, Get("json"))
	assert.IsType(t, &SARIFReporter{}, Get("sarif"))
	assert.IsType(t, &TerminalReporter{}, Get("terminal"))
	assert.IsType(t, &TerminalReporter{}, Get(""))
}

func TestTerminalClean(t *testing.T) {
	out, err := (&TerminalReporter{Width: 80}).Report(&models.VulnerabilityReport{})
	require.NoError(t, err)
	assert.Contains(t, string(out), "No known vulnerabilities found.")
}

func TestTerminalReport(t *testing.T) {
	out, err := (&TerminalReporter{Width: 100}).Report(sampleReport())
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "3 vulnerabilities found in 2 packages")
	assert.Contains(t, text, "(2 failing, 1 warnings)")
	assert.Contains(t, text, "lodash@4.17.4")
	assert.Contains(t, text, "shop@1.0.0 > debug@2.2.0 > ms@0.7.0")
	assert.Contains(t, text, "Prototype Pollution")
	assert.Contains(t, text, "<4.17.5")
	assert.Contains(t, text, "[warn]")
	assert.Contains(t, text, "[fail]")
	assert.NotContains(t, text, "(!)")
}

func TestTerminalReportInconsistent(t *testing.T) {
	report := sampleReport()
	report.Inconsistent = []models.PackageIdentity{{Name: "ghost", Version: "1.0.0"}}

	out, err := (&TerminalReporter{Width: 0}).Report(report)
	require.NoError(t, err)
	assert.Contains(t, string(out), "(!) 1 results did not match a scanned package")
}

func TestTerminalCleanStillShowsInconsistent(t *testing.T) {
	report := &models.VulnerabilityReport{
		VulnerablePackages: []models.VulnerablePackage{},
		Inconsistent:       []models.PackageIdentity{{Name: "ghost", Version: "1.0.0"}},
	}

	out, err := (&TerminalReporter{Width: 80}).Report(report)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "No known vulnerabilities found.")
	assert.Contains(t, string(out), "(!) 1 results did not match a scanned package")
}

func TestTerminalWrapsToWidth(t *testing.T) {
	report := sampleReport()
	report.VulnerablePackages[0].Vulnerabilities[0].Description = strings.Repeat("word ", 60)

	out, err := (&TerminalReporter{Width: 60}).Report(report)
	require.NoError(t, err)
	for _, line := range strings.Split(strings.TrimRight(string(out), "\n"), "\n")[1:] {
		assert.LessOrEqual(t, len([]rune(stripANSI(line))), 60, line)
	}
}

func stripANSI(s string) string {
	var sb strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			inEscape = true
		case inEscape:
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEscape = false
			}
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func TestJSONReport(t *testing.T) {
	report := sampleReport()
	report.Inconsistent = []models.PackageIdentity{{Name: "ghost", Version: "1.0.0"}}

	out, err := (&JSONReporter{}).Report(report)
	require.NoError(t, err)

	var decoded jsonOutput
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, jsonSummary{
		Vulnerabilities:  3,
		Failing:          2,
		Warnings:         1,
		AffectedPackages: 2,
		Inconsistent:     []string{"ghost@1.0.0"},
	}, decoded.Summary)

	require.Len(t, decoded.Packages, 2)
	assert.Equal(t, "lodash", decoded.Packages[0].Name)
	assert.False(t, decoded.Packages[0].WarnOnly)
	assert.True(t, decoded.Packages[1].WarnOnly)
	assert.Equal(t, []string{"<4.17.5"}, decoded.Packages[0].Vulnerabilities[0].Versions)
	assert.Equal(t, []string{}, decoded.Packages[0].Vulnerabilities[1].References)
}

func TestJSONReportClean(t *testing.T) {
	out, err := (&JSONReporter{}).Report(&models.VulnerabilityReport{})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"vulnerable_packages": []`)
	assert.NotContains(t, string(out), "inconsistent")
}

func TestSARIFReport(t *testing.T) {
	out, err := (&SARIFReporter{}).Report(sampleReport())
	require.NoError(t, err)

	var decoded sarifReport
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "2.1.0", decoded.Version)
	require.Len(t, decoded.Runs, 1)

	run := decoded.Runs[0]
	_, err = uuid.Parse(run.AutomationDetails.GUID)
	assert.NoError(t, err)

	// one rule per distinct title
	require.Len(t, run.Tool.Driver.Rules, 2)
	assert.Equal(t, "Prototype Pollution", run.Tool.Driver.Rules[0].ID)
	assert.Equal(t, "https://nodesecurity.io/advisories/577", run.Tool.Driver.Rules[0].HelpURI)
	assert.Equal(t, "ReDoS", run.Tool.Driver.Rules[1].ID)

	require.Len(t, run.Results, 3)
	assert.Equal(t, "error", run.Results[0].Level)
	assert.Equal(t, 1, run.Results[1].RuleIndex)
	assert.Equal(t, "warning", run.Results[2].Level)
	assert.Equal(t, 1, run.Results[2].RuleIndex)
	assert.Equal(t, "ms@0.7.0", run.Results[2].Locations[0].PhysicalLocation.ArtifactLocation.URI)
	assert.Contains(t, run.Results[2].Message.Text, "debug@2.2.0 > ms@0.7.0")
}

func TestSARIFReportClean(t *testing.T) {
	out, err := (&SARIFReporter{}).Report(&models.VulnerabilityReport{})
	require.NoError(t, err)

	var decoded sarifReport
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Empty(t, decoded.Runs[0].Results)
	assert.NotNil(t, decoded.Runs[0].Results)
}
