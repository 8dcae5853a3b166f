package reporter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethanolivertroy/depgate/internal/models"
	"github.com/google/uuid"
)

// SARIFReporter outputs the report in SARIF format for GitHub Code Scanning
type SARIFReporter struct{}

// SARIF structures
type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool              sarifTool              `json:"tool"`
	AutomationDetails sarifAutomationDetails `json:"automationDetails"`
	Results           []sarifResult          `json:"results"`
}

type sarifAutomationDetails struct {
	GUID string `json:"guid"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationURI string      `json:"informationUri"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	ShortDescription sarifText       `json:"shortDescription"`
	FullDescription  sarifText       `json:"fullDescription"`
	Help             sarifText       `json:"help"`
	HelpURI          string          `json:"helpUri,omitempty"`
	DefaultConfig    sarifRuleConfig `json:"defaultConfiguration"`
	Properties       sarifProperties `json:"properties"`
}

type sarifText struct {
	Text string `json:"text"`
}

type sarifRuleConfig struct {
	Level string `json:"level"`
}

type sarifProperties struct {
	Tags []string `json:"tags"`
}

type sarifResult struct {
	RuleID              string            `json:"ruleId"`
	RuleIndex           int               `json:"ruleIndex"`
	Level               string            `json:"level"`
	Message             sarifText         `json:"message"`
	Locations           []sarifLocation   `json:"locations"`
	PartialFingerprints map[string]string `json:"partialFingerprints"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifact `json:"artifactLocation"`
}

type sarifArtifact struct {
	URI string `json:"uri"`
}

// Report generates SARIF output for the given report
func (r *SARIFReporter) Report(report *models.VulnerabilityReport) ([]byte, error) {
	rules, ruleIndexMap := r.buildRules(report.VulnerablePackages)

	out := sarifReport{
		Schema:  "https://json.schemastore.org/sarif-2.1.0.json",
		Version: "2.1.0",
		Runs: []sarifRun{{
			Tool: sarifTool{
				Driver: sarifDriver{
					Name:           "depgate",
					Version:        ToolVersion,
					InformationURI: "https://github.com/ethanolivertroy/depgate",
					Rules:          rules,
				},
			},
			AutomationDetails: sarifAutomationDetails{GUID: uuid.New().String()},
			Results:           r.buildResults(report.VulnerablePackages, ruleIndexMap),
		}},
	}

	return json.MarshalIndent(out, "", "  ")
}

// buildRules creates one rule per distinct vulnerability title, in order of
// first appearance
func (r *SARIFReporter) buildRules(packages []models.VulnerablePackage) ([]sarifRule, map[string]int) {
	rules := make([]sarifRule, 0)
	ruleIndexMap := make(map[string]int)

	for _, pkg := range packages {
		for _, v := range pkg.Vulnerabilities {
			if _, exists := ruleIndexMap[v.Title]; exists {
				continue
			}

			help := v.Description
			if len(v.Versions) > 0 {
				help += fmt.Sprintf("\n\nAffected versions: %s", strings.Join(v.Versions, ", "))
			}

			rule := sarifRule{
				ID:               v.Title,
				Name:             v.Title,
				ShortDescription: sarifText{Text: v.Title},
				FullDescription:  sarifText{Text: v.Description},
				Help:             sarifText{Text: help},
				DefaultConfig:    sarifRuleConfig{Level: "error"},
				Properties: sarifProperties{
					Tags: []string{"security", "vulnerability", "dependency"},
				},
			}
			if len(v.References) > 0 {
				rule.HelpURI = v.References[0]
			}

			ruleIndexMap[v.Title] = len(rules)
			rules = append(rules, rule)
		}
	}

	return rules, ruleIndexMap
}

func (r *SARIFReporter) buildResults(packages []models.VulnerablePackage, ruleIndexMap map[string]int) []sarifResult {
	results := make([]sarifResult, 0)

	for _, pkg := range packages {
		level := "error"
		if pkg.WarnOnly {
			level = "warning"
		}

		for _, v := range pkg.Vulnerabilities {
			msg := fmt.Sprintf("Dependency %s has vulnerability %s", pkg.String(), v.Title)
			if len(pkg.Path) > 0 {
				msg += fmt.Sprintf(" (introduced via %s)", strings.Join(pkg.Path, " > "))
			}

			results = append(results, sarifResult{
				RuleID:    v.Title,
				RuleIndex: ruleIndexMap[v.Title],
				Level:     level,
				Message:   sarifText{Text: msg},
				Locations: []sarifLocation{{
					PhysicalLocation: sarifPhysicalLocation{
						ArtifactLocation: sarifArtifact{URI: pkg.String()},
					},
				}},
				PartialFingerprints: map[string]string{
					"primaryLocationLineHash": fmt.Sprintf("%s:%s:%s", pkg.Name, pkg.Version, v.Title),
				},
			})
		}
	}

	return results
}
