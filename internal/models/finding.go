package models

import (
	"encoding/json"
	"fmt"
)

// Vulnerability is a single advisory as reported by the oracle.
// Its content is passed through without interpretation.
type Vulnerability struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Versions    VersionList `json:"versions"`
	References  []string    `json:"references"`
}

// VersionList holds the affected version ranges of a vulnerability.
// Oracles send either a single string or a list of strings.
type VersionList []string

// UnmarshalJSON accepts a string, a list of strings or null
func (v *VersionList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = nil
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*v = nil
		} else {
			*v = VersionList{single}
		}
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("versions must be a string or a list of strings: %w", err)
	}
	*v = list
	return nil
}

// VulnerableMatch is the oracle's answer for one queried package
type VulnerableMatch struct {
	Name            string
	Version         string
	MatchCount      int
	Vulnerabilities []Vulnerability
}

// Identity returns the registry key of the matched package
func (m VulnerableMatch) Identity() PackageIdentity {
	return PackageIdentity{Name: m.Name, Version: m.Version}
}

// VulnerablePackage is a package with at least one known vulnerability
type VulnerablePackage struct {
	Name            string
	Version         string
	Path            []string
	WarnOnly        bool
	Vulnerabilities []Vulnerability
}

// String returns name@version
func (p VulnerablePackage) String() string {
	return p.Name + "@" + p.Version
}

// VulnerabilityReport is the outcome of one check
type VulnerabilityReport struct {
	FailCount          int
	WarnCount          int
	VulnerablePackages []VulnerablePackage

	// Inconsistent lists matches the oracle returned for packages that
	// were never queried. They are counted as failures.
	Inconsistent []PackageIdentity
}

// Total returns the number of matched vulnerabilities
func (r *VulnerabilityReport) Total() int {
	return r.FailCount + r.WarnCount
}

// Clean returns true if no vulnerability was found
func (r *VulnerabilityReport) Clean() bool {
	return r.Total() == 0
}
