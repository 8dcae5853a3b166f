package models

import "fmt"

// ManifestError means the dependency tree could not be obtained
type ManifestError struct {
	Source string
	Err    error
}

func (e *ManifestError) Error() string {
	return fmt.Sprintf("manifest %s: %v", e.Source, e.Err)
}

func (e *ManifestError) Unwrap() error { return e.Err }

// PolicyLoadError means the severity configuration exists but could not be read.
// It is never fatal.
type PolicyLoadError struct {
	Path string
	Err  error
}

func (e *PolicyLoadError) Error() string {
	return fmt.Sprintf("severity policy %s: %v", e.Path, e.Err)
}

func (e *PolicyLoadError) Unwrap() error { return e.Err }

// OracleError means the vulnerability lookup failed
type OracleError struct {
	Oracle string
	Err    error
}

func (e *OracleError) Error() string {
	return fmt.Sprintf("vulnerability oracle %s: %v", e.Oracle, e.Err)
}

func (e *OracleError) Unwrap() error { return e.Err }

// ConsistencyError reports an oracle match for a package that was never queried
type ConsistencyError struct {
	Identity PackageIdentity
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("oracle returned %s which was not queried", e.Identity)
}
