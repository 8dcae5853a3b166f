package models

import (
	"fmt"
	"regexp"
	"strings"
)

// Ecosystem is the package manager tag sent to the vulnerability oracle
type Ecosystem string

const (
	EcosystemNpm  Ecosystem = "npm"
	EcosystemGo   Ecosystem = "go"
	EcosystemPyPI Ecosystem = "pypi"
)

var pypiSeparators = regexp.MustCompile(`[-_.]+`)

// NormalizeName returns the canonical spelling of a package name. PyPI names
// follow PEP 503; npm and Go names are case sensitive and kept as written.
func NormalizeName(eco Ecosystem, name string) string {
	if eco == EcosystemPyPI {
		return pypiSeparators.ReplaceAllString(strings.ToLower(name), "-")
	}
	return name
}

// DependencyNode is one installed package in a manifest tree.
// Dependencies keep the order in which the manifest listed them.
type DependencyNode struct {
	Name         string
	Version      string
	Dependencies []*DependencyNode
}

// String returns a human-readable representation
func (n *DependencyNode) String() string {
	return n.Name + "@" + n.Version
}

// Validate walks the tree and rejects nodes without a name or version
func (n *DependencyNode) Validate() error {
	type frame struct {
		node   *DependencyNode
		parent string
	}
	stack := []frame{{node: n}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.node == nil {
			return fmt.Errorf("nil dependency under %q", f.parent)
		}
		if f.node.Name == "" {
			return fmt.Errorf("dependency under %q has no name", f.parent)
		}
		if f.node.Version == "" {
			return fmt.Errorf("dependency %q under %q has no version", f.node.Name, f.parent)
		}
		for _, child := range f.node.Dependencies {
			stack = append(stack, frame{node: child, parent: f.node.String()})
		}
	}
	return nil
}

// Manifest is a resolved dependency tree together with its package manager
type Manifest struct {
	Ecosystem Ecosystem
	Root      *DependencyNode
}

// PackageIdentity is the deduplication key of a package occurrence
type PackageIdentity struct {
	Name    string
	Version string
}

// String returns name@version
func (id PackageIdentity) String() string {
	return id.Name + "@" + id.Version
}

// RegisteredPackage records the first place a package identity was found
type RegisteredPackage struct {
	Name    string
	Version string
	Path    []string // root first, each element name@version
}

// Identity returns the registry key of the package
func (p RegisteredPackage) Identity() PackageIdentity {
	return PackageIdentity{Name: p.Name, Version: p.Version}
}

// QueryItem is a single package lookup sent to the oracle
type QueryItem struct {
	PackageManager Ecosystem
	Name           string
	Version        string
}

// Identity returns the registry key of the queried package
func (q QueryItem) Identity() PackageIdentity {
	return PackageIdentity{Name: q.Name, Version: q.Version}
}
