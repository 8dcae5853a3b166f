package parsers

import (
	"path/filepath"

	"github.com/ethanolivertroy/depgate/internal/models"
)

// Parser is the interface for dependency file parsers
type Parser interface {
	// CanParse returns true if this parser can handle the given filename
	CanParse(filename string) bool

	// Parse builds the dependency tree from the file content
	Parse(filepath string, content []byte) (*models.Manifest, error)
}

// GetAllParsers returns all available file parsers, most precise first
func GetAllParsers() []Parser {
	return []Parser{
		&NodePackageLockParser{},
		&GoModParser{},
		&PythonRequirementsParser{},
	}
}

// rootNode builds the synthetic node for the audited project. Manifests that
// do not name the project fall back to the directory name and version 0.0.0.
func rootNode(name, version, file string) *models.DependencyNode {
	if name == "" {
		dir := filepath.Dir(file)
		if abs, err := filepath.Abs(dir); err == nil {
			dir = abs
		}
		name = filepath.Base(dir)
	}
	if version == "" {
		version = "0.0.0"
	}
	return &models.DependencyNode{Name: name, Version: version}
}
