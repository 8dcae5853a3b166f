package parsers

import (
	"fmt"
	"strings"

	"github.com/ethanolivertroy/depgate/internal/models"
	"golang.org/x/mod/modfile"
	"golang.org/x/mod/semver"
)

// GoModParser parses go.mod files. Requirements become direct children of
// the module, since go.mod records the whole build list flat.
type GoModParser struct {
	IncludeIndirect bool // Whether to include indirect dependencies
}

// CanParse returns true for go.mod files
func (p *GoModParser) CanParse(filename string) bool {
	return filename == "go.mod"
}

// Parse builds a one level tree from go.mod content
func (p *GoModParser) Parse(filepath string, content []byte) (*models.Manifest, error) {
	mod, err := modfile.Parse(filepath, content, nil)
	if err != nil {
		return nil, err
	}

	name := ""
	if mod.Module != nil {
		name = mod.Module.Mod.Path
	}
	root := rootNode(name, "", filepath)

	replaced := make(map[string]string, len(mod.Replace))
	for _, rep := range mod.Replace {
		if rep.Old.Version == "" && rep.New.Version != "" {
			replaced[rep.Old.Path] = rep.New.Version
		}
	}

	for _, req := range mod.Require {
		// Skip indirect deps unless explicitly requested
		if req.Indirect && !p.IncludeIndirect {
			continue
		}

		version := req.Mod.Version
		if v, ok := replaced[req.Mod.Path]; ok {
			version = v
		}
		if !semver.IsValid(version) {
			return nil, fmt.Errorf("%s: invalid version %q for %s", filepath, version, req.Mod.Path)
		}

		// Clean up version (remove v prefix for lookups)
		root.Dependencies = append(root.Dependencies, &models.DependencyNode{
			Name:    req.Mod.Path,
			Version: strings.TrimPrefix(version, "v"),
		})
	}

	return &models.Manifest{Ecosystem: models.EcosystemGo, Root: root}, nil
}
