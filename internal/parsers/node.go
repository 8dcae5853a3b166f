package parsers

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ethanolivertroy/depgate/internal/models"
)

var (
	errMissingDependency  = errors.New("dependency is not installed, run `npm install`")
	errNoLockfilePackages = errors.New("lockfile lists no packages")
)

// npmListNode is one node of `npm ls --json` output
type npmListNode struct {
	Name         string               `json:"name"`
	Version      string               `json:"version"`
	Missing      bool                 `json:"missing"`
	Dependencies ordered[npmListNode] `json:"dependencies"`
}

// ParseNpmList builds the tree from `npm ls --json` output. Child names come
// from the dependency keys, so the output order of npm is kept.
func ParseNpmList(content []byte, file string) (*models.Manifest, error) {
	var top npmListNode
	if err := json.Unmarshal(content, &top); err != nil {
		return nil, fmt.Errorf("decoding npm ls output: %w", err)
	}

	root := rootNode(top.Name, top.Version, file)

	type frame struct {
		src *npmListNode
		dst *models.DependencyNode
	}
	stack := []frame{{src: &top, dst: root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for i := range f.src.Dependencies {
			e := &f.src.Dependencies[i]
			if e.Value.Missing {
				return nil, fmt.Errorf("%s required by %s: %w", e.Key, f.dst, errMissingDependency)
			}
			child := &models.DependencyNode{Name: e.Key, Version: e.Value.Version}
			f.dst.Dependencies = append(f.dst.Dependencies, child)
			stack = append(stack, frame{src: &e.Value, dst: child})
		}
	}

	return &models.Manifest{Ecosystem: models.EcosystemNpm, Root: root}, nil
}

// NodePackageLockParser parses package-lock.json and npm-shrinkwrap.json files.
// The tree follows the node_modules layout recorded in the lockfile.
type NodePackageLockParser struct{}

// CanParse returns true for npm lockfiles
func (p *NodePackageLockParser) CanParse(filename string) bool {
	return filename == "package-lock.json" || filename == "npm-shrinkwrap.json"
}

// lockDependency is a lockfile v1 entry, nested by install location
type lockDependency struct {
	Version      string                  `json:"version"`
	Dev          bool                    `json:"dev"`
	Dependencies ordered[lockDependency] `json:"dependencies"`
}

// lockPackage is a lockfile v2/v3 entry keyed by its node_modules path
type lockPackage struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Dev     bool   `json:"dev"`
	Link    bool   `json:"link"`
}

// packageLock represents the structure of package-lock.json (v1/v2/v3)
type packageLock struct {
	Name            string `json:"name"`
	Version         string `json:"version"`
	LockfileVersion int    `json:"lockfileVersion"`
	// V2/V3 format
	Packages map[string]lockPackage `json:"packages"`
	// V1 format
	Dependencies ordered[lockDependency] `json:"dependencies"`
}

// Parse builds the production dependency tree from lockfile content
func (p *NodePackageLockParser) Parse(filepath string, content []byte) (*models.Manifest, error) {
	var lock packageLock
	if err := json.Unmarshal(content, &lock); err != nil {
		return nil, err
	}

	name, version := lock.Name, lock.Version
	if rp, ok := lock.Packages[""]; ok {
		if name == "" {
			name = rp.Name
		}
		if version == "" {
			version = rp.Version
		}
	}
	root := rootNode(name, version, filepath)
	manifest := &models.Manifest{Ecosystem: models.EcosystemNpm, Root: root}

	if len(lock.Packages) > 0 {
		buildFromPackages(root, lock.Packages)
		return manifest, nil
	}

	if lock.Dependencies == nil {
		if lock.LockfileVersion == 0 {
			return nil, errNoLockfilePackages
		}
		return manifest, nil
	}

	// V1 format fallback
	type frame struct {
		deps ordered[lockDependency]
		dst  *models.DependencyNode
	}
	stack := []frame{{deps: lock.Dependencies, dst: root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, e := range f.deps {
			if e.Value.Dev {
				continue
			}
			child := &models.DependencyNode{Name: e.Key, Version: e.Value.Version}
			f.dst.Dependencies = append(f.dst.Dependencies, child)
			if len(e.Value.Dependencies) > 0 {
				stack = append(stack, frame{deps: e.Value.Dependencies, dst: child})
			}
		}
	}

	return manifest, nil
}

const nodeModules = "node_modules/"

// buildFromPackages nests v2/v3 entries like "node_modules/a/node_modules/b"
// under their parent install location. Dev entries, workspace links and
// entries outside node_modules are left out.
func buildFromPackages(root *models.DependencyNode, packages map[string]lockPackage) {
	paths := make([]string, 0, len(packages))
	for path := range packages {
		if strings.HasPrefix(path, nodeModules) {
			paths = append(paths, path)
		}
	}
	// parents sort before their children
	sort.Strings(paths)

	byPath := map[string]*models.DependencyNode{"": root}
	for _, path := range paths {
		pkg := packages[path]
		if pkg.Dev || pkg.Link {
			continue
		}

		idx := strings.LastIndex(path, nodeModules)
		parentPath := strings.TrimSuffix(path[:idx], "/")
		parent, ok := byPath[parentPath]
		if !ok {
			// parent was skipped, so is this one
			continue
		}

		name := path[idx+len(nodeModules):]
		if pkg.Name != "" {
			name = pkg.Name
		}

		child := &models.DependencyNode{Name: name, Version: pkg.Version}
		parent.Dependencies = append(parent.Dependencies, child)
		byPath[path] = child
	}
}
