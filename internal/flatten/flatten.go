package flatten

import (
	"github.com/ethanolivertroy/depgate/internal/models"
	"github.com/ethanolivertroy/depgate/internal/policy"
)

// Registry maps each unique package to the path it was first found at
type Registry map[models.PackageIdentity]*models.RegisteredPackage

// Result is the outcome of flattening one manifest
type Result struct {
	Queries  []models.QueryItem
	Registry Registry
}

type frame struct {
	node       *models.DependencyNode
	parentPath []string
}

// Flatten walks the manifest depth-first in pre-order and returns one query
// per unique name+version, in first-discovery order.
//
// Excluded names are skipped together with everything beneath them. A package
// seen before is not walked again, so its path stays the one from first
// discovery. The root itself is never queried.
func Flatten(manifest *models.Manifest, p *policy.Policy) Result {
	res := Result{Registry: make(Registry)}
	if manifest == nil || manifest.Root == nil {
		return res
	}

	root := manifest.Root
	rootPath := []string{root.String()}

	stack := make([]frame, 0, len(root.Dependencies))
	stack = pushChildren(stack, root, rootPath)

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := f.node
		if p.Classify(node.Name) == policy.Excluded {
			continue
		}

		id := models.PackageIdentity{Name: node.Name, Version: node.Version}
		if _, seen := res.Registry[id]; seen {
			continue
		}

		path := make([]string, len(f.parentPath)+1)
		copy(path, f.parentPath)
		path[len(f.parentPath)] = node.String()

		res.Registry[id] = &models.RegisteredPackage{
			Name:    node.Name,
			Version: node.Version,
			Path:    path,
		}
		res.Queries = append(res.Queries, models.QueryItem{
			PackageManager: manifest.Ecosystem,
			Name:           node.Name,
			Version:        node.Version,
		})

		stack = pushChildren(stack, node, path)
	}

	return res
}

// pushChildren pushes in reverse so the first child is popped first
func pushChildren(stack []frame, node *models.DependencyNode, path []string) []frame {
	for i := len(node.Dependencies) - 1; i >= 0; i-- {
		if node.Dependencies[i] == nil {
			continue
		}
		stack = append(stack, frame{node: node.Dependencies[i], parentPath: path})
	}
	return stack
}
