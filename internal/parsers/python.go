package parsers

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ethanolivertroy/depgate/internal/models"
)

var errUnpinnedRequirement = errors.New("requirement is not pinned to an exact version")

// PythonRequirementsParser parses requirements.txt files. Only pinned
// requirements (name==version) can be audited; anything else is an error
// rather than a silently skipped package.
type PythonRequirementsParser struct{}

// CanParse returns true for requirements.txt files
func (p *PythonRequirementsParser) CanParse(filename string) bool {
	return filename == "requirements.txt" ||
		strings.HasSuffix(filename, "-requirements.txt") ||
		strings.HasSuffix(filename, "_requirements.txt")
}

// pinnedPattern matches name==1.2.3 and name===1.2.3
var pinnedPattern = regexp.MustCompile(`^([a-zA-Z0-9_.-]+)\s*={2,3}\s*([^\s;,]+)\s*(;.*)?$`)

// Parse builds a one level tree from requirements.txt content
func (p *PythonRequirementsParser) Parse(filepath string, content []byte) (*models.Manifest, error) {
	root := rootNode("", "", filepath)
	lines := strings.Split(string(content), "\n")

	for lineNum, line := range lines {
		line = strings.TrimSpace(line)

		// Skip empty lines, comments, and options
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}

		// Remove inline comments
		if idx := strings.Index(line, " #"); idx > 0 {
			line = strings.TrimSpace(line[:idx])
		}

		// Remove extras like [security]
		if idx := strings.Index(line, "["); idx > 0 {
			bracketEnd := strings.Index(line, "]")
			if bracketEnd > idx {
				line = line[:idx] + line[bracketEnd+1:]
				line = strings.TrimSpace(line)
			}
		}

		matches := pinnedPattern.FindStringSubmatch(line)
		if matches == nil {
			return nil, fmt.Errorf("%s:%d: %q: %w", filepath, lineNum+1, line, errUnpinnedRequirement)
		}

		root.Dependencies = append(root.Dependencies, &models.DependencyNode{
			Name:    models.NormalizeName(models.EcosystemPyPI, matches[1]),
			Version: matches[2],
		})
	}

	return &models.Manifest{Ecosystem: models.EcosystemPyPI, Root: root}, nil
}
