package policy

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ethanolivertroy/depgate/internal/models"
)

// DefaultFile is looked up in the project directory when no policy path is given
const DefaultFile = ".depgate.toml"

// Severity is the classification of a package name
type Severity int

const (
	Fail Severity = iota
	Warn
	Excluded
)

func (s Severity) String() string {
	switch s {
	case Warn:
		return "warn"
	case Excluded:
		return "excluded"
	default:
		return "fail"
	}
}

// Policy decides how vulnerabilities of a package are treated.
// The zero value fails on everything.
type Policy struct {
	warns     map[string]struct{}
	excludes  map[string]struct{}
	ecosystem models.Ecosystem
}

// New builds a policy from warn and exclude name lists
func New(warns, excludes []string) *Policy {
	p := &Policy{
		warns:    make(map[string]struct{}, len(warns)),
		excludes: make(map[string]struct{}, len(excludes)),
	}
	for _, name := range warns {
		p.warns[name] = struct{}{}
	}
	for _, name := range excludes {
		p.excludes[name] = struct{}{}
	}
	return p
}

// Empty returns a policy that fails on every vulnerable package
func Empty() *Policy {
	return New(nil, nil)
}

// For returns the policy with its names spelled the way ecosystem spells
// package names, so `Django` in the file matches the `django` package.
func (p *Policy) For(ecosystem models.Ecosystem) *Policy {
	if p == nil {
		return nil
	}
	out := &Policy{
		warns:     make(map[string]struct{}, len(p.warns)),
		excludes:  make(map[string]struct{}, len(p.excludes)),
		ecosystem: ecosystem,
	}
	for name := range p.warns {
		out.warns[models.NormalizeName(ecosystem, name)] = struct{}{}
	}
	for name := range p.excludes {
		out.excludes[models.NormalizeName(ecosystem, name)] = struct{}{}
	}
	return out
}

// Classify returns the severity for a package name. Exclusion wins over warn.
func (p *Policy) Classify(name string) Severity {
	if p == nil {
		return Fail
	}
	name = models.NormalizeName(p.ecosystem, name)
	if _, ok := p.excludes[name]; ok {
		return Excluded
	}
	if _, ok := p.warns[name]; ok {
		return Warn
	}
	return Fail
}

// Size returns the number of warn and exclude entries
func (p *Policy) Size() (warns, excludes int) {
	if p == nil {
		return 0, 0
	}
	return len(p.warns), len(p.excludes)
}

// file is the on-disk shape of the severity configuration
type file struct {
	Warns    []string `toml:"warns" json:"warns"`
	Excludes []string `toml:"excludes" json:"excludes"`
}

// Load reads a policy file. A missing file gives the empty policy and no error.
// A malformed file gives the empty policy and a *models.PolicyLoadError, so
// a broken file never suppresses more findings than no file at all.
func Load(path string) (*Policy, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Empty(), nil
		}
		return Empty(), &models.PolicyLoadError{Path: path, Err: err}
	}

	var f file
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(content, &f)
	} else {
		err = toml.Unmarshal(content, &f)
	}
	if err != nil {
		return Empty(), &models.PolicyLoadError{Path: path, Err: err}
	}

	return New(f.Warns, f.Excludes), nil
}

// Path returns the policy file to use for a project directory
func Path(dir, override string) string {
	if override != "" {
		return override
	}
	return filepath.Join(dir, DefaultFile)
}
