package parsers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ethanolivertroy/depgate/internal/models"
	"github.com/sirupsen/logrus"
)

var (
	errNoManifest         = errors.New("no supported manifest found")
	errUnknownEcosystem   = errors.New("unknown ecosystem")
	errManifestNotPresent = errors.New("manifest file not found")
)

// Source produces the installed dependency tree of a project
type Source interface {
	// Name identifies the source in errors and logs
	Name() string

	// Load returns the production dependency tree
	Load(ctx context.Context) (*models.Manifest, error)
}

// DefaultNpmListCommand lists the whole installed production tree as JSON.
// npm 7 and later print only top-level packages without --all.
var DefaultNpmListCommand = []string{"npm", "ls", "--all", "--omit=dev", "--json"}

// NpmListSource asks npm for the installed tree
type NpmListSource struct {
	Dir     string
	Command []string // defaults to DefaultNpmListCommand
	Log     logrus.FieldLogger
}

// Name returns the command line that is run
func (s *NpmListSource) Name() string {
	return strings.Join(s.command(), " ")
}

func (s *NpmListSource) command() []string {
	if len(s.Command) == 0 {
		return DefaultNpmListCommand
	}
	return s.Command
}

// Load runs the list command in Dir. Any non-zero exit fails the load,
// since npm reports missing or extraneous packages that way.
func (s *NpmListSource) Load(ctx context.Context) (*models.Manifest, error) {
	args := s.command()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = s.Dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if s.Log != nil {
		s.Log.Debugf("running %s in %s", s.Name(), s.Dir)
	}
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("running %s: %w: %s", s.Name(), err, strings.TrimSpace(stderr.String()))
	}

	return ParseNpmList(stdout.Bytes(), filepath.Join(s.Dir, "package.json"))
}

// FileSource parses a manifest file with a Parser
type FileSource struct {
	Path   string
	Parser Parser
}

// Name returns the manifest path
func (s *FileSource) Name() string {
	return s.Path
}

// Load reads and parses the manifest file
func (s *FileSource) Load(_ context.Context) (*models.Manifest, error) {
	content, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, err
	}
	return s.Parser.Parse(s.Path, content)
}

// Detect picks the manifest source for a project directory.
//
// "auto" prefers npm when a package.json exists, then go.mod, then
// requirements.txt. "lockfile" reads package-lock.json or
// npm-shrinkwrap.json without running npm.
func Detect(dir, ecosystem string, includeIndirect bool, log logrus.FieldLogger) (Source, error) {
	switch ecosystem {
	case "", "auto":
		if exists(filepath.Join(dir, "package.json")) {
			return &NpmListSource{Dir: dir, Log: log}, nil
		}
		for _, name := range []string{"go.mod", "requirements.txt"} {
			if exists(filepath.Join(dir, name)) {
				return fileSource(dir, name, includeIndirect), nil
			}
		}
		return nil, fmt.Errorf("%s: %w", dir, errNoManifest)
	case "npm":
		return &NpmListSource{Dir: dir, Log: log}, nil
	case "lockfile":
		for _, name := range []string{"npm-shrinkwrap.json", "package-lock.json"} {
			if exists(filepath.Join(dir, name)) {
				return fileSource(dir, name, includeIndirect), nil
			}
		}
		return nil, fmt.Errorf("%s: package-lock.json: %w", dir, errManifestNotPresent)
	case "go":
		return fileSource(dir, "go.mod", includeIndirect), nil
	case "pip":
		return fileSource(dir, "requirements.txt", includeIndirect), nil
	default:
		return nil, fmt.Errorf("%q: %w", ecosystem, errUnknownEcosystem)
	}
}

func fileSource(dir, name string, includeIndirect bool) *FileSource {
	var parser Parser
	for _, p := range GetAllParsers() {
		if p.CanParse(name) {
			parser = p
			break
		}
	}
	if gp, ok := parser.(*GoModParser); ok {
		gp.IncludeIndirect = includeIndirect
	}
	return &FileSource{Path: filepath.Join(dir, name), Parser: parser}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
