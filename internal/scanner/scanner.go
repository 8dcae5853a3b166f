package scanner

import (
	"context"
	"errors"

	"github.com/ethanolivertroy/depgate/internal/aggregate"
	"github.com/ethanolivertroy/depgate/internal/cache"
	"github.com/ethanolivertroy/depgate/internal/clients"
	"github.com/ethanolivertroy/depgate/internal/flatten"
	"github.com/ethanolivertroy/depgate/internal/models"
	"github.com/ethanolivertroy/depgate/internal/parsers"
	"github.com/ethanolivertroy/depgate/internal/policy"
	"github.com/sirupsen/logrus"
)

// cacheName is the directory under the user cache dir holding oracle responses
const cacheName = "depgate"

// Scanner orchestrates one vulnerability check of a project
type Scanner struct {
	config     *models.Config
	source     parsers.Source
	oracle     clients.Oracle
	aggregator *aggregate.Aggregator
	log        logrus.FieldLogger
}

// New creates a new Scanner with the given configuration
func New(config *models.Config, log logrus.FieldLogger) (*Scanner, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	var c *cache.Cache
	if !config.NoCache || config.ClearCache {
		var err error
		c, err = cache.New(cacheName, config.CacheTTL)
		if err != nil {
			// Non-fatal: continue without cache
			log.WithError(err).Debug("response cache disabled")
			c = nil
		}
	}
	if config.ClearCache && c != nil {
		if err := c.Clear(); err != nil {
			log.WithError(err).Warn("Failed to clear response cache")
		} else {
			log.Infof("Cleared response cache in %s", c.Dir)
		}
	}
	if config.NoCache {
		c = nil
	}

	source, err := parsers.Detect(config.Dir, config.Ecosystem, config.IncludeIndirect, log)
	if err != nil {
		return nil, err
	}

	oracle, err := clients.NewOracle(config, c, log)
	if err != nil {
		return nil, err
	}

	return NewWith(config, source, oracle, log), nil
}

// NewWith creates a Scanner from explicit collaborators
func NewWith(config *models.Config, source parsers.Source, oracle clients.Oracle, log logrus.FieldLogger) *Scanner {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Scanner{
		config:     config,
		source:     source,
		oracle:     oracle,
		aggregator: aggregate.New(log),
		log:        log,
	}
}

// Check performs the full vulnerability check. Manifest and oracle failures
// return an error and no report, so a clean report always means the project
// was scanned. Nothing is kept between calls.
func (s *Scanner) Check(ctx context.Context) (*models.VulnerabilityReport, error) {
	// Step 1: Load the severity policy, falling back to empty on errors
	p := s.loadPolicy()

	// Step 2: Obtain the installed dependency tree
	manifest, err := s.source.Load(ctx)
	if err == nil && (manifest == nil || manifest.Root == nil) {
		err = errors.New("empty dependency tree")
	}
	if err == nil {
		err = manifest.Root.Validate()
	}
	if err != nil {
		return nil, &models.ManifestError{Source: s.source.Name(), Err: err}
	}

	p = p.For(manifest.Ecosystem)

	// Step 3: Flatten into unique packages
	flat := flatten.Flatten(manifest, p)
	s.log.WithFields(logrus.Fields{
		"root":     manifest.Root.String(),
		"packages": len(flat.Queries),
	}).Info("Flattened dependency tree")

	if len(flat.Queries) == 0 {
		return &models.VulnerabilityReport{VulnerablePackages: []models.VulnerablePackage{}}, nil
	}

	// Step 4: One batched oracle lookup
	matches, err := s.oracle.Query(ctx, flat.Queries)
	if err != nil {
		return nil, &models.OracleError{Oracle: s.oracle.Name(), Err: err}
	}
	s.log.Debugf("oracle %s returned %d matches", s.oracle.Name(), len(matches))

	// Step 5: Fold matches into the report
	report := s.aggregator.Aggregate(matches, flat.Registry, p)
	if len(report.Inconsistent) > 0 {
		s.log.Warnf("%d oracle matches did not correspond to a queried package", len(report.Inconsistent))
	}
	return report, nil
}

func (s *Scanner) loadPolicy() *policy.Policy {
	path := policy.Path(s.config.Dir, s.config.PolicyFile)
	p, err := policy.Load(path)
	if err != nil {
		s.log.WithError(err).Warn("Ignoring severity policy, every vulnerable package will fail")
		return p
	}

	warns, excludes := p.Size()
	s.log.WithFields(logrus.Fields{"warns": warns, "excludes": excludes}).Debugf("severity policy from %s", path)
	return p
}
