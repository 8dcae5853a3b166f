package aggregate

import (
	"github.com/ethanolivertroy/depgate/internal/flatten"
	"github.com/ethanolivertroy/depgate/internal/models"
	"github.com/ethanolivertroy/depgate/internal/policy"
	"github.com/sirupsen/logrus"
)

// Aggregator folds oracle matches into a severity partitioned report
type Aggregator struct {
	log logrus.FieldLogger
}

// New creates an Aggregator. A nil logger uses the logrus standard logger.
func New(log logrus.FieldLogger) *Aggregator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Aggregator{log: log}
}

// Aggregate builds the report from the oracle matches in input order.
//
// Matches are joined to the registry by identity, never by position. A match
// for an identity that was not queried is logged, counted as a failure with
// a path of just the package itself whatever its policy, and recorded in
// Report.Inconsistent when it carries vulnerabilities.
func (a *Aggregator) Aggregate(matches []models.VulnerableMatch, registry flatten.Registry, p *policy.Policy) *models.VulnerabilityReport {
	report := &models.VulnerabilityReport{
		VulnerablePackages: []models.VulnerablePackage{},
	}

	for _, m := range matches {
		id := m.Identity()
		count := max(m.MatchCount, 0)

		severity := p.Classify(m.Name)

		var path []string
		if reg, ok := registry[id]; ok {
			path = reg.Path
		} else {
			severity = policy.Fail
			a.log.WithError(&models.ConsistencyError{Identity: id}).
				WithField("matches", count).
				Warn("Counting unexpected oracle match as failure")
			if count > 0 {
				report.Inconsistent = append(report.Inconsistent, id)
			}
			path = []string{id.String()}
		}

		warnOnly := false
		switch severity {
		case policy.Warn:
			report.WarnCount += count
			warnOnly = count > 0
		case policy.Excluded:
			a.log.WithField("package", id.String()).Warn("Oracle returned an excluded package, counting as failure")
			report.FailCount += count
		default:
			report.FailCount += count
		}

		if count == 0 {
			continue
		}

		report.VulnerablePackages = append(report.VulnerablePackages, models.VulnerablePackage{
			Name:            m.Name,
			Version:         m.Version,
			Path:            path,
			WarnOnly:        warnOnly,
			Vulnerabilities: m.Vulnerabilities,
		})
	}

	return report
}
