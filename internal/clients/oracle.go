package clients

import (
	"context"
	"fmt"

	"github.com/ethanolivertroy/depgate/internal/cache"
	"github.com/ethanolivertroy/depgate/internal/models"
	"github.com/sirupsen/logrus"
)

// Oracle looks up known vulnerabilities for a batch of packages.
// Matches are returned in any order; callers join them by identity.
type Oracle interface {
	Name() string
	Query(ctx context.Context, items []models.QueryItem) ([]models.VulnerableMatch, error)
}

// NewOracle builds the oracle selected in the config
func NewOracle(config *models.Config, c *cache.Cache, log logrus.FieldLogger) (Oracle, error) {
	switch config.Oracle {
	case "", "ossindex":
		client := NewOSSIndexClient(config.Timeout, c, log)
		client.MaxRetries = config.MaxRetries
		if config.OracleURL != "" {
			client.APIURL = config.OracleURL
		}
		return client, nil
	case "osv":
		client := NewOSVClient(config.Timeout, log)
		client.MaxRetries = config.MaxRetries
		if config.OracleURL != "" {
			client.APIURL = config.OracleURL
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown vulnerability oracle %q", config.Oracle)
	}
}
