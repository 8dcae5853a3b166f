package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ethanolivertroy/depgate/internal/cache"
	"github.com/ethanolivertroy/depgate/internal/models"
	"github.com/sirupsen/logrus"
)

const ossIndexURL = "https://ossindex.net/v2.0/package"

// OSSIndexClient queries the OSS Index package endpoint with one batched request
type OSSIndexClient struct {
	HTTPClient *http.Client
	APIURL     string
	MaxRetries int

	cache *cache.Cache
	log   logrus.FieldLogger
}

// NewOSSIndexClient creates a new OSS Index client. A nil cache disables caching.
func NewOSSIndexClient(timeout time.Duration, c *cache.Cache, log logrus.FieldLogger) *OSSIndexClient {
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &OSSIndexClient{
		HTTPClient: &http.Client{Timeout: timeout},
		APIURL:     ossIndexURL,
		MaxRetries: 3,
		cache:      c,
		log:        log,
	}
}

// Name returns the oracle name
func (c *OSSIndexClient) Name() string {
	return "ossindex"
}

type ossIndexQuery struct {
	PM      string `json:"pm"`
	Name    string `json:"name"`
	Version string `json:"version"`
}

type ossIndexPackage struct {
	Name            string                 `json:"name"`
	Version         string                 `json:"version"`
	Matches         int                    `json:"vulnerability-matches"`
	Vulnerabilities []models.Vulnerability `json:"vulnerabilities"`
}

// Query sends all items in a single request
func (c *OSSIndexClient) Query(ctx context.Context, items []models.QueryItem) ([]models.VulnerableMatch, error) {
	if len(items) == 0 {
		return nil, nil
	}

	queries := make([]ossIndexQuery, len(items))
	for i, item := range items {
		queries[i] = ossIndexQuery{PM: string(item.PackageManager), Name: item.Name, Version: item.Version}
	}
	body, err := json.Marshal(queries)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	key := cache.Key(c.APIURL, body)
	data, cached := c.cache.Get(key)
	if cached {
		c.log.Debugf("using cached OSS Index response for %d packages", len(items))
	} else {
		err = retry(ctx, c.MaxRetries, defaultRetryDelay, func() error {
			data, err = c.post(ctx, body)
			return err
		})
		if err != nil {
			return nil, err
		}
	}

	var packages []ossIndexPackage
	if err := json.Unmarshal(data, &packages); err != nil {
		return nil, fmt.Errorf("failed to decode OSS Index response: %w", err)
	}

	if !cached {
		if err := c.cache.Set(key, data); err != nil {
			c.log.WithError(err).Debug("failed to cache OSS Index response")
		}
	}

	matches := make([]models.VulnerableMatch, 0, len(packages))
	for _, p := range packages {
		matches = append(matches, models.VulnerableMatch{
			Name:            p.Name,
			Version:         p.Version,
			MatchCount:      p.Matches,
			Vulnerabilities: p.Vulnerabilities,
		})
	}
	return matches, nil
}

func (c *OSSIndexClient) post(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIURL, bytes.NewReader(body))
	if err != nil {
		return nil, permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("OSS Index request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("OSS Index", resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return data, nil
}
