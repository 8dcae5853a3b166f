package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ethanolivertroy/depgate/internal/models"
	"github.com/sirupsen/logrus"
)

const osvBatchURL = "https://api.osv.dev/v1/querybatch"

// OSVClient handles requests to the OSV vulnerability database
type OSVClient struct {
	HTTPClient *http.Client
	APIURL     string
	MaxRetries int

	log logrus.FieldLogger
}

// NewOSVClient creates a new OSV client
func NewOSVClient(timeout time.Duration, log logrus.FieldLogger) *OSVClient {
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &OSVClient{
		HTTPClient: &http.Client{Timeout: timeout},
		APIURL:     osvBatchURL,
		MaxRetries: 3,
		log:        log,
	}
}

// Name returns the oracle name
func (c *OSVClient) Name() string {
	return "osv"
}

// osvEcosystems maps package manager tags to OSV ecosystem names
var osvEcosystems = map[models.Ecosystem]string{
	models.EcosystemNpm:  "npm",
	models.EcosystemGo:   "Go",
	models.EcosystemPyPI: "PyPI",
}

type osvQuery struct {
	Package struct {
		Name      string `json:"name"`
		Ecosystem string `json:"ecosystem"`
	} `json:"package"`
	Version string `json:"version"`
}

type osvBatchRequest struct {
	Queries []osvQuery `json:"queries"`
}

type osvVulnerability struct {
	ID         string `json:"id"`
	Summary    string `json:"summary"`
	Details    string `json:"details"`
	References []struct {
		Type string `json:"type"`
		URL  string `json:"url"`
	} `json:"references"`
}

type osvBatchResponse struct {
	Results []struct {
		Vulns []osvVulnerability `json:"vulns"`
	} `json:"results"`
}

// Query returns one match per item, in item order
func (c *OSVClient) Query(ctx context.Context, items []models.QueryItem) ([]models.VulnerableMatch, error) {
	if len(items) == 0 {
		return nil, nil
	}

	matches := make([]models.VulnerableMatch, 0, len(items))

	// OSV batch API allows up to 1000 queries, but we'll use 100 for safety
	const batchSize = 100
	for i := 0; i < len(items); i += batchSize {
		end := min(i+batchSize, len(items))
		chunk := items[i:end]

		var resp *osvBatchResponse
		err := retry(ctx, c.MaxRetries, defaultRetryDelay, func() error {
			var err error
			resp, err = c.queryChunk(ctx, chunk)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to query OSV batch: %w", err)
		}
		if len(resp.Results) != len(chunk) {
			return nil, fmt.Errorf("OSV returned %d results for %d queries", len(resp.Results), len(chunk))
		}

		for j, result := range resp.Results {
			item := chunk[j]
			match := models.VulnerableMatch{
				Name:       item.Name,
				Version:    item.Version,
				MatchCount: len(result.Vulns),
			}
			for _, v := range result.Vulns {
				match.Vulnerabilities = append(match.Vulnerabilities, toVulnerability(v))
			}
			matches = append(matches, match)
		}
		c.log.Debugf("queried OSV for %d/%d packages", end, len(items))
	}

	return matches, nil
}

func toVulnerability(v osvVulnerability) models.Vulnerability {
	vuln := models.Vulnerability{
		Title:       v.ID,
		Description: v.Summary,
	}
	if vuln.Description == "" {
		vuln.Description = v.Details
	}
	for _, ref := range v.References {
		vuln.References = append(vuln.References, ref.URL)
	}
	if len(vuln.References) == 0 {
		vuln.References = []string{"https://osv.dev/vulnerability/" + v.ID}
	}
	return vuln
}

func (c *OSVClient) queryChunk(ctx context.Context, items []models.QueryItem) (*osvBatchResponse, error) {
	req := osvBatchRequest{Queries: make([]osvQuery, len(items))}
	for j, item := range items {
		ecosystem, ok := osvEcosystems[item.PackageManager]
		if !ok {
			ecosystem = string(item.PackageManager)
		}
		req.Queries[j].Package.Name = item.Name
		req.Queries[j].Package.Ecosystem = ecosystem
		req.Queries[j].Version = item.Version
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, permanent(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIURL, bytes.NewReader(body))
	if err != nil {
		return nil, permanent(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("OSV API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("OSV API", resp)
	}

	var batchResp osvBatchResponse
	if err := json.NewDecoder(resp.Body).Decode(&batchResp); err != nil {
		return nil, permanent(fmt.Errorf("failed to decode OSV response: %w", err))
	}

	return &batchResp, nil
}
