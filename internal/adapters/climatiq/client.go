package climatiq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/greenbasket/greenbasket/internal/core"
)

// DefaultBaseURL is the public Climatiq API endpoint
const DefaultBaseURL = "https://api.climatiq.io"

// Client talks to the Climatiq data API. It implements the factor
// provider port with the /data/v1/search and /data/v1/estimate endpoints.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	dataVersion string
	logger      *zap.Logger
}

// NewClient creates a new Climatiq API client
func NewClient(baseURL, apiKey, dataVersion string, timeout time.Duration, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		dataVersion: dataVersion,
		logger:      logger,
	}
}

type searchResponse struct {
	Results []json.RawMessage `json:"results"`
}

type factorFields struct {
	ActivityID string `json:"activity_id"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	Source     string `json:"source"`
	Region     string `json:"region"`
	Year       int    `json:"year"`
	UnitType   string `json:"unit_type"`
	Unit       string `json:"unit"`
}

// Search queries the factor database. An empty region leaves the search
// unscoped.
func (c *Client) Search(ctx context.Context, query, region string) ([]core.FactorDoc, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("data_version", c.dataVersion)
	if region != "" {
		params.Set("region", region)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/data/v1/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call search API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("search API error %d: %s", resp.StatusCode, string(body))
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("failed to parse search JSON: %w", err)
	}

	docs := make([]core.FactorDoc, 0, len(sr.Results))
	for _, raw := range sr.Results {
		var f factorFields
		if err := json.Unmarshal(raw, &f); err != nil {
			c.logger.Warn("Skipping unparseable factor result", zap.Error(err))
			continue
		}
		docs = append(docs, core.FactorDoc{
			ActivityID: f.ActivityID,
			Name:       f.Name,
			Category:   f.Category,
			Source:     f.Source,
			Region:     f.Region,
			Year:       f.Year,
			UnitType:   f.UnitType,
			Unit:       f.Unit,
			Raw:        raw,
		})
	}

	c.logger.Debug("Factor search complete",
		zap.String("query", query),
		zap.String("region", region),
		zap.Int("results", len(docs)))
	return docs, nil
}

type estimateResponse struct {
	CO2e float64 `json:"co2e"`
}

// Estimate resolves a quantity against a chosen factor. Any non-success
// status is returned as an error so misconfiguration stays visible.
func (c *Client) Estimate(ctx context.Context, er core.EstimateRequest) (*core.EstimateResponse, error) {
	payload := map[string]any{
		"emission_factor": map[string]any{
			"activity_id":  er.ActivityID,
			"data_version": er.DataVersion,
		},
		"parameters": er.Parameters,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal estimate payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/data/v1/estimate", bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("failed to create estimate request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call estimate API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read estimate response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("Estimate request rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)))
		return nil, fmt.Errorf("estimate API error %d: %s", resp.StatusCode, string(body))
	}

	var parsed estimateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse estimate JSON: %w", err)
	}

	return &core.EstimateResponse{CO2e: parsed.CO2e, Raw: body}, nil
}
