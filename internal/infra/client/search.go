package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/garagem/seminovos-assistant-go/internal/domain"
	"github.com/garagem/seminovos-assistant-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
)

// SearchClient calls the vehicle search/ranking service.
type SearchClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewSearchClient creates a new SearchClient.
func NewSearchClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *SearchClient {
	return &SearchClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
	}
}

// Search runs the structured query and returns the ranked list, best
// first. Result order is the ranking — the core never re-sorts it.
func (c *SearchClient) Search(ctx context.Context, query *domain.SearchQuery) ([]domain.SearchResult, error) {
	ctx, span := tracer.Start(ctx, "SearchClient.Search")
	defer span.End()
	span.SetAttributes(attribute.String("query.text", query.Text))

	var results struct {
		Results []domain.SearchResult `json:"results"`
	}

	_, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := json.Marshal(query)
			if err != nil {
				return err
			}

			url := fmt.Sprintf("%s/v1/search", c.baseURL)
			httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
			if err != nil {
				return err
			}
			httpReq.Header.Set("Content-Type", "application/json")

			resp, err := c.httpClient.Do(httpReq)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("search API returned status %d", resp.StatusCode)
			}

			return json.NewDecoder(resp.Body).Decode(&results)
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return results.Results, nil
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "search", Err: err}
	}

	return results.Results, nil
}
