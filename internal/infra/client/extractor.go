// Package client implements the HTTP adapters for the external
// capabilities: NLU extraction, vehicle search and knowledge answering.
// Every call goes through the same resilience stack (circuit breaker +
// retry with backoff) and is traced.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/garagem/seminovos-assistant-go/internal/domain"
	"github.com/garagem/seminovos-assistant-go/internal/infra/resilience"
	"github.com/garagem/seminovos-assistant-go/internal/port"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("infra/client")

// ExtractorClient calls the NLU extraction service.
type ExtractorClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewExtractorClient creates a new ExtractorClient.
func NewExtractorClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *ExtractorClient {
	return &ExtractorClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
	}
}

// Extract invokes the NLU service with the message and profile context.
// The dialog core treats any error as "empty extraction" — this client
// only has to report failures honestly.
func (c *ExtractorClient) Extract(ctx context.Context, req *port.ExtractionRequest) (*port.ExtractionResult, error) {
	ctx, span := tracer.Start(ctx, "ExtractorClient.Extract")
	defer span.End()

	var result port.ExtractionResult

	_, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := json.Marshal(req)
			if err != nil {
				return err
			}

			url := fmt.Sprintf("%s/v1/extract", c.baseURL)
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
				return fmt.Errorf("nlu API returned status %d", resp.StatusCode)
			}

			return json.NewDecoder(resp.Body).Decode(&result)
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return &result, nil
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "nlu", Err: err}
	}

	return &result, nil
}
