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
)

// KnowledgeClient calls the knowledge-answering service.
type KnowledgeClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewKnowledgeClient creates a new KnowledgeClient.
func NewKnowledgeClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *KnowledgeClient {
	return &KnowledgeClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
	}
}

// Answer sends the question plus vehicle context and returns free text.
func (c *KnowledgeClient) Answer(ctx context.Context, req *port.KnowledgeRequest) (string, error) {
	ctx, span := tracer.Start(ctx, "KnowledgeClient.Answer")
	defer span.End()

	var result struct {
		Answer string `json:"answer"`
	}

	_, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := json.Marshal(req)
			if err != nil {
				return err
			}

			url := fmt.Sprintf("%s/v1/answer", c.baseURL)
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
				return fmt.Errorf("knowledge API returned status %d", resp.StatusCode)
			}

			return json.NewDecoder(resp.Body).Decode(&result)
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return result.Answer, nil
	})

	if err != nil {
		return "", &domain.ErrExternalService{Service: "knowledge", Err: err}
	}

	return result.Answer, nil
}
