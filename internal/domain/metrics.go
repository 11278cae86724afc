// Package domain — metrics.go define o snapshot de métricas de turno
// exposto pela API operacional.
package domain

// TurnMetrics é o snapshot agregado devolvido por GET /v1/metrics/turns.
type TurnMetrics struct {
	TotalTurns      int64   `json:"totalTurns"`
	ErrorRate       float64 `json:"errorRate"`
	CacheHitRate    float64 `json:"cacheHitRate"`
	NLUErrors       int64   `json:"nluErrors"`
	SearchErrors    int64   `json:"searchErrors"`
	KnowledgeErrors int64   `json:"knowledgeErrors"`
	Period          string  `json:"period"`
}
