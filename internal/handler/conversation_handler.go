package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/garagem/seminovos-assistant-go/internal/dialog"
	"github.com/garagem/seminovos-assistant-go/internal/domain"
	"github.com/garagem/seminovos-assistant-go/internal/port"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// turnRequest is the body of POST /v1/conversations/{id}/messages.
type turnRequest struct {
	Message string `json:"message"`
}

// turnResponse wraps the core's response with ids and timestamps for
// the wire.
type turnResponse struct {
	ConversationID  string                  `json:"conversationId"`
	MessageID       string                  `json:"messageId"`
	Text            string                  `json:"text"`
	State           domain.GraphState       `json:"state"`
	CanRecommend    bool                    `json:"canRecommend"`
	MissingFields   []string                `json:"missingFields,omitempty"`
	Recommendations []domain.Recommendation `json:"recommendations,omitempty"`
	Meta            domain.ResponseMeta     `json:"meta"`
	Timestamp       string                  `json:"timestamp"`
}

// postMessageHandler runs one conversation turn: load session, process,
// apply the delta, append history and save. The session store must see
// at most one turn in flight per conversation — the assumption is the
// messaging channel (one customer, one phone) already serializes them.
func postMessageHandler(svc *dialog.Service, sessions port.SessionStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/conversations/{conversationId}/messages")
		defer span.End()

		conversationID := chi.URLParam(r, "conversationId")
		if conversationID == "" {
			writeError(w, http.StatusBadRequest, "conversationId is required")
			return
		}
		span.SetAttributes(attribute.String("conversation.id", conversationID))

		var req turnRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Message == "" {
			writeError(w, http.StatusBadRequest, "message is required")
			return
		}

		conv, err := sessions.Load(ctx, conversationID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		now := time.Now()
		conv.MessageCount++

		resp := svc.ProcessTurn(ctx, req.Message, conv)

		// Persiste o resultado do turno: delta no perfil, histórico,
		// fase e contadores.
		conv.Profile.Apply(resp.Delta)
		conv.History = append(conv.History,
			domain.Message{Role: "user", Content: req.Message, Timestamp: now},
			domain.Message{Role: "assistant", Content: resp.Text, Timestamp: time.Now()},
		)
		conv.State = resp.NextState
		if resp.Meta.Source == "ask_question" {
			conv.QuestionsAsked++
		}

		if err := sessions.Save(ctx, conv); err != nil {
			logger.Error("failed to save conversation",
				zap.String("conversation_id", conversationID),
				zap.Error(err),
			)
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, turnResponse{
			ConversationID:  conversationID,
			MessageID:       uuid.New().String(),
			Text:            resp.Text,
			State:           resp.NextState,
			CanRecommend:    resp.CanRecommend,
			MissingFields:   resp.MissingFields,
			Recommendations: resp.Recommendations,
			Meta:            resp.Meta,
			Timestamp:       time.Now().Format(time.RFC3339),
		})
	}
}

// getConversationHandler returns the persisted conversation context.
func getConversationHandler(sessions port.SessionStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/conversations/{conversationId}")
		defer span.End()

		conversationID := chi.URLParam(r, "conversationId")
		conv, err := sessions.Load(ctx, conversationID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, conv)
	}
}

// deleteConversationHandler resets a conversation (explicit data
// deletion / start over).
func deleteConversationHandler(sessions port.SessionStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/conversations/{conversationId}")
		defer span.End()

		conversationID := chi.URLParam(r, "conversationId")
		if err := sessions.Delete(ctx, conversationID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
