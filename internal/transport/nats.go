// Package transport implements the NATS request/reply entry point for
// channel integrations (WhatsApp gateway, web chat bridge). Same turn
// pipeline as the HTTP handler, different wire.
package transport

import (
	"context"
	"encoding/json"
	"time"

	"github.com/garagem/seminovos-assistant-go/internal/dialog"
	"github.com/garagem/seminovos-assistant-go/internal/domain"
	"github.com/garagem/seminovos-assistant-go/internal/port"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// TurnRequest is the NATS request payload.
type TurnRequest struct {
	ConversationID string `json:"conversationId"`
	Message        string `json:"message"`
}

// TurnReply is the NATS reply payload.
type TurnReply struct {
	ConversationID  string                  `json:"conversationId"`
	Text            string                  `json:"text"`
	State           domain.GraphState       `json:"state"`
	CanRecommend    bool                    `json:"canRecommend"`
	Recommendations []domain.Recommendation `json:"recommendations,omitempty"`
	Error           string                  `json:"error,omitempty"`
}

// NATSServer subscribes to the turn subject and answers request/reply.
type NATSServer struct {
	conn     *nats.Conn
	sub      *nats.Subscription
	svc      *dialog.Service
	sessions port.SessionStore
	logger   *zap.Logger
	timeout  time.Duration
}

// NewNATSServer connects to NATS and subscribes to the given subject.
func NewNATSServer(url, subject string, svc *dialog.Service, sessions port.SessionStore, logger *zap.Logger) (*NATSServer, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, err
	}

	s := &NATSServer{
		conn:     conn,
		svc:      svc,
		sessions: sessions,
		logger:   logger,
		timeout:  30 * time.Second,
	}

	sub, err := conn.Subscribe(subject, s.handle)
	if err != nil {
		conn.Close()
		return nil, err
	}
	s.sub = sub

	logger.Info("nats transport listening", zap.String("subject", subject))
	return s, nil
}

func (s *NATSServer) handle(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	var req TurnRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil || req.ConversationID == "" {
		s.respond(msg, &TurnReply{Error: "invalid request"})
		return
	}

	conv, err := s.sessions.Load(ctx, req.ConversationID)
	if err != nil {
		s.logger.Error("nats: failed to load conversation",
			zap.String("conversation_id", req.ConversationID),
			zap.Error(err),
		)
		s.respond(msg, &TurnReply{ConversationID: req.ConversationID, Error: "session unavailable"})
		return
	}

	conv.MessageCount++
	resp := s.svc.ProcessTurn(ctx, req.Message, conv)

	conv.Profile.Apply(resp.Delta)
	conv.History = append(conv.History,
		domain.Message{Role: "user", Content: req.Message, Timestamp: time.Now()},
		domain.Message{Role: "assistant", Content: resp.Text, Timestamp: time.Now()},
	)
	conv.State = resp.NextState
	if resp.Meta.Source == "ask_question" {
		conv.QuestionsAsked++
	}

	if err := s.sessions.Save(ctx, conv); err != nil {
		s.logger.Error("nats: failed to save conversation",
			zap.String("conversation_id", req.ConversationID),
			zap.Error(err),
		)
	}

	s.respond(msg, &TurnReply{
		ConversationID:  req.ConversationID,
		Text:            resp.Text,
		State:           resp.NextState,
		CanRecommend:    resp.CanRecommend,
		Recommendations: resp.Recommendations,
	})
}

func (s *NATSServer) respond(msg *nats.Msg, reply *TurnReply) {
	data, err := json.Marshal(reply)
	if err != nil {
		s.logger.Error("nats: marshal reply failed", zap.Error(err))
		return
	}
	if err := msg.Respond(data); err != nil {
		s.logger.Error("nats: respond failed", zap.Error(err))
	}
}

// Close drains the subscription and closes the connection.
func (s *NATSServer) Close() {
	if s.sub != nil {
		_ = s.sub.Drain()
	}
	s.conn.Close()
}
