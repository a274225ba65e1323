package trip

import (
	"context"
	"time"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"

	"github.com/itinerai/itinerai/internal/checkpoints"
	"github.com/itinerai/itinerai/internal/graph"
)

// Reply types returned to the transport layer.
const (
	ReplyText  = "text"
	ReplyCard  = "card"
	ReplyError = "error"
)

// genericErrorMessage is the only failure text end users ever see. Internal
// detail goes to the logs.
const genericErrorMessage = "服务器出现问题"

const lockTTL = 2 * time.Minute

// Reply is the envelope handed back for every turn. Data is a string for
// text and error replies and an *Itinerary for card replies.
type Reply struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Service drives one conversation turn through the planning graph. It owns
// the run/resume decision, per-thread locking and the outward reply shape.
type Service struct {
	graph  *graph.CompiledGraph[State]
	router *IntentRouter
	chat   *ChatNode
	locker checkpoints.Locker
	logger *zap.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLocker adds cross-instance per-thread locking, for deployments where
// several processes share one checkpoint store.
func WithLocker(l checkpoints.Locker) ServiceOption {
	return func(s *Service) { s.locker = l }
}

// WithServiceLogger sets the service logger.
func WithServiceLogger(logger *zap.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates the turn handler over a compiled planning graph.
func NewService(g *graph.CompiledGraph[State], nodes Nodes, opts ...ServiceOption) *Service {
	s := &Service{
		graph:  g,
		router: nodes.Router,
		chat:   nodes.Chat,
		logger: zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// HandleTurn processes one user turn. A thread with a pending interruption
// is resumed with the message as the awaited input; otherwise a fresh run
// starts. Failures never escape this boundary.
func (s *Service) HandleTurn(ctx context.Context, threadID, message, chatID string) Reply {
	unlock, err := s.acquire(ctx, threadID)
	if err != nil {
		s.logger.Error("thread lock unavailable", zap.String("thread", threadID), zap.Error(err))
		return errorReply()
	}
	defer unlock()

	outcome, err := s.graph.Run(ctx, s.turnInput(threadID, message, chatID),
		graph.WithThreadID[State](threadID))
	if err != nil {
		if graph.IsStateInvariant(err) {
			s.logger.Error("graph wiring defect", zap.String("thread", threadID), zap.Error(err))
		} else {
			s.logger.Error("turn failed", zap.String("thread", threadID), zap.Error(err))
		}
		return errorReply()
	}
	return s.reply(outcome)
}

// HandleTurnStream is the streaming variant. Intent is resolved up front:
// planning turns produce the full structured result as one card reply, chat
// turns forward the model's token stream through fn before returning the
// accumulated text.
func (s *Service) HandleTurnStream(ctx context.Context, threadID, message, chatID string, fn func(chunk string) error) Reply {
	if s.graph.Pending(ctx, threadID) || s.router.Classify(ctx, message) == IntentPlan {
		return s.HandleTurn(ctx, threadID, message, chatID)
	}

	unlock, err := s.acquire(ctx, threadID)
	if err != nil {
		s.logger.Error("thread lock unavailable", zap.String("thread", threadID), zap.Error(err))
		return errorReply()
	}
	defer unlock()

	st := s.turnInput(threadID, message, chatID)
	if snap, err := s.graph.Snapshot(ctx, threadID); err == nil {
		st = snap.State.Merge(st)
	}

	answer, err := s.chat.Stream(ctx, st, fn)
	if err != nil {
		s.logger.Error("chat stream failed", zap.String("thread", threadID), zap.Error(err))
		return errorReply()
	}
	return Reply{Type: ReplyText, Data: answer}
}

func (s *Service) turnInput(threadID, message, chatID string) State {
	return State{
		ThreadID:    threadID,
		ChatID:      chatID,
		UserMessage: message,
		Messages:    []llms.MessageContent{userTurn(message)},
	}
}

// reply shapes the outward envelope from this turn's outcome. A card is only
// emitted for a planning turn: the persisted snapshot keeps the last itinerary
// around for later turns, so the card is gated on the intent the router just
// resolved, not on the itinerary's mere presence.
func (s *Service) reply(outcome graph.Outcome[State]) Reply {
	if outcome.Interrupted() {
		if q, ok := outcome.Interruption.Payload["finalResponse"].(string); ok && q != "" {
			return Reply{Type: ReplyText, Data: q}
		}
		return Reply{Type: ReplyText, Data: outcome.State.FinalResponse}
	}
	if outcome.State.Intent == IntentPlan && outcome.State.Itinerary != nil {
		return Reply{Type: ReplyCard, Data: outcome.State.Itinerary}
	}
	return Reply{Type: ReplyText, Data: outcome.State.FinalResponse}
}

// acquire takes the cross-instance thread lock when one is configured.
func (s *Service) acquire(ctx context.Context, threadID string) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	unlock, err := s.locker.Lock(ctx, threadID, lockTTL)
	if err != nil {
		return nil, err
	}
	return func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("thread unlock failed", zap.String("thread", threadID), zap.Error(err))
		}
	}, nil
}

func errorReply() Reply {
	return Reply{Type: ReplyError, Data: genericErrorMessage}
}
