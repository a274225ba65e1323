// Package trip implements the travel planning conversation: a typed
// conversation state, the business nodes (intent routing, requirement
// extraction, research, plan synthesis, chat) and the graph wiring plus the
// caller-facing service.
package trip

import (
	"fmt"

	"github.com/tmc/langchaingo/llms"
)

// Node identifiers in the planning graph.
const (
	NodeIntentRouter = "intent_router"
	NodeSimpleChat   = "simple_chat"
	NodeExtractor    = "circular_information_extractor"
	NodeResearch     = "research_agent"
	NodePlanner      = "plan_generator"
)

// Intent labels emitted by the router.
const (
	IntentPlan = "PLAN"
	IntentChat = "CHAT"
)

// State is the conversation state flowing through the planning graph. Each
// field carries its own merge policy: Messages is append-only, pointer fields
// replace when non-nil, everything else replaces when non-empty.
type State struct {
	ThreadID    string `json:"threadId,omitempty"`
	ChatID      string `json:"chatId,omitempty"`
	UserMessage string `json:"userMessage,omitempty"`

	Intent        string        `json:"intent,omitempty"`
	Requirements  *Requirements `json:"travelRequirements,omitempty"`
	SearchResults string        `json:"searchResults,omitempty"`
	Itinerary     *Itinerary    `json:"itinerary,omitempty"`
	FinalResponse string        `json:"finalResponse,omitempty"`
	NextNode      string        `json:"nextNode,omitempty"`

	// PendingQuestion is the extractor's remembered clarification question.
	// A non-nil pointer replaces the stored value; pointing at the empty
	// string clears it. Persisting it here keeps the extractor's memory in
	// the checkpoint rather than in process-local fields.
	PendingQuestion *string `json:"pendingQuestion,omitempty"`

	// Messages is the conversation transcript. It only ever grows.
	Messages []llms.MessageContent `json:"messages,omitempty"`
}

// Merge combines a partial update into the state per each field's policy.
func (s State) Merge(delta State) State {
	if delta.ThreadID != "" {
		s.ThreadID = delta.ThreadID
	}
	if delta.ChatID != "" {
		s.ChatID = delta.ChatID
	}
	if delta.UserMessage != "" {
		s.UserMessage = delta.UserMessage
	}
	if delta.Intent != "" {
		s.Intent = delta.Intent
	}
	if delta.Requirements != nil {
		s.Requirements = delta.Requirements
	}
	if delta.SearchResults != "" {
		s.SearchResults = delta.SearchResults
	}
	if delta.Itinerary != nil {
		s.Itinerary = delta.Itinerary
	}
	if delta.FinalResponse != "" {
		s.FinalResponse = delta.FinalResponse
	}
	if delta.NextNode != "" {
		s.NextNode = delta.NextNode
	}
	if delta.PendingQuestion != nil {
		s.PendingQuestion = delta.PendingQuestion
	}
	s.Messages = append(s.Messages, delta.Messages...)
	return s
}

// Validate checks cross-field consistency.
func (s State) Validate() error {
	switch s.Intent {
	case "", IntentPlan, IntentChat:
	default:
		return fmt.Errorf("unknown intent %q", s.Intent)
	}
	if s.Itinerary != nil {
		if err := s.Itinerary.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// HasPendingQuestion reports whether the extractor is waiting on an answer.
func (s State) HasPendingQuestion() bool {
	return s.PendingQuestion != nil && *s.PendingQuestion != ""
}

// clearedQuestion is the delta value that erases the remembered question.
func clearedQuestion() *string {
	empty := ""
	return &empty
}

// userTurn builds the transcript entry for a user message.
func userTurn(message string) llms.MessageContent {
	return llms.TextParts(llms.ChatMessageTypeHuman, message)
}

// assistantTurn builds the transcript entry for an assistant reply.
func assistantTurn(message string) llms.MessageContent {
	return llms.TextParts(llms.ChatMessageTypeAI, message)
}
