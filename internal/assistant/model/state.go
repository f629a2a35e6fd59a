package model

import (
	"github.com/cloudwego/eino/schema"
)

// AppState stores per-turn state for the agent graph.
// Concurrency model:
//   - Registered as graph local state via compose.WithGenLocalState.
//   - All reads/writes happen only inside Eino state handlers
//     (WithStatePreHandler, WithStatePostHandler, compose.ProcessState),
//     which Eino serializes, so no extra locking is needed.
type AppState struct {
	ConversationID string
	Messages       []*schema.Message // running message list, grows monotonically within a turn
	StepCount      int               // model→tool round trips taken this turn
	BudgetExceeded bool              // set once StepCount passes the configured bound
	WrapUpInjected bool              // set when the budget wrap-up notice was appended
	ToolCallIDSeq  int               // synthesizes tool_call_id when the provider omits it

	// TotalCostUSD accumulates LLM usage cost across model calls for this turn.
	TotalCostUSD float64
}

// QueryInput is the graph input for one user turn.
type QueryInput struct {
	ConversationID string `json:"conversation_id"`
	Query          string `json:"query"`
}
