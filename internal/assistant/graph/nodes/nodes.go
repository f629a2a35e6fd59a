package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/depato-store/shopper-assistant/internal/assistant/graph/conversations"
	"github.com/depato-store/shopper-assistant/internal/assistant/graph/prompts"
	"github.com/depato-store/shopper-assistant/internal/assistant/model"
	logx "github.com/depato-store/shopper-assistant/pkg/logger"
)

// Node names used across the graph builder.
const (
	NodeInputConverter  = "InputConverter"
	NodeRouterChatModel = "RouterChatModel"
	NodeToolExecutor    = "ToolExecutor"
)

// NewInputConverterPreHandler creates the pre-handler for InputConverter node
func NewInputConverterPreHandler() func(context.Context, model.QueryInput, *model.AppState) (model.QueryInput, error) {
	return func(ctx context.Context, in model.QueryInput, s *model.AppState) (model.QueryInput, error) {
		if s.ConversationID == "" {
			s.ConversationID = in.ConversationID
		}
		// Reset per-turn counters and flags for each new query
		s.Messages = nil
		s.StepCount = 0
		s.BudgetExceeded = false
		s.WrapUpInjected = false
		s.ToolCallIDSeq = 0
		s.TotalCostUSD = 0
		return in, nil
	}
}

// NewInputConverterNode creates the InputConverter node. It persists the user
// message, then assembles the router input: routing system prompt, rendered
// conversation context and the current query.
func NewInputConverterNode(
	mm *conversations.MessagesManager,
	promptCfg model.PromptConfig,
	productTool, commonInfoTool string,
) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, input model.QueryInput) ([]*schema.Message, error) {
		if err := mm.SaveUserMessage(ctx, input.ConversationID, input.Query); err != nil {
			return nil, fmt.Errorf("error saving user message: %w", err)
		}

		systemPrompt, err := prompts.RenderRouterSystem(ctx, promptCfg, productTool, commonInfoTool)
		if err != nil {
			return nil, fmt.Errorf("render router system prompt: %w", err)
		}

		messages, err := mm.BuildRouterContext(ctx, input.ConversationID, systemPrompt, input.Query)
		if err != nil {
			return nil, fmt.Errorf("build router context: %w", err)
		}
		return messages, nil
	})
}

// NewRouterChatModelPreHandler creates the pre-handler for RouterChatModel node
func NewRouterChatModelPreHandler(maxSteps int) func(context.Context, []*schema.Message, *model.AppState) ([]*schema.Message, error) {
	return func(ctx context.Context, in []*schema.Message, state *model.AppState) ([]*schema.Message, error) {
		// Heuristic fix for Gemini: ensure tool results carry tool_call_id
		if len(in) > 0 {
			last := in[len(in)-1]
			if last != nil && last.Role == schema.Tool && strings.TrimSpace(last.ToolCallID) == "" {
				for i := len(state.Messages) - 1; i >= 0; i-- {
					msg := state.Messages[i]
					if msg == nil || msg.Role != schema.Assistant || len(msg.ToolCalls) == 0 {
						continue
					}
					id := msg.ToolCalls[0].ID
					if strings.TrimSpace(id) != "" {
						last.ToolCallID = id
					}
					break
				}
			}
		}

		state.Messages = append(state.Messages, in...)

		if checkAndMarkStepBudget(state, maxSteps) && !state.WrapUpInjected {
			maxSteps = normalizeMaxSteps(maxSteps)
			wrapUp := &schema.Message{
				Role: schema.System,
				Content: fmt.Sprintf(
					"SYSTEM NOTICE: You have reached the maximum tool call limit (%d). "+
						"Please synthesize a helpful response using the information you've already gathered. "+
						"Acknowledge any limitations in your response if you couldn't complete all necessary tool calls.",
					maxSteps,
				),
			}
			state.Messages = append(state.Messages, wrapUp)
			state.WrapUpInjected = true
		}

		logx.Debug().Msg("AI thinking...")

		return state.Messages, nil
	}
}

// NewRouterChatModelPostHandler creates the post-handler for RouterChatModel node
func NewRouterChatModelPostHandler(
	mm *conversations.MessagesManager,
	modelName string,
) func(context.Context, *schema.Message, *model.AppState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.AppState) (*schema.Message, error) {
		// Compute usage cost if available
		if out != nil && out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
			pricing := model.ResolvePricing(modelName)
			inC, outC, totalC := model.ComputeCost(out.ResponseMeta.Usage, pricing)
			state.TotalCostUSD += totalC

			if out.Extra == nil {
				out.Extra = map[string]any{}
			}
			out.Extra["usage_cost"] = map[string]any{
				"currency":          "USD",
				"model":             modelName,
				"prompt_tokens":     out.ResponseMeta.Usage.PromptTokens,
				"completion_tokens": out.ResponseMeta.Usage.CompletionTokens,
				"total_tokens":      out.ResponseMeta.Usage.TotalTokens,
				"input_cost":        inC,
				"output_cost":       outC,
				"total_cost":        totalC,
			}
			out.Extra["usage_cost_total_usd"] = state.TotalCostUSD

			logx.Debug().
				Str("conversation_id", state.ConversationID).
				Str("node", NodeRouterChatModel).
				Str("model", modelName).
				Int("prompt_tokens", out.ResponseMeta.Usage.PromptTokens).
				Int("completion_tokens", out.ResponseMeta.Usage.CompletionTokens).
				Int("total_tokens", out.ResponseMeta.Usage.TotalTokens).
				Float64("total_cost_usd", totalC).
				Msg("LLM usage")
		}

		// Normalize tool calls: Gemini may omit tool_call IDs.
		if out != nil && len(out.ToolCalls) > 0 {
			for i := range out.ToolCalls {
				if strings.TrimSpace(out.ToolCalls[i].ID) == "" {
					state.ToolCallIDSeq++
					out.ToolCalls[i].ID = fmt.Sprintf("call_%d", state.ToolCallIDSeq)
				}
			}
		}

		state.Messages = append(state.Messages, out)

		if len(out.ToolCalls) > 0 {
			logx.Debug().Int("tool_count", len(out.ToolCalls)).Msg("Calling tools")
		} else {
			logx.Debug().Msg("AI response ready")
		}

		// Save only a final assistant message (no further tool calls), or a
		// content response produced after the step budget was exhausted.
		if out.Role == schema.Assistant && (len(out.ToolCalls) == 0 || state.BudgetExceeded) && strings.TrimSpace(out.Content) != "" {
			if err := mm.SaveResponse(ctx, state.ConversationID, out.Content); err != nil {
				logx.Error().
					Str("conversation_id", state.ConversationID).
					Err(err).
					Msg("Error saving assistant response")
			}
		}

		return out, nil
	}
}

// NewToolExecutorCondition creates the condition function for tool execution routing
func NewToolExecutorCondition() func(context.Context, *schema.Message) (string, error) {
	return func(ctx context.Context, input *schema.Message) (string, error) {
		var budgetExceeded bool
		_ = compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			budgetExceeded = state.BudgetExceeded
			return nil
		})

		if budgetExceeded {
			logx.Debug().Msg("Step budget exhausted - routing to end")
			return compose.END, nil
		}

		if len(input.ToolCalls) > 0 {
			logx.Debug().Int("tool_count", len(input.ToolCalls)).Msg("Routing to ToolExecutor")
			return NodeToolExecutor, nil
		}

		logx.Debug().Msg("No tool calls - continuing to end")
		return compose.END, nil
	}
}

// NewToolExecutorPreHandler creates the pre-handler for ToolExecutor node
func NewToolExecutorPreHandler(maxSteps int) func(context.Context, *schema.Message, *model.AppState) (*schema.Message, error) {
	return func(ctx context.Context, in *schema.Message, state *model.AppState) (*schema.Message, error) {
		exceeded := incrementStepAndCheck(state, maxSteps)

		logx.Debug().
			Int("step_count", state.StepCount).
			Str("conversation_id", state.ConversationID).
			Msg("Tool execution attempt")

		if exceeded {
			logx.Warn().
				Int("step_count", state.StepCount).
				Int("max_steps", normalizeMaxSteps(maxSteps)).
				Str("conversation_id", state.ConversationID).
				Msg("Step budget exceeded - flagging and continuing")
		}

		return in, nil
	}
}
