package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"taskdeck.app/server/common/llm"
	"taskdeck.app/server/common/logger"
)

// ErrUpstream marks a failure of the LLM completion call itself. It is
// terminal for the turn and never retried here.
var ErrUpstream = errors.New("llm upstream failure")

// ChatAgent runs the multi-turn tool loop for a single chat turn. It holds no
// conversation state: the caller owns the history and passes it in whole.
type ChatAgent struct {
	llm       llm.AgentClient
	tools     *TodoTools
	maxTokens int
}

func NewChatAgent(client llm.AgentClient, tools *TodoTools, maxTokens int) *ChatAgent {
	return &ChatAgent{
		llm:       client,
		tools:     tools,
		maxTokens: maxTokens,
	}
}

// ChatResult carries the user-visible answer plus the full updated history the
// caller must send back on the next turn.
type ChatResult struct {
	Reply    string
	Messages []llm.Message
}

// Chat appends the user message to the history and loops against the model:
// while the stop reason asks for a tool, the first requested tool call is
// dispatched, the raw assistant response and the tool result are appended, and
// the model is called again. Only the first tool call per response is serviced
// even when the model emits several. Tool failures are fed back into the
// conversation; a failed completion call aborts the whole turn.
//
// There is no iteration cap: a model that keeps requesting tools keeps the
// turn running. Callers wanting a bound impose a deadline on ctx.
func (a *ChatAgent) Chat(ctx context.Context, history []llm.Message, userMessage string) (*ChatResult, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "taskdeck.agent.chat",
	})

	sc := logger.StartSpan(ctx, "agent.chat_turn")
	defer sc.End()
	ctx = sc.Context()

	messages := append(slices.Clone(history), llm.Message{
		Role:    "user",
		Content: userMessage,
	})

	slog.DebugContext(ctx, "chat turn starting",
		"message", logger.Truncate(userMessage, 100),
		"history_len", len(history))

	iterations := 0
	for {
		iterations++

		resp, err := a.llm.ChatWithTools(ctx, llm.AgentRequest{
			Messages:  append([]llm.Message{{Role: "system", Content: a.systemPrompt()}}, messages...),
			Tools:     a.tools.Definitions(),
			MaxTokens: a.maxTokens,
		})
		if err != nil {
			sc.RecordError(err)
			return nil, fmt.Errorf("%w: chat iteration %d: %v", ErrUpstream, iterations, err)
		}

		slog.DebugContext(ctx, "chat iteration completed",
			"iteration", iterations,
			"prompt_tokens", resp.PromptTokens,
			"completion_tokens", resp.CompletionTokens,
			"finish_reason", resp.FinishReason,
			"tool_calls", len(resp.ToolCalls))

		if resp.FinishReason == "tool_calls" && len(resp.ToolCalls) > 0 {
			// Only the first tool call is serviced per iteration; the raw
			// response is still appended as emitted, extra calls included,
			// so the transcript stays honest.
			tc := resp.ToolCalls[0]

			result := a.tools.Dispatch(ctx, tc.Name, tc.Arguments)

			messages = append(messages, llm.Message{
				Role:      "assistant",
				Content:   resp.Content,
				ToolCalls: resp.ToolCalls,
			})
			messages = append(messages, llm.Message{
				Role:       "tool",
				Content:    result.Content,
				ToolCallID: tc.ID,
				IsError:    result.IsError,
			})
			continue
		}

		if resp.FinishReason == "tool_calls" {
			// Stop reason claims a tool request but no call came through.
			// Break rather than spin on a malformed response.
			slog.WarnContext(ctx, "tool_calls stop reason without tool calls, ending turn",
				"iteration", iterations)
		}

		messages = append(messages, llm.Message{
			Role:    "assistant",
			Content: resp.Content,
		})

		slog.InfoContext(ctx, "chat turn completed",
			"iterations", iterations,
			"history_len", len(messages))

		return &ChatResult{
			Reply:    resp.Content,
			Messages: messages,
		}, nil
	}
}

func (a *ChatAgent) systemPrompt() string {
	return `You are the assistant for a personal to-do list. You manage the list through the provided tools.

Rules:
- Use the tools for every read or change; never invent list contents.
- Todos have: text, completed, starred, priority 1 (highest) to 5 (lowest), tags, and an optional due date.
- When the user is vague, list the todos first to find what they mean.
- Ids are opaque strings; take them from list results, never guess them.
- After a change, confirm briefly what was done. Keep replies short and plain.`
}
