package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"taskdeck.app/server/common/llm"
	"taskdeck.app/server/common/logger"
	"taskdeck.app/server/internal/service"
)

// ErrUnknownTool is returned when the model requests a tool outside the registry.
var ErrUnknownTool = errors.New("unknown tool")

// ToolResult is the payload handed back to the model after a tool executes.
// Failures are absorbed into IsError so the conversation can continue.
type ToolResult struct {
	Content string
	IsError bool
}

// Tool parameter structs. Ids travel as decimal strings because tool arguments
// pass through JSON, where int64 ids would lose precision as floats. Priority
// is accepted as a float so a non-integer value can be rejected with a clear
// message instead of a bare unmarshal error.

// CreateTodoParams for creating a todo.
type CreateTodoParams struct {
	Text     string   `json:"text" jsonschema:"required,description=The todo text. Must not be empty."`
	Starred  *bool    `json:"starred,omitempty" jsonschema:"description=Star the todo on creation."`
	Priority *float64 `json:"priority,omitempty" jsonschema:"description=Priority tier 1 (highest) to 5 (lowest). Defaults to 3."`
	Tags     []string `json:"tags,omitempty" jsonschema:"description=Tags to attach."`
	DueDate  string   `json:"dueDate,omitempty" jsonschema:"description=Due date as an ISO 8601 timestamp (e.g. 2026-09-01T12:00:00Z)."`
}

// ListTodosParams for filtered listing.
type ListTodosParams struct {
	Starred   *bool    `json:"starred,omitempty" jsonschema:"description=Only starred (true) or unstarred (false) todos."`
	Priority  *float64 `json:"priority,omitempty" jsonschema:"description=Only todos with this exact priority (1-5)."`
	Tags      []string `json:"tags,omitempty" jsonschema:"description=Only todos carrying at least one of these tags."`
	Completed *bool    `json:"completed,omitempty" jsonschema:"description=Only completed (true) or open (false) todos."`
}

// UpdateTodoParams for partial updates. Omitted fields are left unchanged.
type UpdateTodoParams struct {
	ID        string    `json:"id" jsonschema:"required,description=Id of the todo to update."`
	Text      *string   `json:"text,omitempty" jsonschema:"description=New text."`
	Completed *bool     `json:"completed,omitempty" jsonschema:"description=Mark completed or reopen."`
	Starred   *bool     `json:"starred,omitempty" jsonschema:"description=Star or unstar."`
	Priority  *float64  `json:"priority,omitempty" jsonschema:"description=New priority tier 1-5."`
	Tags      *[]string `json:"tags,omitempty" jsonschema:"description=Replacement tag list."`
	DueDate   string    `json:"dueDate,omitempty" jsonschema:"description=New due date as an ISO 8601 timestamp."`
}

// DeleteTodoParams for deleting a todo.
type DeleteTodoParams struct {
	ID string `json:"id" jsonschema:"required,description=Id of the todo to delete."`
}

// ToggleStarredParams for starring/unstarring.
type ToggleStarredParams struct {
	ID      string `json:"id" jsonschema:"required,description=Id of the todo."`
	Starred *bool  `json:"starred" jsonschema:"required,description=true to star, false to unstar."`
}

// SetPriorityParams for changing priority.
type SetPriorityParams struct {
	ID       string   `json:"id" jsonschema:"required,description=Id of the todo."`
	Priority *float64 `json:"priority" jsonschema:"required,description=Priority tier 1 (highest) to 5 (lowest)."`
}

type toolEntry struct {
	definition llm.Tool
	handler    func(ctx context.Context, arguments string) (string, error)
}

// TodoTools is the tool dispatcher: a registry mapping the declared tool names
// to their input contracts and service calls. Argument validation happens here,
// before anything reaches the service.
type TodoTools struct {
	todos       service.TodoService
	registry    map[string]toolEntry
	definitions []llm.Tool
}

func NewTodoTools(todos service.TodoService) *TodoTools {
	t := &TodoTools{todos: todos}

	entries := []toolEntry{
		{
			definition: llm.Tool{
				Name:        "create_todo",
				Description: "Create a new todo item. Only text is required; starred, priority, tags and dueDate are optional.",
				Parameters:  llm.GenerateSchemaFrom(CreateTodoParams{}),
			},
			handler: t.executeCreate,
		},
		{
			definition: llm.Tool{
				Name:        "list_todos",
				Description: "List todo items, optionally filtered by starred, completed, exact priority, or tags. A todo matches the tag filter if it carries any of the given tags.",
				Parameters:  llm.GenerateSchemaFrom(ListTodosParams{}),
			},
			handler: t.executeList,
		},
		{
			definition: llm.Tool{
				Name:        "update_todo",
				Description: "Update fields of an existing todo. Only the supplied fields change; omitted fields keep their value.",
				Parameters:  llm.GenerateSchemaFrom(UpdateTodoParams{}),
			},
			handler: t.executeUpdate,
		},
		{
			definition: llm.Tool{
				Name:        "delete_todo",
				Description: "Delete a todo permanently.",
				Parameters:  llm.GenerateSchemaFrom(DeleteTodoParams{}),
			},
			handler: t.executeDelete,
		},
		{
			definition: llm.Tool{
				Name:        "toggle_starred",
				Description: "Star or unstar a todo.",
				Parameters:  llm.GenerateSchemaFrom(ToggleStarredParams{}),
			},
			handler: t.executeToggleStarred,
		},
		{
			definition: llm.Tool{
				Name:        "set_priority",
				Description: "Set the priority tier of a todo (1 highest to 5 lowest).",
				Parameters:  llm.GenerateSchemaFrom(SetPriorityParams{}),
			},
			handler: t.executeSetPriority,
		},
	}

	t.registry = make(map[string]toolEntry, len(entries))
	t.definitions = make([]llm.Tool, 0, len(entries))
	for _, entry := range entries {
		t.registry[entry.definition.Name] = entry
		t.definitions = append(t.definitions, entry.definition)
	}

	return t
}

// Definitions returns tool definitions for the LLM, in declaration order.
func (t *TodoTools) Definitions() []llm.Tool {
	return t.definitions
}

// Dispatch runs a tool by name. Every failure (unknown tool, bad arguments,
// service error) comes back as an error-flagged result rather than an error,
// so the chat loop keeps going and the model can recover conversationally.
func (t *TodoTools) Dispatch(ctx context.Context, name, arguments string) ToolResult {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Tool: logger.Ptr(name)})

	entry, ok := t.registry[name]
	if !ok {
		slog.WarnContext(ctx, "model requested unregistered tool")
		return ToolResult{Content: fmt.Sprintf("%s: %s", ErrUnknownTool, name), IsError: true}
	}

	content, err := entry.handler(ctx, arguments)
	if err != nil {
		slog.DebugContext(ctx, "tool execution failed", "error", err)
		return ToolResult{Content: "Error: " + err.Error(), IsError: true}
	}
	return ToolResult{Content: content}
}

func (t *TodoTools) executeCreate(ctx context.Context, arguments string) (string, error) {
	params, err := llm.ParseToolArguments[CreateTodoParams](arguments)
	if err != nil {
		return "", err
	}
	if params.Text == "" {
		return "", fmt.Errorf("text is required")
	}
	priority, err := intPriority(params.Priority)
	if err != nil {
		return "", err
	}
	dueDate, err := parseDueDate(params.DueDate)
	if err != nil {
		return "", err
	}

	input := service.CreateInput{
		Text:     params.Text,
		Priority: priority,
		Tags:     params.Tags,
		DueDate:  dueDate,
	}
	if params.Starred != nil {
		input.Starred = *params.Starred
	}

	todo, err := t.todos.Create(ctx, input)
	if err != nil {
		return "", err
	}
	return marshalResult(todo)
}

func (t *TodoTools) executeList(ctx context.Context, arguments string) (string, error) {
	params, err := llm.ParseToolArguments[ListTodosParams](arguments)
	if err != nil {
		return "", err
	}
	priority, err := intPriority(params.Priority)
	if err != nil {
		return "", err
	}

	todos, err := t.todos.List(ctx, service.ListFilter{
		Starred:   params.Starred,
		Completed: params.Completed,
		Priority:  priority,
		Tags:      params.Tags,
	})
	if err != nil {
		return "", err
	}
	return marshalResult(todos)
}

func (t *TodoTools) executeUpdate(ctx context.Context, arguments string) (string, error) {
	params, err := llm.ParseToolArguments[UpdateTodoParams](arguments)
	if err != nil {
		return "", err
	}
	todoID, err := parseID(params.ID)
	if err != nil {
		return "", err
	}
	priority, err := intPriority(params.Priority)
	if err != nil {
		return "", err
	}
	dueDate, err := parseDueDate(params.DueDate)
	if err != nil {
		return "", err
	}

	todo, err := t.todos.Update(ctx, todoID, service.UpdateInput{
		Text:      params.Text,
		Completed: params.Completed,
		Starred:   params.Starred,
		Priority:  priority,
		Tags:      params.Tags,
		DueDate:   dueDate,
	})
	if err != nil {
		return "", err
	}
	return marshalResult(todo)
}

func (t *TodoTools) executeDelete(ctx context.Context, arguments string) (string, error) {
	params, err := llm.ParseToolArguments[DeleteTodoParams](arguments)
	if err != nil {
		return "", err
	}
	todoID, err := parseID(params.ID)
	if err != nil {
		return "", err
	}

	deleted, err := t.todos.Delete(ctx, todoID)
	if err != nil {
		return "", err
	}

	message := "todo deleted"
	if !deleted {
		message = "no todo with that id"
	}
	return marshalResult(map[string]any{"success": deleted, "message": message})
}

func (t *TodoTools) executeToggleStarred(ctx context.Context, arguments string) (string, error) {
	params, err := llm.ParseToolArguments[ToggleStarredParams](arguments)
	if err != nil {
		return "", err
	}
	todoID, err := parseID(params.ID)
	if err != nil {
		return "", err
	}
	if params.Starred == nil {
		return "", fmt.Errorf("starred is required")
	}

	todo, err := t.todos.ToggleStarred(ctx, todoID, *params.Starred)
	if err != nil {
		return "", err
	}
	return marshalResult(todo)
}

func (t *TodoTools) executeSetPriority(ctx context.Context, arguments string) (string, error) {
	params, err := llm.ParseToolArguments[SetPriorityParams](arguments)
	if err != nil {
		return "", err
	}
	todoID, err := parseID(params.ID)
	if err != nil {
		return "", err
	}
	if params.Priority == nil {
		return "", fmt.Errorf("priority is required")
	}
	priority, err := intPriority(params.Priority)
	if err != nil {
		return "", err
	}

	todo, err := t.todos.SetPriority(ctx, todoID, *priority)
	if err != nil {
		return "", err
	}
	return marshalResult(todo)
}

func parseID(raw string) (int64, error) {
	if raw == "" {
		return 0, fmt.Errorf("id is required")
	}
	todoID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("id must be a decimal number string, got %q", raw)
	}
	return todoID, nil
}

func intPriority(raw *float64) (*int, error) {
	if raw == nil {
		return nil, nil
	}
	if *raw != math.Trunc(*raw) {
		return nil, fmt.Errorf("priority must be an integer between 1 and 5, got %v", *raw)
	}
	priority := int(*raw)
	return &priority, nil
}

func parseDueDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	due, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("dueDate must be an ISO 8601 timestamp, got %q", raw)
	}
	return &due, nil
}

func marshalResult(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding tool result: %w", err)
	}
	return string(data), nil
}
