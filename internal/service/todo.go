package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"taskdeck.app/server/common/id"
	"taskdeck.app/server/common/logger"
	"taskdeck.app/server/internal/model"
	"taskdeck.app/server/internal/store"
)

// CreateInput carries the caller-supplied fields for a new todo.
type CreateInput struct {
	Text     string
	Starred  bool
	Priority *int // nil = default tier 3
	Tags     []string
	DueDate  *time.Time
}

// UpdateInput is a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Text      *string
	Completed *bool
	Starred   *bool
	Priority  *int
	Tags      *[]string
	DueDate   *time.Time
}

// ListFilter is an intersection of optional predicates. Tags use union
// semantics: a todo matches if it carries any of the requested tags.
type ListFilter struct {
	Starred   *bool
	Completed *bool
	Priority  *int
	Tags      []string
}

// TodoService owns the todo list semantics: validation, defaults, ordering.
// It never trusts its callers, including the chat tool path.
type TodoService interface {
	Create(ctx context.Context, input CreateInput) (*model.Todo, error)
	Get(ctx context.Context, todoID int64) (*model.Todo, error)
	List(ctx context.Context, filter ListFilter) ([]model.Todo, error)
	Update(ctx context.Context, todoID int64, input UpdateInput) (*model.Todo, error)
	Delete(ctx context.Context, todoID int64) (bool, error)
	ToggleStarred(ctx context.Context, todoID int64, starred bool) (*model.Todo, error)
	SetPriority(ctx context.Context, todoID int64, priority int) (*model.Todo, error)
	SetTags(ctx context.Context, todoID int64, tags []string) (*model.Todo, error)
	Reorder(ctx context.Context, orderedIDs []int64) error
}

type todoService struct {
	todoStore store.TodoStore
}

func NewTodoService(todoStore store.TodoStore) TodoService {
	return &todoService{todoStore: todoStore}
}

func (s *todoService) Create(ctx context.Context, input CreateInput) (*model.Todo, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, validationErr("text", "must not be empty")
	}

	priority := model.PriorityDefault
	if input.Priority != nil {
		if err := checkPriority(*input.Priority); err != nil {
			return nil, err
		}
		priority = *input.Priority
	}

	now := time.Now()
	todo := &model.Todo{
		ID:        id.New(),
		Text:      text,
		Starred:   input.Starred,
		Priority:  priority,
		Tags:      normalizeTags(input.Tags),
		DueDate:   input.DueDate,
		CreatedAt: now,
		UpdatedAt: now,
	}

	ctx = withTodoID(ctx, todo.ID)
	if err := s.todoStore.Create(ctx, todo); err != nil {
		slog.ErrorContext(ctx, "failed to create todo", "error", err)
		return nil, fmt.Errorf("creating todo: %w", err)
	}

	slog.InfoContext(ctx, "todo created", "display_order", todo.DisplayOrder)
	return todo, nil
}

func (s *todoService) Get(ctx context.Context, todoID int64) (*model.Todo, error) {
	ctx = withTodoID(ctx, todoID)
	return s.todoStore.GetByID(ctx, todoID)
}

func (s *todoService) List(ctx context.Context, filter ListFilter) ([]model.Todo, error) {
	todos, err := s.todoStore.List(ctx, store.Filter{
		Starred:   filter.Starred,
		Completed: filter.Completed,
		Priority:  filter.Priority,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to list todos", "error", err)
		return nil, fmt.Errorf("listing todos: %w", err)
	}
	// Never nil: an empty list serializes as [], not null.
	if todos == nil {
		todos = []model.Todo{}
	}

	// Tags live in a serialized column, so the tag predicate is applied here
	// rather than in SQL. Union within the tag set, intersected with the rest.
	if len(filter.Tags) == 0 {
		return todos, nil
	}
	matched := make([]model.Todo, 0, len(todos))
	for _, todo := range todos {
		if todo.HasAnyTag(filter.Tags) {
			matched = append(matched, todo)
		}
	}
	return matched, nil
}

func (s *todoService) Update(ctx context.Context, todoID int64, input UpdateInput) (*model.Todo, error) {
	ctx = withTodoID(ctx, todoID)

	fields := store.UpdateFields{
		Completed: input.Completed,
		Starred:   input.Starred,
		DueDate:   input.DueDate,
	}

	if input.Text != nil {
		text := strings.TrimSpace(*input.Text)
		if text == "" {
			return nil, validationErr("text", "must not be empty")
		}
		fields.Text = &text
	}
	if input.Priority != nil {
		if err := checkPriority(*input.Priority); err != nil {
			return nil, err
		}
		fields.Priority = input.Priority
	}
	if input.Tags != nil {
		tags := normalizeTags(*input.Tags)
		fields.Tags = &tags
	}

	todo, err := s.todoStore.Update(ctx, todoID, fields)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "todo updated")
	return todo, nil
}

func (s *todoService) Delete(ctx context.Context, todoID int64) (bool, error) {
	ctx = withTodoID(ctx, todoID)

	deleted, err := s.todoStore.Delete(ctx, todoID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to delete todo", "error", err)
		return false, fmt.Errorf("deleting todo: %w", err)
	}
	if deleted {
		slog.InfoContext(ctx, "todo deleted")
	}
	return deleted, nil
}

func (s *todoService) ToggleStarred(ctx context.Context, todoID int64, starred bool) (*model.Todo, error) {
	return s.Update(ctx, todoID, UpdateInput{Starred: &starred})
}

func (s *todoService) SetPriority(ctx context.Context, todoID int64, priority int) (*model.Todo, error) {
	return s.Update(ctx, todoID, UpdateInput{Priority: &priority})
}

func (s *todoService) SetTags(ctx context.Context, todoID int64, tags []string) (*model.Todo, error) {
	return s.Update(ctx, todoID, UpdateInput{Tags: &tags})
}

// Reorder assigns display_order = position (0-based) for each listed id.
// Todos not mentioned keep their prior display_order, which can produce ties
// with the reordered subset; that partial-reorder semantic is intentional.
func (s *todoService) Reorder(ctx context.Context, orderedIDs []int64) error {
	if len(orderedIDs) == 0 {
		return nil
	}
	if err := s.todoStore.Reorder(ctx, orderedIDs); err != nil {
		slog.ErrorContext(ctx, "failed to reorder todos", "error", err, "count", len(orderedIDs))
		return fmt.Errorf("reordering todos: %w", err)
	}
	slog.InfoContext(ctx, "todos reordered", "count", len(orderedIDs))
	return nil
}

// withTodoID stamps the todo id into the context so every log line below this
// layer carries it without hand-threading.
func withTodoID(ctx context.Context, todoID int64) context.Context {
	return logger.WithLogFields(ctx, logger.LogFields{TodoID: logger.Ptr(todoID)})
}

func checkPriority(priority int) error {
	if priority < model.PriorityHighest || priority > model.PriorityLowest {
		return validationErr("priority", "must be an integer between 1 and 5")
	}
	return nil
}

func normalizeTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
