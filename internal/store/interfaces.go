package store

import (
	"context"
	"errors"
	"time"

	"taskdeck.app/server/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// Filter narrows a List call. Nil predicates are ignored; set predicates are
// intersected. Tag matching is not done here: tags live in a serialized column,
// so the service filters them in memory after the primary query.
type Filter struct {
	Starred   *bool
	Completed *bool
	Priority  *int
}

// UpdateFields is a partial update. Nil means "leave unchanged", not "clear".
type UpdateFields struct {
	Text         *string
	Completed    *bool
	Starred      *bool
	Priority     *int
	Tags         *[]string
	DueDate      *time.Time
	DisplayOrder *int64
}

// TodoStore defines the contract for todo persistence
type TodoStore interface {
	// Create persists the todo and assigns DisplayOrder = max(existing)+1
	// (0 for the first row), atomically with the insert.
	Create(ctx context.Context, todo *model.Todo) error
	GetByID(ctx context.Context, id int64) (*model.Todo, error)
	// List returns todos ordered by (display_order ASC, priority ASC, created_at DESC).
	List(ctx context.Context, filter Filter) ([]model.Todo, error)
	// Update applies the given fields and refreshes updated_at.
	Update(ctx context.Context, id int64, fields UpdateFields) (*model.Todo, error)
	// Delete removes the row, reporting whether anything was deleted.
	Delete(ctx context.Context, id int64) (bool, error)
	// Reorder assigns display_order = position for each id, in one transaction.
	// Ids not mentioned keep their prior display_order.
	Reorder(ctx context.Context, orderedIDs []int64) error
}
