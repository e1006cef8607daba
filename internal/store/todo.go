package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskdeck.app/server/core/db"
	"taskdeck.app/server/internal/model"
)

// todoStore is the SQLite-backed TodoStore. Booleans are stored as 0/1
// integers, tags as a JSON text column, timestamps as unix nanos.
type todoStore struct {
	db *db.DB
}

func NewTodoStore(database *db.DB) TodoStore {
	return &todoStore{db: database}
}

const todoColumns = "id, text, completed, starred, priority, tags, due_date, display_order, created_at, updated_at"

func (s *todoStore) Create(ctx context.Context, todo *model.Todo) error {
	tags, err := encodeTags(todo.Tags)
	if err != nil {
		return fmt.Errorf("creating todo: %w", err)
	}

	var due sql.NullInt64
	if todo.DueDate != nil {
		due = sql.NullInt64{Int64: todo.DueDate.UnixNano(), Valid: true}
	}

	// display_order is computed inside the insert so creation stays atomic
	// with respect to concurrent creates.
	row := s.db.Conn().QueryRowContext(ctx, `
		INSERT INTO todos (id, text, completed, starred, priority, tags, due_date, display_order, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(display_order) + 1, 0) FROM todos), ?, ?)
		RETURNING display_order`,
		todo.ID, todo.Text, boolToInt(todo.Completed), boolToInt(todo.Starred), todo.Priority,
		tags, due, todo.CreatedAt.UnixNano(), todo.UpdatedAt.UnixNano(),
	)
	if err := row.Scan(&todo.DisplayOrder); err != nil {
		return fmt.Errorf("creating todo: %w", err)
	}
	return nil
}

func (s *todoStore) GetByID(ctx context.Context, id int64) (*model.Todo, error) {
	row := s.db.Conn().QueryRowContext(ctx,
		"SELECT "+todoColumns+" FROM todos WHERE id = ?", id)

	todo, err := scanTodo(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting todo %d: %w", id, err)
	}
	return todo, nil
}

func (s *todoStore) List(ctx context.Context, filter Filter) ([]model.Todo, error) {
	query := "SELECT " + todoColumns + " FROM todos"
	var (
		conds []string
		args  []any
	)
	if filter.Starred != nil {
		conds = append(conds, "starred = ?")
		args = append(args, boolToInt(*filter.Starred))
	}
	if filter.Completed != nil {
		conds = append(conds, "completed = ?")
		args = append(args, boolToInt(*filter.Completed))
	}
	if filter.Priority != nil {
		conds = append(conds, "priority = ?")
		args = append(args, *filter.Priority)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY display_order ASC, priority ASC, created_at DESC"

	rows, err := s.db.Conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing todos: %w", err)
	}
	defer rows.Close()

	var todos []model.Todo
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("listing todos: %w", err)
		}
		todos = append(todos, *todo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing todos: %w", err)
	}
	return todos, nil
}

func (s *todoStore) Update(ctx context.Context, id int64, fields UpdateFields) (*model.Todo, error) {
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UnixNano()}

	if fields.Text != nil {
		sets = append(sets, "text = ?")
		args = append(args, *fields.Text)
	}
	if fields.Completed != nil {
		sets = append(sets, "completed = ?")
		args = append(args, boolToInt(*fields.Completed))
	}
	if fields.Starred != nil {
		sets = append(sets, "starred = ?")
		args = append(args, boolToInt(*fields.Starred))
	}
	if fields.Priority != nil {
		sets = append(sets, "priority = ?")
		args = append(args, *fields.Priority)
	}
	if fields.Tags != nil {
		tags, err := encodeTags(*fields.Tags)
		if err != nil {
			return nil, fmt.Errorf("updating todo %d: %w", id, err)
		}
		sets = append(sets, "tags = ?")
		args = append(args, tags)
	}
	if fields.DueDate != nil {
		sets = append(sets, "due_date = ?")
		args = append(args, fields.DueDate.UnixNano())
	}
	if fields.DisplayOrder != nil {
		sets = append(sets, "display_order = ?")
		args = append(args, *fields.DisplayOrder)
	}

	args = append(args, id)
	res, err := s.db.Conn().ExecContext(ctx,
		"UPDATE todos SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return nil, fmt.Errorf("updating todo %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("updating todo %d: %w", id, err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}

	return s.GetByID(ctx, id)
}

func (s *todoStore) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.Conn().ExecContext(ctx, "DELETE FROM todos WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("deleting todo %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting todo %d: %w", id, err)
	}
	return affected > 0, nil
}

func (s *todoStore) Reorder(ctx context.Context, orderedIDs []int64) error {
	if len(orderedIDs) == 0 {
		return nil
	}

	now := time.Now().UnixNano()
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		for position, id := range orderedIDs {
			if _, err := tx.ExecContext(ctx,
				"UPDATE todos SET display_order = ?, updated_at = ? WHERE id = ?",
				int64(position), now, id); err != nil {
				return fmt.Errorf("reordering todo %d: %w", id, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("reordering todos: %w", err)
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTodo(row scanner) (*model.Todo, error) {
	var (
		todo               model.Todo
		completed, starred int
		tags               string
		due                sql.NullInt64
		createdAt          int64
		updatedAt          int64
	)
	err := row.Scan(&todo.ID, &todo.Text, &completed, &starred, &todo.Priority,
		&tags, &due, &todo.DisplayOrder, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	todo.Completed = completed != 0
	todo.Starred = starred != 0
	if err := json.Unmarshal([]byte(tags), &todo.Tags); err != nil {
		return nil, fmt.Errorf("decoding tags: %w", err)
	}
	if due.Valid {
		t := time.Unix(0, due.Int64)
		todo.DueDate = &t
	}
	todo.CreatedAt = time.Unix(0, createdAt)
	todo.UpdatedAt = time.Unix(0, updatedAt)
	return &todo, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encoding tags: %w", err)
	}
	return string(data), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
