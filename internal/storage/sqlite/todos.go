package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mcbarin/personal-ai-assistant/internal/core"
	"github.com/mcbarin/personal-ai-assistant/pkg/log"
)

var _ core.TodosRepository = (*Todos)(nil)

type Todos struct {
	db *sql.DB
}

func NewTodos(db *sql.DB) *Todos {
	return &Todos{db: db}
}

func (t *Todos) Create(ctx context.Context, text string, due *time.Time) (core.Todo, error) {
	query := `INSERT INTO todos (text, due_at) VALUES (?, ?)`

	res, err := t.db.ExecContext(ctx, query, text, due)
	if err != nil {
		return core.Todo{}, fmt.Errorf("failed to insert todo: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Todo{}, fmt.Errorf("failed to get todo id: %w", err)
	}

	return t.get(ctx, id)
}

func (t *Todos) List(ctx context.Context, status string) ([]core.Todo, error) {
	query := `SELECT id, text, due_at, status, created_at FROM todos`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query todos: %w", err)
	}
	defer rows.Close()

	var todos []core.Todo
	for rows.Next() {
		todo, err := scanTodo(rows.Scan)
		if err != nil {
			return nil, err
		}
		todos = append(todos, todo)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	log.FromCtx(ctx).Debug().Int("count", len(todos)).Str("status", status).Msg("listed todos")
	return todos, nil
}

func (t *Todos) get(ctx context.Context, id int64) (core.Todo, error) {
	row := t.db.QueryRowContext(ctx,
		`SELECT id, text, due_at, status, created_at FROM todos WHERE id = ?`, id)
	return scanTodo(row.Scan)
}

func scanTodo(scan func(...any) error) (core.Todo, error) {
	var todo core.Todo
	var due sql.NullTime

	if err := scan(&todo.ID, &todo.Text, &due, &todo.Status, &todo.CreatedAt); err != nil {
		return core.Todo{}, fmt.Errorf("failed to scan todo: %w", err)
	}
	if due.Valid {
		todo.Due = &due.Time
	}
	return todo, nil
}
