package core

import (
	"context"
	"time"
)

type TodosRepository interface {
	Create(ctx context.Context, text string, due *time.Time) (Todo, error)
	List(ctx context.Context, status string) ([]Todo, error)
}

// TurnsRepository is the append-only sink for turn records. Failure to
// persist must never surface to the user; callers report it and move on.
type TurnsRepository interface {
	Record(ctx context.Context, rec TurnRecord) error
}
