package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mcbarin/personal-ai-assistant/internal/core"
)

var _ core.TurnsRepository = (*Turns)(nil)

// Turns is append-only. Records are never updated or deleted.
type Turns struct {
	db *sql.DB
}

func NewTurns(db *sql.DB) *Turns {
	return &Turns{db: db}
}

func (t *Turns) Record(ctx context.Context, rec core.TurnRecord) error {
	query := `INSERT INTO turns (user_message, assistant_reply, tools_used, retrieved_doc_ids) VALUES (?, ?, ?, ?)`

	_, err := t.db.ExecContext(ctx, query,
		rec.UserMessage, rec.AssistantReply, rec.ToolsUsed, rec.RetrievedDocIDs)
	if err != nil {
		return fmt.Errorf("failed to insert turn: %w", err)
	}
	return nil
}

// List returns recent turns, newest first, capped at limit.
func (t *Turns) List(ctx context.Context, limit int) ([]core.TurnRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := t.db.QueryContext(ctx,
		`SELECT id, user_message, assistant_reply, tools_used, retrieved_doc_ids, created_at
		 FROM turns ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	var recs []core.TurnRecord
	for rows.Next() {
		var rec core.TurnRecord
		if err := rows.Scan(&rec.ID, &rec.UserMessage, &rec.AssistantReply,
			&rec.ToolsUsed, &rec.RetrievedDocIDs, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
