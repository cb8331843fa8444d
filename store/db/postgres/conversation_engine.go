package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/hrygo/chorus/store"
)

// UpsertConversationEngine adds an engine to the conversation roster or
// re-activates a removed one. Re-adding clears removed_ts so the engine
// participates in subsequent turns again; its historical rows are untouched.
func (d *DB) UpsertConversationEngine(ctx context.Context, upsert *store.UpsertConversationEngine) (*store.ConversationEngine, error) {
	query := `
		INSERT INTO conversation_engines (conversation_id, engine, provider, added_ts, removed_ts)
		VALUES ($1, $2, $3, $4, NULL)
		ON CONFLICT (conversation_id, engine) DO UPDATE SET
			provider = EXCLUDED.provider,
			added_ts = EXCLUDED.added_ts,
			removed_ts = NULL
		RETURNING id, conversation_id, engine, provider, added_ts, removed_ts
	`

	engine := &store.ConversationEngine{}
	err := d.db.QueryRowContext(ctx, query,
		upsert.ConversationID,
		upsert.Engine,
		upsert.Provider,
		upsert.AddedTs,
	).Scan(&engine.ID, &engine.ConversationID, &engine.Engine, &engine.Provider, &engine.AddedTs, &engine.RemovedTs)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert conversation_engine: %w", err)
	}

	return engine, nil
}

func (d *DB) ListConversationEngines(ctx context.Context, find *store.FindConversationEngine) ([]*store.ConversationEngine, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ConversationID != nil {
		where, args = append(where, "conversation_id = "+placeholder(len(args)+1)), append(args, *find.ConversationID)
	}
	if find.Engine != nil {
		where, args = append(where, "engine = "+placeholder(len(args)+1)), append(args, *find.Engine)
	}
	if find.ActiveOnly {
		where = append(where, "removed_ts IS NULL")
	}

	query := `
		SELECT id, conversation_id, engine, provider, added_ts, removed_ts
		FROM conversation_engines
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY added_ts ASC, id ASC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversation_engines: %w", err)
	}
	defer rows.Close()

	list := make([]*store.ConversationEngine, 0)
	for rows.Next() {
		engine := &store.ConversationEngine{}
		if err := rows.Scan(&engine.ID, &engine.ConversationID, &engine.Engine, &engine.Provider, &engine.AddedTs, &engine.RemovedTs); err != nil {
			return nil, fmt.Errorf("failed to scan conversation_engine: %w", err)
		}
		list = append(list, engine)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversation_engines: %w", err)
	}

	return list, nil
}

func (d *DB) RemoveConversationEngine(ctx context.Context, remove *store.RemoveConversationEngine) error {
	result, err := d.db.ExecContext(ctx,
		`UPDATE conversation_engines SET removed_ts = $1 WHERE conversation_id = $2 AND engine = $3 AND removed_ts IS NULL`,
		remove.RemovedTs, remove.ConversationID, remove.Engine,
	)
	if err != nil {
		return fmt.Errorf("failed to remove conversation_engine: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("active engine not found: %s", remove.Engine)
	}
	return nil
}
