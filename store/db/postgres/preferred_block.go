package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/hrygo/chorus/store"
)

// CreatePreferredBlock appends the block to the turn's selection with
// selection_order = MAX + 1, starting at 1. The MAX read and the insert
// share a transaction; the UNIQUE (user_message_id, block_id) constraint
// turns a duplicate select into store.ErrAlreadySelected.
func (d *DB) CreatePreferredBlock(ctx context.Context, create *store.CreatePreferredBlock) (*store.PreferredBlock, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	preferred := &store.PreferredBlock{
		ConversationID: create.ConversationID,
		UserMessageID:  create.UserMessageID,
		BlockID:        create.BlockID,
		CreatedTs:      create.CreatedTs,
	}

	query := `
		INSERT INTO preferred_blocks (conversation_id, user_message_id, block_id, selection_order, created_ts)
		SELECT $1, $2, $3, COALESCE(MAX(selection_order), 0) + 1, $4
		FROM preferred_blocks
		WHERE user_message_id = $2
		RETURNING id, selection_order
	`
	err = tx.QueryRowContext(ctx, query,
		create.ConversationID,
		create.UserMessageID,
		create.BlockID,
		create.CreatedTs,
	).Scan(&preferred.ID, &preferred.SelectionOrder)
	if err != nil {
		if isDuplicateSelection(err) {
			return nil, store.ErrAlreadySelected
		}
		return nil, fmt.Errorf("failed to create preferred_block: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit preferred_block: %w", err)
	}
	return preferred, nil
}

func (d *DB) ListPreferredBlocks(ctx context.Context, find *store.FindPreferredBlock) ([]*store.PreferredBlock, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.ConversationID != nil {
		where, args = append(where, "conversation_id = "+placeholder(len(args)+1)), append(args, *find.ConversationID)
	}
	if find.UserMessageID != nil {
		where, args = append(where, "user_message_id = "+placeholder(len(args)+1)), append(args, *find.UserMessageID)
	}
	if find.BlockID != nil {
		where, args = append(where, "block_id = "+placeholder(len(args)+1)), append(args, *find.BlockID)
	}

	query := `
		SELECT id, conversation_id, user_message_id, block_id, selection_order, created_ts
		FROM preferred_blocks
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY selection_order ASC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list preferred_blocks: %w", err)
	}
	defer rows.Close()

	list := make([]*store.PreferredBlock, 0)
	for rows.Next() {
		preferred := &store.PreferredBlock{}
		if err := rows.Scan(
			&preferred.ID,
			&preferred.ConversationID,
			&preferred.UserMessageID,
			&preferred.BlockID,
			&preferred.SelectionOrder,
			&preferred.CreatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan preferred_block: %w", err)
		}
		list = append(list, preferred)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate preferred_blocks: %w", err)
	}

	return list, nil
}

// DeletePreferredBlock removes one selection row. Remaining orders are not
// compacted: readers sort by selection_order and tolerate gaps.
func (d *DB) DeletePreferredBlock(ctx context.Context, delete *store.DeletePreferredBlock) error {
	_, err := d.db.ExecContext(ctx,
		`DELETE FROM preferred_blocks WHERE user_message_id = $1 AND block_id = $2`,
		delete.UserMessageID, delete.BlockID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete preferred_block: %w", err)
	}
	return nil
}

// SetPreferredBlockOrders rewrites the turn's selection orders as one
// transaction; orderedBlockIDs[i] receives order i+1. The deferred unique
// constraint on (user_message_id, selection_order) checks only at commit,
// so the intermediate states of the rewrite are allowed.
func (d *DB) SetPreferredBlockOrders(ctx context.Context, userMessageID int64, orderedBlockIDs []int64) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	for position, blockID := range orderedBlockIDs {
		result, err := tx.ExecContext(ctx,
			`UPDATE preferred_blocks SET selection_order = $1 WHERE user_message_id = $2 AND block_id = $3`,
			position+1, userMessageID, blockID,
		)
		if err != nil {
			return fmt.Errorf("failed to update selection_order: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return fmt.Errorf("preferred_block not found for message %d, block %d", userMessageID, blockID)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reorder: %w", err)
	}
	return nil
}

// ListSelectedBlocks returns the joined read-model for context assembly:
// preferred blocks with content and provenance, ordered by turn then by
// selection order.
func (d *DB) ListSelectedBlocks(ctx context.Context, find *store.FindSelectedBlock) ([]*store.SelectedBlock, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ConversationID != nil {
		where, args = append(where, "pb.conversation_id = "+placeholder(len(args)+1)), append(args, *find.ConversationID)
	}
	if find.UserMessageID != nil {
		where, args = append(where, "pb.user_message_id = "+placeholder(len(args)+1)), append(args, *find.UserMessageID)
	}

	query := `
		SELECT
			pb.block_id, pb.user_message_id, pb.selection_order,
			rb.block_type, rb.content, rb.metadata, rb.response_id,
			er.engine, er.provider,
			um.turn_number
		FROM preferred_blocks pb
		JOIN response_blocks rb ON rb.id = pb.block_id
		JOIN engine_responses er ON er.id = rb.response_id
		JOIN user_messages um ON um.id = pb.user_message_id
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY um.turn_number ASC, pb.selection_order ASC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list selected blocks: %w", err)
	}
	defer rows.Close()

	list := make([]*store.SelectedBlock, 0)
	for rows.Next() {
		selected := &store.SelectedBlock{}
		var metadataJSON []byte
		if err := rows.Scan(
			&selected.BlockID,
			&selected.UserMessageID,
			&selected.SelectionOrder,
			&selected.Type,
			&selected.Content,
			&metadataJSON,
			&selected.ResponseID,
			&selected.Engine,
			&selected.Provider,
			&selected.TurnNumber,
		); err != nil {
			return nil, fmt.Errorf("failed to scan selected block: %w", err)
		}
		if err := json.Unmarshal(metadataJSON, &selected.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal block metadata: %w", err)
		}
		list = append(list, selected)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate selected blocks: %w", err)
	}

	return list, nil
}

// isDuplicateSelection matches the unique violation on the
// (user_message_id, block_id) constraint only. The deferred
// selection_order constraint raises the same SQLSTATE at commit and
// must not be mistaken for a duplicate select.
func isDuplicateSelection(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "23505" && pqErr.Constraint == "preferred_blocks_turn_block_key"
}
