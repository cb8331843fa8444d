package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hrygo/chorus/store"
)

// CreateEngineResponse persists a response together with its blocks in a
// single transaction, so a response is never observable half-split.
func (d *DB) CreateEngineResponse(ctx context.Context, create *store.CreateEngineResponse) (*store.EngineResponse, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	response := &store.EngineResponse{
		UID:           create.UID,
		UserMessageID: create.UserMessageID,
		Engine:        create.Engine,
		Provider:      create.Provider,
		LatencyMs:     create.LatencyMs,
		InputTokens:   create.InputTokens,
		OutputTokens:  create.OutputTokens,
		CostUSD:       create.CostUSD,
		Error:         create.Error,
		CreatedTs:     create.CreatedTs,
	}

	query := `
		INSERT INTO engine_responses (uid, user_message_id, engine, provider, latency_ms, input_tokens, output_tokens, cost_usd, error, created_ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	err = tx.QueryRowContext(ctx, query,
		create.UID,
		create.UserMessageID,
		create.Engine,
		create.Provider,
		create.LatencyMs,
		create.InputTokens,
		create.OutputTokens,
		create.CostUSD,
		create.Error,
		create.CreatedTs,
	).Scan(&response.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine_response: %w", err)
	}

	response.Blocks = make([]*store.ResponseBlock, 0, len(create.Blocks))
	for index, blockCreate := range create.Blocks {
		metadataJSON, err := json.Marshal(metadataOrEmpty(blockCreate.Metadata))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal block metadata: %w", err)
		}

		block := &store.ResponseBlock{
			ResponseID: response.ID,
			BlockIndex: int32(index),
			Type:       blockCreate.Type,
			Content:    blockCreate.Content,
			Metadata:   metadataOrEmpty(blockCreate.Metadata),
		}
		err = tx.QueryRowContext(ctx, `
			INSERT INTO response_blocks (response_id, block_index, block_type, content, metadata)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, response.ID, block.BlockIndex, string(block.Type), block.Content, metadataJSON).Scan(&block.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to create response_block: %w", err)
		}
		response.Blocks = append(response.Blocks, block)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit engine_response: %w", err)
	}
	return response, nil
}

func (d *DB) ListEngineResponses(ctx context.Context, find *store.FindEngineResponse) ([]*store.EngineResponse, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *find.UID)
	}
	if find.UserMessageID != nil {
		where, args = append(where, "user_message_id = "+placeholder(len(args)+1)), append(args, *find.UserMessageID)
	}
	if find.Engine != nil {
		where, args = append(where, "engine = "+placeholder(len(args)+1)), append(args, *find.Engine)
	}

	query := `
		SELECT id, uid, user_message_id, engine, provider, latency_ms, input_tokens, output_tokens, cost_usd, error, created_ts
		FROM engine_responses
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts ASC, id ASC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list engine_responses: %w", err)
	}
	defer rows.Close()

	list := make([]*store.EngineResponse, 0)
	for rows.Next() {
		response := &store.EngineResponse{}
		if err := rows.Scan(
			&response.ID,
			&response.UID,
			&response.UserMessageID,
			&response.Engine,
			&response.Provider,
			&response.LatencyMs,
			&response.InputTokens,
			&response.OutputTokens,
			&response.CostUSD,
			&response.Error,
			&response.CreatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan engine_response: %w", err)
		}
		list = append(list, response)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate engine_responses: %w", err)
	}

	// A handful of engines respond per turn, so a per-response block query
	// stays cheap and keeps the scan simple.
	for _, response := range list {
		blocks, err := d.ListResponseBlocks(ctx, &store.FindResponseBlock{ResponseID: &response.ID})
		if err != nil {
			return nil, err
		}
		response.Blocks = blocks
	}

	return list, nil
}

func (d *DB) ListResponseBlocks(ctx context.Context, find *store.FindResponseBlock) ([]*store.ResponseBlock, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.ResponseID != nil {
		where, args = append(where, "response_id = "+placeholder(len(args)+1)), append(args, *find.ResponseID)
	}
	if find.Type != nil {
		where, args = append(where, "block_type = "+placeholder(len(args)+1)), append(args, string(*find.Type))
	}

	query := `
		SELECT id, response_id, block_index, block_type, content, metadata
		FROM response_blocks
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY block_index ASC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list response_blocks: %w", err)
	}
	defer rows.Close()

	list := make([]*store.ResponseBlock, 0)
	for rows.Next() {
		block, err := scanResponseBlock(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan response_block: %w", err)
		}
		list = append(list, block)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate response_blocks: %w", err)
	}

	return list, nil
}

// DeleteResponseBlock removes a block; the cascade retracts it from any
// Preferred Selection referencing it.
func (d *DB) DeleteResponseBlock(ctx context.Context, delete *store.DeleteResponseBlock) error {
	result, err := d.db.ExecContext(ctx, `DELETE FROM response_blocks WHERE id = $1`, delete.ID)
	if err != nil {
		return fmt.Errorf("failed to delete response_block: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("response_block not found: %d", delete.ID)
	}
	return nil
}

func scanResponseBlock(rows *sql.Rows) (*store.ResponseBlock, error) {
	block := &store.ResponseBlock{}
	var metadataJSON []byte
	err := rows.Scan(
		&block.ID,
		&block.ResponseID,
		&block.BlockIndex,
		&block.Type,
		&block.Content,
		&metadataJSON,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(metadataJSON, &block.Metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal block metadata: %w", err)
	}
	return block, nil
}

func metadataOrEmpty(metadata map[string]any) map[string]any {
	if metadata == nil {
		return map[string]any{}
	}
	return metadata
}
