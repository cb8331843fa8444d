package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/hrygo/chorus/store"
)

func (d *DB) CreateConversation(ctx context.Context, create *store.Conversation) (*store.Conversation, error) {
	fields := []string{"uid", "creator_id", "title", "title_source", "pinned", "row_status", "folder_id", "created_ts", "updated_ts"}
	args := []any{create.UID, create.CreatorID, create.Title, create.TitleSource, create.Pinned, create.RowStatus, create.FolderID, create.CreatedTs, create.UpdatedTs}

	stmt := `INSERT INTO conversations (` + strings.Join(fields, ", ") + `)
		VALUES (` + strings.TrimSuffix(strings.Repeat("?, ", len(args)), ", ") + `)
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	return create, nil
}

func (d *DB) ListConversations(ctx context.Context, find *store.FindConversation) ([]*store.Conversation, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "c.id = ?"), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "c.uid = ?"), append(args, *find.UID)
	}
	if find.CreatorID != nil {
		where, args = append(where, "c.creator_id = ?"), append(args, *find.CreatorID)
	}
	if find.FolderID != nil {
		where, args = append(where, "c.folder_id = ?"), append(args, *find.FolderID)
	}
	if find.Pinned != nil {
		where, args = append(where, "c.pinned = ?"), append(args, *find.Pinned)
	}
	if find.RowStatus != nil {
		where, args = append(where, "c.row_status = ?"), append(args, string(*find.RowStatus))
	}

	query := `
		SELECT
			c.id, c.uid, c.creator_id, c.title, c.title_source, c.pinned, c.row_status, c.folder_id, c.created_ts, c.updated_ts,
			COALESCE(COUNT(m.id), 0) AS turn_count
		FROM conversations c
		LEFT JOIN user_messages m ON m.conversation_id = c.id
		WHERE ` + strings.Join(where, " AND ") + `
		GROUP BY c.id
		ORDER BY c.pinned DESC, c.updated_ts DESC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Conversation, 0)
	for rows.Next() {
		c := &store.Conversation{}
		if err := rows.Scan(&c.ID, &c.UID, &c.CreatorID, &c.Title, &c.TitleSource, &c.Pinned, &c.RowStatus, &c.FolderID, &c.CreatedTs, &c.UpdatedTs, &c.TurnCount); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		list = append(list, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversations: %w", err)
	}

	return list, nil
}

func (d *DB) UpdateConversation(ctx context.Context, update *store.UpdateConversation) (*store.Conversation, error) {
	set, args := []string{}, []any{}

	if update.Title != nil {
		set, args = append(set, "title = ?"), append(args, *update.Title)
	}
	if update.TitleSource != nil {
		set, args = append(set, "title_source = ?"), append(args, string(*update.TitleSource))
	}
	if update.Pinned != nil {
		set, args = append(set, "pinned = ?"), append(args, *update.Pinned)
	}
	if update.RowStatus != nil {
		set, args = append(set, "row_status = ?"), append(args, string(*update.RowStatus))
	}
	if update.SetFolder {
		set, args = append(set, "folder_id = ?"), append(args, update.FolderID)
	}
	if update.UpdatedTs != nil {
		set, args = append(set, "updated_ts = ?"), append(args, *update.UpdatedTs)
	}

	if len(set) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}

	args = append(args, update.ID)
	stmt := `UPDATE conversations SET ` + strings.Join(set, ", ") + ` WHERE id = ?
		RETURNING id, uid, creator_id, title, title_source, pinned, row_status, folder_id, created_ts, updated_ts`
	result := &store.Conversation{}
	err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&result.ID, &result.UID, &result.CreatorID, &result.Title, &result.TitleSource, &result.Pinned, &result.RowStatus, &result.FolderID, &result.CreatedTs, &result.UpdatedTs,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update conversation: %w", err)
	}

	return result, nil
}

func (d *DB) DeleteConversation(ctx context.Context, delete *store.DeleteConversation) error {
	result, err := d.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, delete.ID)
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("conversation not found: %d", delete.ID)
	}
	return nil
}
