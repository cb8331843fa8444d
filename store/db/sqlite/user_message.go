package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hrygo/chorus/store"
)

// CreateUserMessage assigns the next turn number inside the INSERT. The
// single-connection SQLite setup serializes writers, so the MAX read and
// the insert cannot interleave with another message insert.
func (d *DB) CreateUserMessage(ctx context.Context, create *store.CreateUserMessage) (*store.UserMessage, error) {
	attachments := create.Attachments
	if attachments == nil {
		attachments = []store.Attachment{}
	}
	attachmentsJSON, err := json.Marshal(attachments)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal attachments: %w", err)
	}

	query := `
		INSERT INTO user_messages (uid, conversation_id, turn_number, content, attachments, created_ts)
		SELECT ?, ?, COALESCE(MAX(turn_number), 0) + 1, ?, ?, ?
		FROM user_messages
		WHERE conversation_id = ?
		RETURNING id, turn_number
	`

	message := &store.UserMessage{
		UID:            create.UID,
		ConversationID: create.ConversationID,
		Content:        create.Content,
		Attachments:    attachments,
		CreatedTs:      create.CreatedTs,
	}
	err = d.db.QueryRowContext(ctx, query,
		create.UID,
		create.ConversationID,
		create.Content,
		attachmentsJSON,
		create.CreatedTs,
		create.ConversationID,
	).Scan(&message.ID, &message.TurnNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to create user_message: %w", err)
	}

	return message, nil
}

func (d *DB) ListUserMessages(ctx context.Context, find *store.FindUserMessage) ([]*store.UserMessage, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = ?"), append(args, *find.UID)
	}
	if find.ConversationID != nil {
		where, args = append(where, "conversation_id = ?"), append(args, *find.ConversationID)
	}
	if find.TurnNumber != nil {
		where, args = append(where, "turn_number = ?"), append(args, *find.TurnNumber)
	}

	query := `
		SELECT id, uid, conversation_id, turn_number, content, attachments, created_ts
		FROM user_messages
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY turn_number ASC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list user_messages: %w", err)
	}
	defer rows.Close()

	list := make([]*store.UserMessage, 0)
	for rows.Next() {
		message, err := scanUserMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user_message: %w", err)
		}
		list = append(list, message)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user_messages: %w", err)
	}

	return list, nil
}

func scanUserMessage(rows *sql.Rows) (*store.UserMessage, error) {
	message := &store.UserMessage{}
	var attachmentsJSON []byte
	err := rows.Scan(
		&message.ID,
		&message.UID,
		&message.ConversationID,
		&message.TurnNumber,
		&message.Content,
		&attachmentsJSON,
		&message.CreatedTs,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(attachmentsJSON, &message.Attachments); err != nil {
		return nil, fmt.Errorf("failed to unmarshal attachments: %w", err)
	}
	return message, nil
}
