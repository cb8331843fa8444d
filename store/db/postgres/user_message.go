package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hrygo/chorus/store"
)

// CreateUserMessage inserts a message with the next turn number for its
// conversation, computed inside the INSERT so the assignment is atomic.
// The UNIQUE (conversation_id, turn_number) constraint rejects the loser
// if two inserts ever race on the same conversation.
func (d *DB) CreateUserMessage(ctx context.Context, create *store.CreateUserMessage) (*store.UserMessage, error) {
	attachmentsJSON, err := json.Marshal(attachmentsOrEmpty(create.Attachments))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal attachments: %w", err)
	}

	query := `
		INSERT INTO user_messages (uid, conversation_id, turn_number, content, attachments, created_ts)
		SELECT $1, $2, COALESCE(MAX(turn_number), 0) + 1, $3, $4, $5
		FROM user_messages
		WHERE conversation_id = $2
		RETURNING id, turn_number
	`

	message := &store.UserMessage{
		UID:            create.UID,
		ConversationID: create.ConversationID,
		Content:        create.Content,
		Attachments:    attachmentsOrEmpty(create.Attachments),
		CreatedTs:      create.CreatedTs,
	}
	err = d.db.QueryRowContext(ctx, query,
		create.UID,
		create.ConversationID,
		create.Content,
		attachmentsJSON,
		create.CreatedTs,
	).Scan(&message.ID, &message.TurnNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to create user_message: %w", err)
	}

	return message, nil
}

func (d *DB) ListUserMessages(ctx context.Context, find *store.FindUserMessage) ([]*store.UserMessage, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *find.UID)
	}
	if find.ConversationID != nil {
		where, args = append(where, "conversation_id = "+placeholder(len(args)+1)), append(args, *find.ConversationID)
	}
	if find.TurnNumber != nil {
		where, args = append(where, "turn_number = "+placeholder(len(args)+1)), append(args, *find.TurnNumber)
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

func attachmentsOrEmpty(attachments []store.Attachment) []store.Attachment {
	if attachments == nil {
		return []store.Attachment{}
	}
	return attachments
}
