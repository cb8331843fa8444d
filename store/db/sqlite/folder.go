package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/hrygo/chorus/store"
)

func (d *DB) CreateFolder(ctx context.Context, create *store.Folder) (*store.Folder, error) {
	stmt := `INSERT INTO folders (uid, creator_id, name, color, parent_id, created_ts)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`
	err := d.db.QueryRowContext(ctx, stmt,
		create.UID, create.CreatorID, create.Name, create.Color, create.ParentID, create.CreatedTs,
	).Scan(&create.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}

	return create, nil
}

func (d *DB) ListFolders(ctx context.Context, find *store.FindFolder) ([]*store.Folder, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = ?"), append(args, *find.UID)
	}
	if find.CreatorID != nil {
		where, args = append(where, "creator_id = ?"), append(args, *find.CreatorID)
	}
	if find.ParentID != nil {
		where, args = append(where, "parent_id = ?"), append(args, *find.ParentID)
	}

	query := `
		SELECT id, uid, creator_id, name, color, parent_id, created_ts
		FROM folders
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts ASC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Folder, 0)
	for rows.Next() {
		folder := &store.Folder{}
		if err := rows.Scan(&folder.ID, &folder.UID, &folder.CreatorID, &folder.Name, &folder.Color, &folder.ParentID, &folder.CreatedTs); err != nil {
			return nil, fmt.Errorf("failed to scan folder: %w", err)
		}
		list = append(list, folder)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate folders: %w", err)
	}

	return list, nil
}

func (d *DB) UpdateFolder(ctx context.Context, update *store.UpdateFolder) (*store.Folder, error) {
	set, args := []string{}, []any{}

	if update.Name != nil {
		set, args = append(set, "name = ?"), append(args, *update.Name)
	}
	if update.Color != nil {
		set, args = append(set, "color = ?"), append(args, *update.Color)
	}
	if update.ParentID != nil {
		set, args = append(set, "parent_id = ?"), append(args, *update.ParentID)
	}

	if len(set) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}

	args = append(args, update.ID)
	stmt := `UPDATE folders SET ` + strings.Join(set, ", ") + ` WHERE id = ?
		RETURNING id, uid, creator_id, name, color, parent_id, created_ts`
	result := &store.Folder{}
	err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&result.ID, &result.UID, &result.CreatorID, &result.Name, &result.Color, &result.ParentID, &result.CreatedTs,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update folder: %w", err)
	}

	return result, nil
}

func (d *DB) DeleteFolder(ctx context.Context, delete *store.DeleteFolder) error {
	result, err := d.db.ExecContext(ctx, `DELETE FROM folders WHERE id = ?`, delete.ID)
	if err != nil {
		return fmt.Errorf("failed to delete folder: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("folder not found: %d", delete.ID)
	}
	return nil
}
