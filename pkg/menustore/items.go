package menustore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	customize "github.com/goliatone/go-customize"
)

const itemColumns = "menu_id, object_id, object_kind, parent_id, position, kind, title, url, target, title_attr, description, classes, relation, status"

// FetchItem implements customize.ItemStore.
func (s *Store) FetchItem(ctx context.Context, key int64) (customize.ItemRecord, bool, error) {
	var record customize.ItemRecord
	err := s.db.QueryRowContext(ctx,
		"SELECT "+itemColumns+" FROM menu_items WHERE id = ?", key,
	).Scan(
		&record.MenuID, &record.ObjectID, &record.ObjectKind, &record.ParentID,
		&record.Position, &record.Kind, &record.Title, &record.URL, &record.Target,
		&record.TitleAttr, &record.Description, &record.Classes, &record.Relation,
		&record.Status,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return customize.ItemRecord{}, false, nil
	}
	if err != nil {
		return customize.ItemRecord{}, false, &customize.StorageError{Op: "fetch", Code: "query_failed", Err: err}
	}
	return record, true, nil
}

// UpsertItem implements customize.ItemStore. Keys at or below zero insert a
// fresh row; positive keys update in place. The stored menu id always follows
// the menuID argument.
func (s *Store) UpsertItem(ctx context.Context, menuID, key int64, record customize.ItemRecord) (int64, error) {
	if err := s.requireMenu(ctx, menuID); err != nil {
		return 0, err
	}
	record.MenuID = menuID
	now := time.Now().UTC().Unix()

	if key <= 0 {
		result, err := s.db.ExecContext(ctx,
			"INSERT INTO menu_items ("+itemColumns+", updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			record.MenuID, record.ObjectID, record.ObjectKind, record.ParentID,
			record.Position, record.Kind, record.Title, record.URL, record.Target,
			record.TitleAttr, record.Description, record.Classes, record.Relation,
			record.Status, now,
		)
		if err != nil {
			return 0, &customize.StorageError{Op: "upsert", Code: "insert_failed", Err: err}
		}
		id, err := result.LastInsertId()
		if err != nil {
			return 0, &customize.StorageError{Op: "upsert", Code: "insert_failed", Err: err}
		}
		return id, nil
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE menu_items SET menu_id = ?, object_id = ?, object_kind = ?, parent_id = ?,
			position = ?, kind = ?, title = ?, url = ?, target = ?, title_attr = ?,
			description = ?, classes = ?, relation = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		record.MenuID, record.ObjectID, record.ObjectKind, record.ParentID,
		record.Position, record.Kind, record.Title, record.URL, record.Target,
		record.TitleAttr, record.Description, record.Classes, record.Relation,
		record.Status, now, key,
	)
	if err != nil {
		return 0, &customize.StorageError{Op: "upsert", Code: "update_failed", Err: err}
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, &customize.StorageError{Op: "upsert", Code: "update_failed", Err: err}
	}
	if affected == 0 {
		return 0, &customize.StorageError{Op: "upsert", Code: "not_found", Err: fmt.Errorf("item %d does not exist", key)}
	}
	return key, nil
}

// DeleteItem implements customize.ItemStore.
func (s *Store) DeleteItem(ctx context.Context, key int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM menu_items WHERE id = ?", key)
	if err != nil {
		return &customize.StorageError{Op: "delete", Code: "delete_failed", Err: err}
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return &customize.StorageError{Op: "delete", Code: "delete_failed", Err: err}
	}
	if affected == 0 {
		return &customize.StorageError{Op: "delete", Code: "not_found", Err: fmt.Errorf("item %d does not exist", key)}
	}
	return nil
}

// ListItems implements customize.ItemLister, ordered by position with key as
// tiebreaker.
func (s *Store) ListItems(ctx context.Context, menuID int64) ([]customize.MenuItem, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, "+itemColumns+" FROM menu_items WHERE menu_id = ? ORDER BY position, id", menuID,
	)
	if err != nil {
		return nil, &customize.StorageError{Op: "list", Code: "query_failed", Err: err}
	}
	defer rows.Close()

	var out []customize.MenuItem
	for rows.Next() {
		var item customize.MenuItem
		record := &item.Record
		if err := rows.Scan(
			&item.Key,
			&record.MenuID, &record.ObjectID, &record.ObjectKind, &record.ParentID,
			&record.Position, &record.Kind, &record.Title, &record.URL, &record.Target,
			&record.TitleAttr, &record.Description, &record.Classes, &record.Relation,
			&record.Status,
		); err != nil {
			return nil, &customize.StorageError{Op: "list", Code: "scan_failed", Err: err}
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, &customize.StorageError{Op: "list", Code: "query_failed", Err: err}
	}
	return out, nil
}

func (s *Store) requireMenu(ctx context.Context, menuID int64) error {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM menus WHERE id = ?", menuID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return &customize.StorageError{Op: "upsert", Code: "invalid_menu", Err: fmt.Errorf("menu %d does not exist", menuID)}
	}
	if err != nil {
		return &customize.StorageError{Op: "upsert", Code: "query_failed", Err: err}
	}
	return nil
}
