package menustore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Menu is a named container for navigation items.
type Menu struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateMenu inserts a menu. Names are unique; reusing one fails with
// ErrAlreadyExists.
func (s *Store) CreateMenu(ctx context.Context, name string) (Menu, error) {
	if name == "" {
		return Menu{}, fmt.Errorf("menustore: menu name is required")
	}
	if _, err := s.menuIDByName(ctx, name); err == nil {
		return Menu{}, fmt.Errorf("%w: menu %q", ErrAlreadyExists, name)
	} else if !errors.Is(err, ErrNotFound) {
		return Menu{}, err
	}

	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		"INSERT INTO menus (name, created_at) VALUES (?, ?)", name, now.Unix(),
	)
	if err != nil {
		return Menu{}, fmt.Errorf("menustore: create menu %q: %w", name, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Menu{}, fmt.Errorf("menustore: create menu %q: %w", name, err)
	}
	return Menu{ID: id, Name: name, CreatedAt: now}, nil
}

// FetchMenu looks up a menu by id.
func (s *Store) FetchMenu(ctx context.Context, id int64) (Menu, error) {
	var menu Menu
	var createdAt int64
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, created_at FROM menus WHERE id = ?", id,
	).Scan(&menu.ID, &menu.Name, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Menu{}, fmt.Errorf("%w: menu %d", ErrNotFound, id)
	}
	if err != nil {
		return Menu{}, fmt.Errorf("menustore: fetch menu %d: %w", id, err)
	}
	menu.CreatedAt = time.Unix(createdAt, 0).UTC()
	return menu, nil
}

// ListMenus returns all menus ordered by id.
func (s *Store) ListMenus(ctx context.Context) ([]Menu, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, created_at FROM menus ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("menustore: list menus: %w", err)
	}
	defer rows.Close()

	var out []Menu
	for rows.Next() {
		var menu Menu
		var createdAt int64
		if err := rows.Scan(&menu.ID, &menu.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("menustore: list menus: %w", err)
		}
		menu.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, menu)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("menustore: list menus: %w", err)
	}
	return out, nil
}

// DeleteMenu removes a menu and, via the schema's cascade, its items.
func (s *Store) DeleteMenu(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM menus WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("menustore: delete menu %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("menustore: delete menu %d: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: menu %d", ErrNotFound, id)
	}
	return nil
}

func (s *Store) menuIDByName(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, "SELECT id FROM menus WHERE name = ?", name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: menu %q", ErrNotFound, name)
	}
	if err != nil {
		return 0, fmt.Errorf("menustore: lookup menu %q: %w", name, err)
	}
	return id, nil
}
