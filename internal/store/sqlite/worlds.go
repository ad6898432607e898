package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"lorekeeper/internal/store"
)

func (c *Client) Get(ctx context.Context, name string) ([]byte, error) {
	var data string
	err := c.db.QueryRowContext(ctx, `SELECT data FROM worlds WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting world %s: %w", name, err)
	}
	return []byte(data), nil
}

func (c *Client) Put(ctx context.Context, name string, data []byte) error {
	if err := store.ValidateName(name); err != nil {
		return err
	}

	query := `
	INSERT INTO worlds (name, data, updated_at)
	VALUES (?, ?, datetime('now'))
	ON CONFLICT (name) DO UPDATE SET
		data = excluded.data,
		updated_at = datetime('now')
	`
	if _, err := c.db.ExecContext(ctx, query, name, string(data)); err != nil {
		return fmt.Errorf("saving world %s: %w", name, err)
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, name string) (bool, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM worlds WHERE name = ?`, name)
	if err != nil {
		return false, fmt.Errorf("deleting world %s: %w", name, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("counting deleted worlds: %w", err)
	}
	return affected > 0, nil
}

func (c *Client) List(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT name FROM worlds ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing worlds: %w", err)
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning world name: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating worlds: %w", err)
	}

	return names, nil
}
