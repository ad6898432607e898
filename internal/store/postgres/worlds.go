package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"lorekeeper/internal/store"
)

func (c *Client) Get(ctx context.Context, name string) ([]byte, error) {
	var data []byte
	err := c.pool.QueryRow(ctx, `SELECT data::text FROM worlds WHERE name = $1`, name).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting world %s: %w", name, err)
	}
	return data, nil
}

func (c *Client) Put(ctx context.Context, name string, data []byte) error {
	if err := store.ValidateName(name); err != nil {
		return err
	}

	query := `
INSERT INTO worlds (name, data, updated_at)
VALUES ($1, $2::jsonb, now())
ON CONFLICT (name) DO UPDATE SET
    data = EXCLUDED.data,
    updated_at = now()
`
	if _, err := c.pool.Exec(ctx, query, name, string(data)); err != nil {
		return fmt.Errorf("saving world %s: %w", name, err)
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, name string) (bool, error) {
	tag, err := c.pool.Exec(ctx, `DELETE FROM worlds WHERE name = $1`, name)
	if err != nil {
		return false, fmt.Errorf("deleting world %s: %w", name, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (c *Client) List(ctx context.Context) ([]string, error) {
	rows, err := c.pool.Query(ctx, `SELECT name FROM worlds ORDER BY name`)
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
