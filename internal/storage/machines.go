package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// GetMachineByName resolves a machine by exact name match.
func (p *PostgresClient) GetMachineByName(ctx context.Context, name string) (*Machine, error) {
	var m Machine
	err := p.pool.QueryRow(ctx, `
		SELECT id, name, status, created_at, updated_at
		FROM machines
		WHERE name = $1
	`, name).Scan(&m.ID, &m.Name, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("machine %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get machine: %w", err)
	}
	return &m, nil
}

func (p *PostgresClient) ListMachines(ctx context.Context) ([]Machine, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, name, status, created_at, updated_at
		FROM machines
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list machines: %w", err)
	}
	defer rows.Close()

	machines := make([]Machine, 0)
	for rows.Next() {
		var m Machine
		if err := rows.Scan(&m.ID, &m.Name, &m.Status, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan machine: %w", err)
		}
		machines = append(machines, m)
	}
	return machines, rows.Err()
}

// UpsertMachine creates or refreshes a machine from the catalog seed.
// Status is preserved for existing machines.
func (p *PostgresClient) UpsertMachine(ctx context.Context, name string) (*Machine, error) {
	var m Machine
	err := p.pool.QueryRow(ctx, `
		INSERT INTO machines (name, status)
		VALUES ($1, 'OFF')
		ON CONFLICT (name) DO UPDATE SET updated_at = NOW()
		RETURNING id, name, status, created_at, updated_at
	`, name).Scan(&m.ID, &m.Name, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert machine: %w", err)
	}
	return &m, nil
}
