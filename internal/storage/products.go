package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// GetProductByName resolves a product by case-insensitive exact name match.
func (p *PostgresClient) GetProductByName(ctx context.Context, name string) (*Product, error) {
	var product Product
	err := p.pool.QueryRow(ctx, `
		SELECT id, name, created_at, updated_at
		FROM products
		WHERE LOWER(name) = LOWER($1)
	`, strings.TrimSpace(name)).Scan(
		&product.ID, &product.Name, &product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("product %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}

func (p *PostgresClient) GetProductByID(ctx context.Context, id int64) (*Product, error) {
	var product Product
	err := p.pool.QueryRow(ctx, `
		SELECT id, name, created_at, updated_at
		FROM products
		WHERE id = $1
	`, id).Scan(&product.ID, &product.Name, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}

// ProductWithLatestJob is the row shape for the products listing: every
// product plus the stage and state of its newest job, if any.
type ProductWithLatestJob struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Stage  string `json:"process"`
	Status string `json:"status"`
}

// ListProductsWithLatestJob returns all products, each with the stage and
// state of its most recent job. Products with no jobs yet come back with
// empty stage and status.
func (p *PostgresClient) ListProductsWithLatestJob(ctx context.Context) ([]ProductWithLatestJob, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT pr.id, pr.name,
		       COALESCE(j.stage, ''), COALESCE(j.state, '')
		FROM products pr
		LEFT JOIN LATERAL (
			SELECT stage, state
			FROM jobs
			WHERE product_id = pr.id
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		) j ON true
		ORDER BY pr.name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := make([]ProductWithLatestJob, 0)
	for rows.Next() {
		var row ProductWithLatestJob
		if err := rows.Scan(&row.ID, &row.Name, &row.Stage, &row.Status); err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		products = append(products, row)
	}
	return products, rows.Err()
}
