package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// GetOperatorByPhone resolves the operator profile for an authenticated
// token's phone claim.
func (p *PostgresClient) GetOperatorByPhone(ctx context.Context, phone string) (*Operator, error) {
	var op Operator
	err := p.pool.QueryRow(ctx, `
		SELECT id, username, phone, password_hash, profile_image, created_at
		FROM operators
		WHERE phone = $1
	`, phone).Scan(&op.ID, &op.Username, &op.Phone, &op.PasswordHash, &op.ProfileImage, &op.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("operator %q: %w", phone, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get operator: %w", err)
	}
	return &op, nil
}
