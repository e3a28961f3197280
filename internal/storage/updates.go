package storage

import (
	"context"
	"fmt"
	"time"
)

// ListRecentUpdates returns the newest finished-goods ledger entries,
// capped at limit. Feeds the combined live/finished dropdown.
func (p *PostgresClient) ListRecentUpdates(ctx context.Context, limit int) ([]OperatorProductUpdate, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, product, quantity, dispatch_status, archived, process_steps, created_at
		FROM operator_product_updates
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list product updates: %w", err)
	}
	defer rows.Close()

	updates := make([]OperatorProductUpdate, 0)
	for rows.Next() {
		var u OperatorProductUpdate
		err := rows.Scan(&u.ID, &u.Product, &u.Quantity, &u.DispatchStatus,
			&u.Archived, &u.ProcessSteps, &u.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product update: %w", err)
		}
		updates = append(updates, u)
	}
	return updates, rows.Err()
}

// ListPendingDispatches returns non-archived entries with dispatch status
// Pending inside [start, end], newest first. Source rows for the dispatch
// report.
func (p *PostgresClient) ListPendingDispatches(ctx context.Context, start, end time.Time) ([]OperatorProductUpdate, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, product, quantity, dispatch_status, archived, process_steps, created_at
		FROM operator_product_updates
		WHERE created_at >= $1 AND created_at <= $2
		  AND dispatch_status = 'Pending'
		  AND archived = false
		ORDER BY created_at DESC
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending dispatches: %w", err)
	}
	defer rows.Close()

	updates := make([]OperatorProductUpdate, 0)
	for rows.Next() {
		var u OperatorProductUpdate
		err := rows.Scan(&u.ID, &u.Product, &u.Quantity, &u.DispatchStatus,
			&u.Archived, &u.ProcessSteps, &u.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pending dispatch: %w", err)
		}
		updates = append(updates, u)
	}
	return updates, rows.Err()
}

// CreateReportDownload logs that a report artifact was generated.
func (p *PostgresClient) CreateReportDownload(ctx context.Context, reportName string) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO report_downloads (report_name) VALUES ($1)
	`, reportName)
	if err != nil {
		return fmt.Errorf("failed to log report download: %w", err)
	}
	return nil
}
