package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const jobColumns = `
	j.id, j.product_id, j.machine_id, j.state, j.stage, j.quantity,
	j.created_at, j.updated_at, pr.name, m.name
`

func scanJob(row pgx.Row) (*Job, error) {
	var j Job
	err := row.Scan(
		&j.ID, &j.ProductID, &j.MachineID, &j.State, &j.Stage, &j.Quantity,
		&j.CreatedAt, &j.UpdatedAt, &j.ProductName, &j.MachineName,
	)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// GetJobByID loads one job with product and machine names joined.
func (p *PostgresClient) GetJobByID(ctx context.Context, jobID int64) (*Job, error) {
	j, err := scanJob(p.pool.QueryRow(ctx, `
		SELECT `+jobColumns+`
		FROM jobs j
		JOIN products pr ON pr.id = j.product_id
		JOIN machines m ON m.id = j.machine_id
		WHERE j.id = $1
	`, jobID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("job %d: %w", jobID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return j, nil
}

// ListJobsByProduct returns the full history for one product, ordered by
// created_at ascending (ties by id) so sequence position is deterministic.
func (p *PostgresClient) ListJobsByProduct(ctx context.Context, productID int64) ([]Job, error) {
	return p.queryJobs(ctx, `
		SELECT `+jobColumns+`
		FROM jobs j
		JOIN products pr ON pr.id = j.product_id
		JOIN machines m ON m.id = j.machine_id
		WHERE j.product_id = $1
		ORDER BY j.created_at ASC, j.id ASC
	`, productID)
}

// ListAllJobs returns every job with names joined, newest first. The
// listing projections reduce this to the latest job per product.
func (p *PostgresClient) ListAllJobs(ctx context.Context) ([]Job, error) {
	return p.queryJobs(ctx, `
		SELECT `+jobColumns+`
		FROM jobs j
		JOIN products pr ON pr.id = j.product_id
		JOIN machines m ON m.id = j.machine_id
		ORDER BY j.created_at DESC, j.id DESC
	`)
}

func (p *PostgresClient) queryJobs(ctx context.Context, sql string, args ...any) ([]Job, error) {
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]Job, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}

// CreateOnJob appends an ON transition row for a product on a machine and
// flips the machine status to ON in the same transaction.
func (p *PostgresClient) CreateOnJob(ctx context.Context, productID, machineID int64, stage string, quantity int) (*Job, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var jobID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO jobs (product_id, machine_id, state, stage, quantity)
		VALUES ($1, $2, 'ON', $3, $4)
		RETURNING id
	`, productID, machineID, stage, quantity).Scan(&jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert job: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE machines SET status = 'ON', updated_at = NOW() WHERE id = $1
	`, machineID)
	if err != nil {
		return nil, fmt.Errorf("failed to update machine status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	return p.GetJobByID(ctx, jobID)
}

// MoveJobToPast flips one ON job to OFF, archives the product's
// finished-goods updates and sets the machine status to OFF, all inside a
// single serializable transaction so the check-and-mutate sequence cannot
// interleave with a concurrent transition on the same product.
func (p *PostgresClient) MoveJobToPast(ctx context.Context, jobID int64) (*Job, error) {
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	job, err := scanJob(tx.QueryRow(ctx, `
		SELECT `+jobColumns+`
		FROM jobs j
		JOIN products pr ON pr.id = j.product_id
		JOIN machines m ON m.id = j.machine_id
		WHERE j.id = $1
		FOR UPDATE OF j
	`, jobID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("job %d: %w", jobID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load job: %w", err)
	}

	if job.State != "ON" {
		return nil, fmt.Errorf("job %d: %w", jobID, ErrNotLive)
	}

	err = tx.QueryRow(ctx, `
		UPDATE jobs SET state = 'OFF', updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, jobID).Scan(&job.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update job state: %w", err)
	}
	job.State = "OFF"

	_, err = tx.Exec(ctx, `
		UPDATE operator_product_updates
		SET archived = true
		WHERE product = $1 AND archived = false
	`, job.ProductName)
	if err != nil {
		return nil, fmt.Errorf("failed to archive product updates: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE machines SET status = 'OFF', updated_at = NOW() WHERE id = $1
	`, job.MachineID)
	if err != nil {
		return nil, fmt.Errorf("failed to update machine status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transition: %w", err)
	}

	return job, nil
}
