package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mediaforge/internal/domain"
)

// ErrNoJob is returned by Claim when no runnable job is due.
var ErrNoJob = errors.New("no job available")

// Job is one claimed queue row. Payload is the raw JSON handed to Enqueue.
type Job struct {
	ID       string
	Type     domain.JobType
	Payload  []byte
	Attempts int
}

// DefaultClaimLease bounds how long a claimed job may sit in running before
// another worker can reclaim it.
const DefaultClaimLease = 2 * time.Minute

// PGQueue is a PostgreSQL-backed delayed job queue. Rows survive restarts,
// run_at provides delayed scheduling, and FOR UPDATE SKIP LOCKED gives each
// job to exactly one claimer at a time. Delivery is at-least-once: a worker
// that crashes mid-job leaves its row in running, and once the claim lease
// expires the row becomes claimable again. Handlers must tolerate a
// redelivered job.
type PGQueue struct {
	pool  *pgxpool.Pool
	lease time.Duration
}

// NewPGQueue creates a queue backed by the given pool with the default
// claim lease.
func NewPGQueue(pool *pgxpool.Pool) *PGQueue {
	return &PGQueue{pool: pool, lease: DefaultClaimLease}
}

// Enqueue schedules a job to run after the given delay.
func (q *PGQueue) Enqueue(ctx context.Context, jobType domain.JobType, payload any, delay time.Duration) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode job payload: %w", err)
	}
	id := uuid.NewString()
	query := `
INSERT INTO media_jobs (id, job_type, payload, status, run_at)
VALUES ($1, $2, $3, 'queued', NOW() + $4::interval);
`
	if _, err := q.pool.Exec(ctx, query, id, jobType, body, pgInterval(delay)); err != nil {
		return "", err
	}
	return id, nil
}

// Claim marks the oldest due job as running and returns it. Running rows
// whose lease expired are claimed alongside queued ones, so a job stranded
// by a crashed worker is redelivered instead of lost. Returns ErrNoJob when
// nothing is due.
func (q *PGQueue) Claim(ctx context.Context) (*Job, error) {
	query := `
WITH next_job AS (
    SELECT id
    FROM media_jobs
    WHERE run_at <= NOW()
      AND (status = 'queued'
        OR (status = 'running' AND updated_at < NOW() - $1::interval))
    ORDER BY run_at ASC
    FOR UPDATE SKIP LOCKED
    LIMIT 1
),
claimed AS (
    UPDATE media_jobs
    SET status = 'running', attempts = attempts + 1, updated_at = NOW()
    WHERE id IN (SELECT id FROM next_job)
    RETURNING id, job_type, payload, attempts
)
SELECT id, job_type, payload, attempts FROM claimed;
`
	row := q.pool.QueryRow(ctx, query, pgInterval(q.lease))
	var j Job
	if err := row.Scan(&j.ID, &j.Type, &j.Payload, &j.Attempts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoJob
		}
		return nil, err
	}
	// Detach payload bytes from the driver's buffer.
	j.Payload = append([]byte(nil), j.Payload...)
	return &j, nil
}

// Finish marks a claimed job as done.
func (q *PGQueue) Finish(ctx context.Context, id string) error {
	_, err := q.pool.Exec(ctx, `
UPDATE media_jobs
SET status = 'done', updated_at = NOW()
WHERE id = $1;
`, id)
	return err
}

// Fail marks a claimed job as failed, recording the cause.
func (q *PGQueue) Fail(ctx context.Context, id string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	_, err := q.pool.Exec(ctx, `
UPDATE media_jobs
SET status = 'failed', last_error = $2, updated_at = NOW()
WHERE id = $1;
`, id, msg)
	return err
}

// pgInterval renders a duration as a PostgreSQL interval literal.
func pgInterval(d time.Duration) string {
	return fmt.Sprintf("%f seconds", d.Seconds())
}

var _ domain.JobQueue = (*PGQueue)(nil)
