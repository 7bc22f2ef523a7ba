/**
 * @description
 * Communication log store: bounded append-only record of notification
 * dispatch attempts, consumed by the dashboard for audit and metrics.
 */
package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JhonatanGabrelTI/Iaudit.alanturing.com/internal/domain"
)

// Retention cap: only the newest entries are kept; older ones are dropped
// transparently on insert so writes never block on store size.
const commLogRetention = 500

// CommRepository handles database operations for the communication log.
type CommRepository struct {
	db *pgxpool.Pool
}

// NewCommRepository creates a new communication log repository.
func NewCommRepository(db *pgxpool.Pool) *CommRepository {
	return &CommRepository{db: db}
}

// InsertCommLogEntry appends one entry and trims the log to the retention
// cap. The trim runs best-effort after the insert; the cap is advisory, not
// transactional.
func (r *CommRepository) InsertCommLogEntry(ctx context.Context, entry domain.CommunicationLogEntry) error {
	insert := `
        INSERT INTO communication_logs (
            id, created_at, channel, recipient, subject, content, status, error_message
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `
	_, err := r.db.Exec(ctx, insert,
		entry.ID, entry.Timestamp, entry.Channel, entry.Recipient,
		entry.Subject, entry.Content, entry.Status, entry.ErrorMessage)
	if err != nil {
		return err
	}

	trim := `
        DELETE FROM communication_logs
        WHERE id NOT IN (
            SELECT id FROM communication_logs ORDER BY created_at DESC LIMIT $1
        )
    `
	_, _ = r.db.Exec(ctx, trim, commLogRetention)
	return nil
}

// ListCommLogEntries returns entries newest first, optionally filtered by
// channel and/or status. Empty filter values match everything.
func (r *CommRepository) ListCommLogEntries(ctx context.Context, channel, status string) ([]domain.CommunicationLogEntry, error) {
	query := `
        SELECT id, created_at, channel, recipient,
               COALESCE(subject, ''), content, status, COALESCE(error_message, '')
        FROM communication_logs
        WHERE ($1 = '' OR channel = $1)
          AND ($2 = '' OR status = $2)
        ORDER BY created_at DESC
        LIMIT $3
    `
	rows, err := r.db.Query(ctx, query, channel, status, commLogRetention)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.CommunicationLogEntry
	for rows.Next() {
		var e domain.CommunicationLogEntry
		err := rows.Scan(&e.ID, &e.Timestamp, &e.Channel, &e.Recipient,
			&e.Subject, &e.Content, &e.Status, &e.ErrorMessage)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CommStats aggregates delivery outcomes for the dashboard.
func (r *CommRepository) CommStats(ctx context.Context) (domain.CommStats, error) {
	query := `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE status = 'sent'),
               COUNT(*) FILTER (WHERE status = 'failed')
        FROM communication_logs
    `
	var stats domain.CommStats
	if err := r.db.QueryRow(ctx, query).Scan(&stats.Total, &stats.Sent, &stats.Failed); err != nil {
		return domain.CommStats{}, err
	}

	if attempted := stats.Sent + stats.Failed; attempted > 0 {
		stats.SuccessRate = float64(stats.Sent) / float64(attempted) * 100
	}
	return stats, nil
}
