package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mvaleed/warden/internal/domain"
	"github.com/mvaleed/warden/internal/storage"
)

// AuditRepository implements storage.AuditRepository using PostgreSQL.
type AuditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository creates a new audit repository.
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// Record appends one audit event. The database assigns the id.
func (r *AuditRepository) Record(ctx context.Context, event *domain.AuditEvent) error {
	db := getDB(ctx, r.pool)

	err := db.QueryRow(ctx, `
		INSERT INTO audit_event (principal, event_type, event_date, data)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		event.Principal,
		event.Type,
		event.Timestamp,
		event.Data,
	).Scan(&event.ID)
	return mapError(err)
}

// FindByID retrieves a single audit event.
func (r *AuditRepository) FindByID(ctx context.Context, id int64) (*domain.AuditEvent, error) {
	db := getDB(ctx, r.pool)

	var event domain.AuditEvent
	err := db.QueryRow(ctx, `
		SELECT id, principal, event_type, event_date, data
		FROM audit_event
		WHERE id = $1`, id,
	).Scan(&event.ID, &event.Principal, &event.Type, &event.Timestamp, &event.Data)
	if err != nil {
		return nil, mapError(err)
	}

	return &event, nil
}

// List retrieves one page of events ordered by timestamp descending. A nil
// from or to leaves that end of the range open.
func (r *AuditRepository) List(ctx context.Context, from, to *time.Time, page storage.PageRequest) ([]domain.AuditEvent, error) {
	db := getDB(ctx, r.pool)

	rows, err := db.Query(ctx, `
		SELECT id, principal, event_type, event_date, data
		FROM audit_event
		WHERE ($1::timestamptz IS NULL OR event_date >= $1)
		  AND ($2::timestamptz IS NULL OR event_date < $2)
		ORDER BY event_date DESC, id DESC
		LIMIT $3 OFFSET $4`,
		from, to, page.Limit(), page.Offset())
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var events []domain.AuditEvent
	for rows.Next() {
		var event domain.AuditEvent
		if err := rows.Scan(&event.ID, &event.Principal, &event.Type, &event.Timestamp, &event.Data); err != nil {
			return nil, mapError(err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return events, nil
}
