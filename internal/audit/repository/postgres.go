package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"thatsmartsite/backend/internal/audit/domain"
)

type auditRow struct {
	ID        string         `db:"id"`
	TenantID  string         `db:"tenant_id"`
	UserID    sql.NullString `db:"user_id"`
	Action    string         `db:"action"`
	Resource  string         `db:"resource"`
	IP        string         `db:"ip"`
	Metadata  sql.NullString `db:"metadata"`
	CreatedAt time.Time      `db:"created_at"`
}

type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository returns an audit log repository that uses the given db for persistence.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the audit log. The audit log must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO audit.logs (id, tenant_id, user_id, action, resource, ip, metadata, created_at)
		 VALUES (:id, :tenant_id, :user_id, :action, :resource, :ip, :metadata, :created_at)`,
		auditRow{
			ID:        a.ID,
			TenantID:  a.TenantID,
			UserID:    sql.NullString{String: a.UserID, Valid: a.UserID != ""},
			Action:    a.Action,
			Resource:  a.Resource,
			IP:        a.IP,
			Metadata:  sql.NullString{String: a.Metadata, Valid: a.Metadata != ""},
			CreatedAt: a.CreatedAt,
		})
	return err
}

// ListByTenant returns audit logs newest first, paginated by limit and offset.
// Returns (nil, error) only on database errors.
func (r *PostgresRepository) ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*domain.AuditLog, error) {
	var rows []auditRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT id, tenant_id, user_id, action, resource, ip, metadata, created_at
		 FROM audit.logs
		 WHERE ($1 = '' OR tenant_id = $1)
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.AuditLog, len(rows))
	for i := range rows {
		out[i] = &domain.AuditLog{
			ID:        rows[i].ID,
			TenantID:  rows[i].TenantID,
			UserID:    rows[i].UserID.String,
			Action:    rows[i].Action,
			Resource:  rows[i].Resource,
			IP:        rows[i].IP,
			Metadata:  rows[i].Metadata.String,
			CreatedAt: rows[i].CreatedAt,
		}
	}
	return out, nil
}
