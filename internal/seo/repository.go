package seo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Tenant is the business matched to a sitemap host.
type Tenant struct {
	ID           int64
	Slug         string
	BusinessName string
	Locations    []Location
}

// TenantSource finds the tenant whose site is served on a host. It returns (nil, nil) when none matches.
type TenantSource interface {
	TenantForHost(ctx context.Context, host string) (*Tenant, error)
}

// PostgresTenantSource reads tenants.business.
type PostgresTenantSource struct {
	db *sqlx.DB
}

// NewPostgresTenantSource returns a TenantSource backed by db.
func NewPostgresTenantSource(db *sqlx.DB) *PostgresTenantSource {
	return &PostgresTenantSource{db: db}
}

// A host matches its custom domain, any host containing the slug, or a first label equal
// to the slug. The most recently approved business wins.
const tenantForHostQuery = `
SELECT id, slug, business_name, service_areas::text AS service_areas
FROM tenants.business
WHERE website_domain = $1
   OR $1 LIKE '%' || slug || '%'
   OR slug = $2
ORDER BY approved_date DESC NULLS LAST
LIMIT 1`

type hostTenantRow struct {
	ID           int64          `db:"id"`
	Slug         string         `db:"slug"`
	BusinessName string         `db:"business_name"`
	ServiceAreas sql.NullString `db:"service_areas"`
}

// TenantForHost implements TenantSource. service_areas is decoded leniently; see ParseLocations.
func (s *PostgresTenantSource) TenantForHost(ctx context.Context, host string) (*Tenant, error) {
	h := lookupHost(host)
	var row hostTenantRow
	err := s.db.GetContext(ctx, &row, tenantForHostQuery, h, firstLabel(h))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("seo: tenant for host: %w", err)
	}
	t := &Tenant{ID: row.ID, Slug: row.Slug, BusinessName: row.BusinessName}
	if row.ServiceAreas.Valid {
		t.Locations = ParseLocations([]byte(row.ServiceAreas.String))
	}
	return t, nil
}
