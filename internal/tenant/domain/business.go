// Package domain holds the tenant (business) model and signup rules.
package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	areadomain "thatsmartsite/backend/internal/servicearea/domain"
	contentdomain "thatsmartsite/backend/internal/websitecontent/domain"
)

// Application statuses.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// ServiceAreas is the JSONB service_areas column.
type ServiceAreas []areadomain.Area

// Scan implements sql.Scanner. NULL and malformed values scan as no areas.
func (s *ServiceAreas) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*s = ServiceAreas{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("service_areas: unsupported type %T", src)
	}
	var areas ServiceAreas
	if err := json.Unmarshal(raw, &areas); err != nil || areas == nil {
		areas = ServiceAreas{}
	}
	*s = areas
	return nil
}

// Value implements driver.Valuer.
func (s ServiceAreas) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Business is one tenant row of tenants.business.
type Business struct {
	ID                int64        `json:"id"`
	Slug              string       `json:"slug"`
	BusinessName      string       `json:"business_name"`
	FirstName         string       `json:"first_name"`
	LastName          string       `json:"last_name"`
	UserID            string       `json:"user_id,omitempty"`
	BusinessPhone     string       `json:"business_phone"`
	PersonalPhone     string       `json:"personal_phone"`
	BusinessEmail     string       `json:"business_email"`
	PersonalEmail     string       `json:"personal_email"`
	Industry          string       `json:"industry"`
	ApplicationStatus string       `json:"application_status"`
	ApplicationDate   time.Time    `json:"application_date"`
	ApprovedDate      *time.Time   `json:"approved_date"`
	WebsiteDomain     string       `json:"website_domain,omitempty"`
	GBPURL            string       `json:"gbp_url,omitempty"`
	FacebookURL       string       `json:"facebook_url,omitempty"`
	InstagramURL      string       `json:"instagram_url,omitempty"`
	YoutubeURL        string       `json:"youtube_url,omitempty"`
	TiktokURL         string       `json:"tiktok_url,omitempty"`
	LogoURL           string       `json:"logo_url,omitempty"`
	ServiceAreas      ServiceAreas `json:"service_areas"`
	Notes             string       `json:"notes"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

// Detail is an approved tenant with its website content. Content is nil when none is stored.
type Detail struct {
	*Business
	Content *contentdomain.Content `json:"content"`
}

// SlugName names one approved tenant for pickers.
type SlugName struct {
	Slug string `db:"slug" json:"slug"`
	Name string `db:"name" json:"name"`
}

// IndustryCount is the number of approved tenants in one industry.
type IndustryCount struct {
	Industry string `db:"industry" json:"industry"`
	Count    int    `db:"count" json:"count"`
}
