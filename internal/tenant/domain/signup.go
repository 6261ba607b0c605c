package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"thatsmartsite/backend/internal/platform/validate"
)

// DefaultIndustry is used when a signup names none.
const DefaultIndustry = "mobile-detailing"

// Text accepts a JSON string or number.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*t = Text(n.String())
	return nil
}

// Address is the business address collected at signup.
type Address struct {
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     Text   `json:"zip"`
}

// SignupInput is the body of POST /api/tenants/signup.
type SignupInput struct {
	FirstName       string  `json:"firstName"`
	LastName        string  `json:"lastName"`
	PersonalPhone   string  `json:"personalPhone"`
	PersonalEmail   string  `json:"personalEmail"`
	BusinessName    string  `json:"businessName"`
	BusinessPhone   string  `json:"businessPhone"`
	BusinessEmail   string  `json:"businessEmail"`
	BusinessAddress Address `json:"businessAddress"`
	SelectedPlan    string  `json:"selectedPlan"`
	PlanPrice       Text    `json:"planPrice"`
	Industry        string  `json:"industry"`
}

// Normalize trims fields, lower-cases emails, upper-cases two-letter states and fills the default industry.
func (in *SignupInput) Normalize() {
	for _, p := range []*string{&in.FirstName, &in.LastName, &in.PersonalPhone, &in.BusinessName,
		&in.BusinessPhone, &in.SelectedPlan, &in.BusinessAddress.Address, &in.BusinessAddress.City} {
		*p = strings.TrimSpace(*p)
	}
	in.PersonalEmail = strings.ToLower(strings.TrimSpace(in.PersonalEmail))
	in.BusinessEmail = strings.ToLower(strings.TrimSpace(in.BusinessEmail))
	in.BusinessAddress.State = strings.TrimSpace(in.BusinessAddress.State)
	if len(in.BusinessAddress.State) == 2 {
		in.BusinessAddress.State = strings.ToUpper(in.BusinessAddress.State)
	}
	in.BusinessAddress.Zip = Text(strings.TrimSpace(string(in.BusinessAddress.Zip)))
	in.Industry = strings.ToLower(strings.TrimSpace(in.Industry))
	if in.Industry == "" {
		in.Industry = DefaultIndustry
	}
}

// Validate checks required fields and email formats. Call Normalize first.
func (in *SignupInput) Validate() error {
	if err := validate.Required(
		"firstName", in.FirstName,
		"lastName", in.LastName,
		"personalEmail", in.PersonalEmail,
		"businessName", in.BusinessName,
		"businessPhone", in.BusinessPhone,
	); err != nil {
		v, _ := validate.As(err)
		return validate.New(v.Field, "Missing required fields")
	}
	if !validate.Email(in.PersonalEmail) {
		return validate.New("personalEmail", "Invalid email format")
	}
	if in.BusinessEmail != "" && !validate.Email(in.BusinessEmail) {
		return validate.New("businessEmail", "Invalid business email format")
	}
	if GenerateSlug(in.BusinessName) == "" {
		return validate.New("businessName", "Business name must contain letters or digits")
	}
	return nil
}

// ContactEmail is the business email, or the personal one when none was given.
func (in *SignupInput) ContactEmail() string {
	if in.BusinessEmail != "" {
		return in.BusinessEmail
	}
	return in.PersonalEmail
}

// Notes is the free-text note stored on the business row.
func (in *SignupInput) Notes() string {
	a := in.BusinessAddress
	return fmt.Sprintf("Plan: %s ($%s/month)\nAddress: %s, %s, %s %s",
		in.SelectedPlan, in.PlanPrice, a.Address, a.City, a.State, a.Zip)
}

// SignupResult is returned by a successful signup.
type SignupResult struct {
	TenantID     int64  `json:"tenantId"`
	Slug         string `json:"slug"`
	UserID       string `json:"userId"`
	WebsiteURL   string `json:"websiteUrl"`
	DashboardURL string `json:"dashboardUrl"`
}

// NewSignupResult builds the result URLs from slug.
func NewSignupResult(tenantID int64, slug, userID string) *SignupResult {
	return &SignupResult{
		TenantID:     tenantID,
		Slug:         slug,
		UserID:       userID,
		WebsiteURL:   "/" + slug,
		DashboardURL: "/" + slug + "/dashboard",
	}
}
