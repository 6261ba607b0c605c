// Package domain holds the service area model stored in tenants.business.service_areas.
package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"thatsmartsite/backend/internal/platform/validate"
)

var (
	ErrDuplicate = errors.New("service area already exists")
	ErrNotFound  = errors.New("service area not found")
)

// MaxMultiplier bounds the price multiplier of an area.
const MaxMultiplier = 10

var statePattern = regexp.MustCompile(`^[A-Z]{2}$`)

// Zip is a postal code. Stored rows carry it as a string or a number; both decode.
type Zip string

func (z *Zip) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*z = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*z = Zip(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*z = Zip(n.String())
	return nil
}

// Area is one city/state a tenant serves.
type Area struct {
	City       string  `json:"city"`
	State      string  `json:"state"`
	Zip        Zip     `json:"zip,omitempty"`
	Primary    bool    `json:"primary"`
	Minimum    float64 `json:"minimum"`
	Multiplier float64 `json:"multiplier"`
}

// Input is a requested new area. Nil Minimum and Multiplier take defaults 0 and 1.0.
type Input struct {
	City       string   `json:"city"`
	State      string   `json:"state"`
	Zip        Zip      `json:"zip"`
	Minimum    *float64 `json:"minimum"`
	Multiplier *float64 `json:"multiplier"`
}

// NewArea validates in and returns the normalized Area.
func NewArea(in Input) (Area, error) {
	a := Area{
		City:       strings.TrimSpace(in.City),
		State:      strings.TrimSpace(in.State),
		Zip:        Zip(strings.TrimSpace(string(in.Zip))),
		Minimum:    0,
		Multiplier: 1.0,
	}
	if a.City == "" {
		return Area{}, validate.New("city", "city is required")
	}
	if !statePattern.MatchString(a.State) {
		return Area{}, validate.New("state", "state must be two upper-case letters")
	}
	if in.Minimum != nil {
		if *in.Minimum < 0 {
			return Area{}, validate.New("minimum", "minimum must be zero or greater")
		}
		a.Minimum = *in.Minimum
	}
	if in.Multiplier != nil {
		if *in.Multiplier < 0 || *in.Multiplier > MaxMultiplier {
			return Area{}, validate.New("multiplier", "multiplier must be between 0 and "+strconv.Itoa(MaxMultiplier))
		}
		a.Multiplier = *in.Multiplier
	}
	return a, nil
}

// Parse decodes stored service areas. Empty and null decode to no areas; malformed JSON is an error.
func Parse(raw []byte) ([]Area, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var areas []Area
	if err := json.Unmarshal(raw, &areas); err != nil {
		return nil, err
	}
	return areas, nil
}

// Same reports whether a is the area for city and state, ignoring case and surrounding space.
func (a Area) Same(city, state string) bool {
	return strings.EqualFold(strings.TrimSpace(a.City), strings.TrimSpace(city)) &&
		strings.EqualFold(strings.TrimSpace(a.State), strings.TrimSpace(state))
}

// Matches reports whether a serves the looked-up location. zip matches when equal or when the area has none.
func (a Area) Matches(city, state, zip string) bool {
	if !a.Same(city, state) {
		return false
	}
	zip = strings.TrimSpace(zip)
	return zip == "" || a.Zip == "" || string(a.Zip) == zip
}

// Slug is the location page path segment, e.g. "San Diego", "CA" -> "san-diego-ca".
// Empty when city or state is missing.
func (a Area) Slug() string {
	city, state := slugPart(a.City), slugPart(a.State)
	if city == "" || state == "" {
		return ""
	}
	return city + "-" + state
}

func slugPart(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "-")
}

// Add appends a to areas. The first area of a tenant becomes primary.
func Add(areas []Area, a Area) ([]Area, error) {
	for _, existing := range areas {
		if existing.Same(a.City, a.State) {
			return areas, ErrDuplicate
		}
	}
	if len(areas) == 0 {
		a.Primary = true
	}
	return append(areas, a), nil
}

// Remove deletes the city/state area. When the primary is removed the first remaining area is promoted.
func Remove(areas []Area, city, state string) ([]Area, error) {
	out := make([]Area, 0, len(areas))
	removedPrimary, found := false, false
	for _, a := range areas {
		if !found && a.Same(city, state) {
			found = true
			removedPrimary = a.Primary
			continue
		}
		out = append(out, a)
	}
	if !found {
		return areas, ErrNotFound
	}
	if removedPrimary && len(out) > 0 && Primary(out) == nil {
		out[0].Primary = true
	}
	return out, nil
}

// SetPrimary marks the city/state area primary and clears the flag on all others.
func SetPrimary(areas []Area, city, state string) ([]Area, error) {
	idx := -1
	for i, a := range areas {
		if a.Same(city, state) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return areas, ErrNotFound
	}
	out := make([]Area, len(areas))
	for i, a := range areas {
		a.Primary = i == idx
		out[i] = a
	}
	return out, nil
}

// Primary returns the primary area, or nil.
func Primary(areas []Area) *Area {
	for i := range areas {
		if areas[i].Primary {
			return &areas[i]
		}
	}
	return nil
}

// StateGroup is the areas of one state, ordered by city.
type StateGroup struct {
	State  string `json:"state"`
	Cities []Area `json:"cities"`
}

// GroupByState groups areas by upper-cased state, states and cities sorted alphabetically.
func GroupByState(areas []Area) []StateGroup {
	byState := map[string][]Area{}
	for _, a := range areas {
		st := strings.ToUpper(strings.TrimSpace(a.State))
		byState[st] = append(byState[st], a)
	}
	states := make([]string, 0, len(byState))
	for st := range byState {
		states = append(states, st)
	}
	sort.Strings(states)
	groups := make([]StateGroup, 0, len(states))
	for _, st := range states {
		cities := byState[st]
		sort.SliceStable(cities, func(i, j int) bool {
			return strings.ToLower(cities[i].City) < strings.ToLower(cities[j].City)
		})
		groups = append(groups, StateGroup{State: st, Cities: cities})
	}
	return groups
}
