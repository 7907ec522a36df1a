package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Placeholder names given to customers created from a live call before the
// caller identifies themselves.
const (
	PlaceholderInboundFirst  = "Inbound"
	PlaceholderInboundLast   = "Caller"
	PlaceholderOutboundFirst = "Outbound"
	PlaceholderOutboundLast  = "Call"
)

// Customer represents a CRM customer, unique per (phone, company).
type Customer struct {
	ID        uuid.UUID `json:"id"`
	CompanyID uuid.UUID `json:"company_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     *string   `json:"email,omitempty"`
	Phone     string    `json:"phone"` // E.164-normalized

	StreetAddress    *string `json:"street_address,omitempty"`
	City             *string `json:"city,omitempty"`
	State            *string `json:"state,omitempty"`
	ZipCode          *string `json:"zip_code,omitempty"`
	FormattedAddress *string `json:"formatted_address,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCustomer creates a customer with placeholder names for the given
// call direction.
func NewCustomer(companyID uuid.UUID, phone string, direction CallDirection) *Customer {
	now := time.Now().UTC()
	first, last := PlaceholderInboundFirst, PlaceholderInboundLast
	if direction == DirectionOutbound {
		first, last = PlaceholderOutboundFirst, PlaceholderOutboundLast
	}
	return &Customer{
		ID:        uuid.New(),
		CompanyID: companyID,
		FirstName: first,
		LastName:  last,
		Phone:     phone,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// HasPlaceholderName reports whether the customer still carries the
// auto-generated name from call creation.
func (c *Customer) HasPlaceholderName() bool {
	return (c.FirstName == PlaceholderInboundFirst && c.LastName == PlaceholderInboundLast) ||
		(c.FirstName == PlaceholderOutboundFirst && c.LastName == PlaceholderOutboundLast)
}

// fieldNeedsUpdate treats empty and the literal "none" as unset.
func fieldNeedsUpdate(current *string) bool {
	if current == nil {
		return true
	}
	v := strings.TrimSpace(strings.ToLower(*current))
	return v == "" || v == "none"
}

// isUsableValue rejects blank or "none" extraction output.
func isUsableValue(v string) bool {
	t := strings.TrimSpace(strings.ToLower(v))
	return t != "" && t != "none"
}

// Enrich applies extracted call data to the customer without clobbering
// data a human already entered. Names are only replaced while the
// placeholder is still in place or the field is effectively empty.
// Returns true if anything changed.
func (c *Customer) Enrich(data *ExtractedCallData) bool {
	if data == nil {
		return false
	}
	changed := false

	// Decide replaceability once. Setting the first name below would
	// otherwise break the placeholder pair and strand the last name.
	hadPlaceholder := c.HasPlaceholderName()

	if isUsableValue(data.FirstName) && (hadPlaceholder || strings.TrimSpace(c.FirstName) == "") {
		c.FirstName = strings.TrimSpace(data.FirstName)
		changed = true
	}
	if isUsableValue(data.LastName) && (hadPlaceholder || strings.TrimSpace(c.LastName) == "") {
		c.LastName = strings.TrimSpace(data.LastName)
		changed = true
	}
	if isUsableValue(data.Email) && fieldNeedsUpdate(c.Email) {
		v := strings.TrimSpace(data.Email)
		c.Email = &v
		changed = true
	}
	if isUsableValue(data.StreetAddress) && fieldNeedsUpdate(c.StreetAddress) {
		v := strings.TrimSpace(data.StreetAddress)
		c.StreetAddress = &v
		changed = true
	}
	if isUsableValue(data.City) && fieldNeedsUpdate(c.City) {
		v := strings.TrimSpace(data.City)
		c.City = &v
		changed = true
	}
	if isUsableValue(data.State) && fieldNeedsUpdate(c.State) {
		v := strings.TrimSpace(data.State)
		c.State = &v
		changed = true
	}
	if isUsableValue(data.ZipCode) && fieldNeedsUpdate(c.ZipCode) {
		v := strings.TrimSpace(data.ZipCode)
		c.ZipCode = &v
		changed = true
	}

	if changed {
		c.RebuildFormattedAddress()
		c.UpdatedAt = time.Now().UTC()
	}
	return changed
}

// RebuildFormattedAddress recomputes the display address from its components,
// skipping empty and "none" parts.
func (c *Customer) RebuildFormattedAddress() {
	var parts []string
	for _, p := range []*string{c.StreetAddress, c.City, c.State, c.ZipCode} {
		if p != nil && isUsableValue(*p) {
			parts = append(parts, strings.TrimSpace(*p))
		}
	}
	if len(parts) == 0 {
		c.FormattedAddress = nil
		return
	}
	formatted := strings.Join(parts, ", ")
	c.FormattedAddress = &formatted
}

// FullName returns the customer's display name.
func (c *Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}
