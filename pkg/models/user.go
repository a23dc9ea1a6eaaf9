package models

import "strings"

// EmergencyContact is the single notification target attached to a user profile.
type EmergencyContact struct {
	Name         string `json:"name" example:"Jordan Smith"`
	Phone        string `json:"phone" example:"+15555550123"`
	Relationship string `json:"relationship,omitempty" example:"sibling"`
	IsActive     bool   `json:"is_active"`
}

// Usable reports whether alerts can be delivered to this contact.
func (c *EmergencyContact) Usable() bool {
	return c != nil && c.IsActive && strings.TrimSpace(c.Phone) != ""
}

// User is the subset of a user profile the emergency subsystem reads.
type User struct {
	ID        string            `json:"id"`
	FirstName string            `json:"first_name"`
	LastName  string            `json:"last_name"`
	Contact   *EmergencyContact `json:"emergency_contact,omitempty"`
}

// DisplayName returns "First Last", trimmed when either part is missing.
func (u *User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
