package models

import "strings"

// FridgeMate is a lightweight record for another member of the user's fridge
type FridgeMate struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
}

// FridgeSummary is the fridge the user currently has selected
type FridgeSummary struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Emails []string `json:"emails,omitempty"`
}

// UserProfile is the denormalized view of the signed-in user.
// Profiles handed out by the user cache are shared and must be treated as read-only.
type UserProfile struct {
	ID             string         `json:"id"`
	Email          string         `json:"email"`
	FirstName      *string        `json:"first_name,omitempty"`
	LastName       *string        `json:"last_name,omitempty"`
	ActiveFridgeID *string        `json:"active_fridge_id,omitempty"`
	Fridge         *FridgeSummary `json:"fridge,omitempty"`
	FridgeCount    int            `json:"fridge_count"`
	FridgeMates    []FridgeMate   `json:"fridge_mates"`
	ProfilePhoto   string         `json:"profile_photo,omitempty"`
}

// HasFridge reports whether the user has an active fridge selected
func (p *UserProfile) HasFridge() bool {
	return p != nil && p.ActiveFridgeID != nil && *p.ActiveFridgeID != ""
}

// DisplayName returns "First Last" when a name is known, otherwise the email
func (p *UserProfile) DisplayName() string {
	if p == nil {
		return ""
	}
	return displayName(p.FirstName, p.LastName, p.Email)
}

// DisplayName returns "First Last" when a name is known, otherwise the email
func (m FridgeMate) DisplayName() string {
	return displayName(m.FirstName, m.LastName, m.Email)
}

func displayName(first, last *string, email string) string {
	var parts []string
	if first != nil && strings.TrimSpace(*first) != "" {
		parts = append(parts, strings.TrimSpace(*first))
	}
	if last != nil && strings.TrimSpace(*last) != "" {
		parts = append(parts, strings.TrimSpace(*last))
	}
	if len(parts) == 0 {
		return email
	}
	return strings.Join(parts, " ")
}
