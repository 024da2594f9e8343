package models

import "time"

// Preferences are the UI preferences persisted across sessions.
type Preferences struct {
	SidebarCollapsed bool `json:"sidebar_collapsed"`
}

// SessionState is the persisted application context of one signed-in session.
type SessionState struct {
	Token       string      `json:"token"`
	Profile     *Profile    `json:"profile,omitempty"`
	Preferences Preferences `json:"preferences"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
