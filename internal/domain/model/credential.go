package model

import "time"

// Credential is the persisted default connection for the Perforce server.
// At most one exists at a time; saving replaces it.
type Credential struct {
	Server  string
	User    string
	Ticket  string
	SavedAt time.Time
}

// HasTicket reports whether the credential carries a ticket.
func (c *Credential) HasTicket() bool {
	return c != nil && c.Ticket != ""
}
