// Package domain contains core concepts of the collaboration system.
// No runtime, network, or UI logic should be added here.
package domain

// Participant is an authenticated identity attached to one connection.
// ConnID distinguishes two tabs of the same user: presence, locks and
// cleanup are all keyed by connection, not by account.
type Participant struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	ConnID string `json:"connId"`
}

// Elevated roles may open any document regardless of ownership.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)
