package domain

import "time"

// External systems the session identity is fanned out to on login.
const (
	SystemPush      = "push"
	SystemBilling   = "billing"
	SystemAnalytics = "analytics"
)

// SyncRecord marks that this device already performed login-time
// identification of an account against one external system. Records persist
// across process restarts and are removed only by the logout cascade.
type SyncRecord struct {
	ID           string
	System       string
	AccountID    string
	IdentifiedAt time.Time
}
