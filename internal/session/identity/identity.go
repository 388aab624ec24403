// Package identity holds the narrow contracts of the external systems that
// must be told who the session belongs to, and the runner that fans calls
// out to them without letting one failure touch another.
package identity

import "context"

// Push is the push-notification system's lifecycle surface.
type Push interface {
	// Login binds the device to the account's external id.
	Login(ctx context.Context, externalID, email string) error

	// Logout unbinds the device.
	Logout(ctx context.Context) error

	// Initialized reports whether the underlying SDK finished its own boot.
	Initialized() bool

	// RequestPermission prompts for notification permission and reports
	// whether it was granted. fallbackToSettings controls whether a
	// previously denied prompt deep-links to system settings.
	RequestPermission(ctx context.Context, fallbackToSettings bool) (bool, error)
}

// Billing is the subscription system's lifecycle surface.
type Billing interface {
	SetUserID(ctx context.Context, id string) error
	LogOut(ctx context.Context) error
}

// Analytics is the product analytics system's lifecycle surface.
type Analytics interface {
	Identify(ctx context.Context, id string) error
	Reset(ctx context.Context) error
	Track(ctx context.Context, event string, props map[string]any) error
}
