package identity

import (
	"context"
	"log/slog"
)

// Logging adapters used by the demo CLI and by environments where a real SDK
// is not linked in. They record each lifecycle call and report permission as
// never granted.

type LoggingPush struct {
	Logger *slog.Logger
}

func (p *LoggingPush) Login(ctx context.Context, externalID, email string) error {
	p.Logger.Info("push login", "external_id", externalID, "email", email)
	return nil
}

func (p *LoggingPush) Logout(ctx context.Context) error {
	p.Logger.Info("push logout")
	return nil
}

func (p *LoggingPush) Initialized() bool { return true }

func (p *LoggingPush) RequestPermission(ctx context.Context, fallbackToSettings bool) (bool, error) {
	p.Logger.Info("push permission requested", "fallback_to_settings", fallbackToSettings)
	return false, nil
}

type LoggingBilling struct {
	Logger *slog.Logger
}

func (b *LoggingBilling) SetUserID(ctx context.Context, id string) error {
	b.Logger.Info("billing identified", "user_id", id)
	return nil
}

func (b *LoggingBilling) LogOut(ctx context.Context) error {
	b.Logger.Info("billing logged out")
	return nil
}

type LoggingAnalytics struct {
	Logger *slog.Logger
}

func (a *LoggingAnalytics) Identify(ctx context.Context, id string) error {
	a.Logger.Info("analytics identified", "user_id", id)
	return nil
}

func (a *LoggingAnalytics) Reset(ctx context.Context) error {
	a.Logger.Info("analytics reset")
	return nil
}

func (a *LoggingAnalytics) Track(ctx context.Context, event string, props map[string]any) error {
	a.Logger.Info("analytics event", "event", event, "props", props)
	return nil
}
