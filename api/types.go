package api

import (
	"context"
	"net/http"

	"opsboard/board"
	"opsboard/domain"
)

// Board exposes the published worklist view.
type Board interface {
	Ensure(ctx context.Context) (*board.View, error)
	Reload(ctx context.Context) (*board.View, error)
}

// RowWriter writes persisted task rows to the record store.
type RowWriter interface {
	CreateRow(ctx context.Context, table int, fields map[string]any) (domain.Row, error)
	UpdateRow(ctx context.Context, table, rowID int, fields map[string]any) (domain.Row, error)
}

// SettingsStore reads and writes dashboard settings.
type SettingsStore interface {
	FetchSettings(ctx context.Context, userID string) (domain.Settings, error)
	SaveSettings(ctx context.Context, userID string, s domain.Settings) error
}

// Refresher schedules a background reload without blocking.
type Refresher interface {
	Trigger() bool
}

// Authenticator resolves the session owner of a request.
type Authenticator interface {
	UserIDFromRequest(r *http.Request) (string, error)
}

// Deduper prevents processing of duplicate commands.
type Deduper interface {
	// Add records the idempotency key and returns true if it was newly added.
	Add(ctx context.Context, userID, key string) (bool, error)
	// Remove deletes a previously added key, used when downstream processing fails.
	Remove(ctx context.Context, userID, key string) error
}
