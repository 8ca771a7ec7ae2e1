package cli

import (
	"github.com/google/uuid"

	billingApp "github.com/fernhq/fern/internal/billing/application"
	entitlementApp "github.com/fernhq/fern/internal/entitlement/application"
	"github.com/fernhq/fern/internal/entitlement/cache"
)

// App holds the CLI application dependencies.
type App struct {
	EntitlementService *entitlementApp.Service
	BillingService     *billingApp.Service

	// SnapshotCache is the device-local hint cache, populated lazily.
	SnapshotCache *cache.Cache

	// Current user (configured per environment)
	CurrentUserID uuid.UUID
}

// NewApp creates a new CLI application with the provided services.
func NewApp(entitlement *entitlementApp.Service, billing *billingApp.Service) *App {
	return &App{
		EntitlementService: entitlement,
		BillingService:     billing,
		CurrentUserID:      uuid.Nil,
	}
}

// SetCurrentUserID updates the current user ID.
func (a *App) SetCurrentUserID(id uuid.UUID) {
	a.CurrentUserID = id
}

// SetSnapshotCache updates the local snapshot cache.
func (a *App) SetSnapshotCache(c *cache.Cache) {
	a.SnapshotCache = c
}

// app is the global CLI application instance
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}
