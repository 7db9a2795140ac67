// Package access implements the Access Gate (C5): given a resolved user
// and an optional client id, decides whether the request is SSO-only or
// bound to a specific application, and enforces that application's
// permission grant.
package access

import (
	"context"
	"fmt"

	"github.com/arga-sso/ssoauthority/internal/db"
	"github.com/arga-sso/ssoauthority/internal/errors"
	"github.com/arga-sso/ssoauthority/internal/models"
)

// Decision is the outcome of a gate check for one (user, client_id) pair.
type Decision struct {
	// SSOOnly is true when no client_id was supplied; the caller skips
	// app-session creation entirely.
	SSOOnly bool

	// Application is nil when SSOOnly is true.
	Application *models.Application
}

// Gate implements C5.
type Gate struct {
	applications *db.ApplicationStore
}

// NewGate builds a Gate.
func NewGate(applications *db.ApplicationStore) *Gate {
	return &Gate{applications: applications}
}

// Check resolves clientCode against the application registry and the
// user's grants. An empty clientCode is always SSO-only.
func (g *Gate) Check(ctx context.Context, userID, clientCode string) (Decision, error) {
	if clientCode == "" {
		return Decision{SSOOnly: true}, nil
	}

	app, err := g.applications.GetByCode(ctx, clientCode)
	if err != nil {
		return Decision{}, fmt.Errorf("access gate: lookup application: %w", err)
	}
	if app == nil || !app.Active {
		return Decision{}, errors.AppNotFound(clientCode)
	}

	granted, err := g.applications.UserHasApplication(ctx, userID, app.ID)
	if err != nil {
		return Decision{}, fmt.Errorf("access gate: check grant: %w", err)
	}
	if !granted {
		return Decision{}, errors.AppNotPermitted(clientCode)
	}

	return Decision{SSOOnly: false, Application: app}, nil
}
