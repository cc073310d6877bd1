package ports

import (
	"context"

	"github.com/bnema/atlas-crm-cli/internal/domain"
)

// AuthAPI is the subset of the REST API the session lifecycle needs.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (domain.TokenPair, error)
	CurrentUser(ctx context.Context) (domain.User, error)
}

// TokenSource exposes the current credentials and lets the request layer
// rotate or clear them.
type TokenSource interface {
	Tokens() domain.TokenPair
	ReplaceTokens(ctx context.Context, pair domain.TokenPair) error
	ClearSession(ctx context.Context) error
}

// AccessTokenSource is the read-only view used by the push connection.
type AccessTokenSource interface {
	AccessToken() string
}

// Navigator is told to return the user to the login entry point after an
// unrecoverable authentication failure.
type Navigator interface {
	ToLogin(reason error)
}

type PreferencesRepository interface {
	Load(ctx context.Context) (domain.Preferences, error)
	Save(ctx context.Context, prefs domain.Preferences) error
}
