package cmd

import (
	"time"

	"github.com/bnema/atlas-crm-cli/internal/adapters/render/views"
	"github.com/bnema/atlas-crm-cli/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
)

// accessClaims are the fields of an access token worth showing. The
// signature is never checked on the client.
type accessClaims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

type sessionOutput struct {
	Authenticated bool         `json:"authenticated"`
	User          *domain.User `json:"user,omitempty"`
	Subject       string       `json:"subject,omitempty"`
	TokenType     string       `json:"token_type,omitempty"`
	ExpiresAt     *time.Time   `json:"expires_at,omitempty"`
	Backend       string       `json:"backend"`
}

func newSessionCmd(holder *appHolder) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:     "session",
		Aliases: []string{"whoami"},
		Short:   "Show the current user and token details",
		RunE: withApp(holder, func(cmd *cobra.Command, app *app, _ []string) error {
			if app.session.IsAuthenticated() && !offline {
				if err := fetch(cmd, "Loading session...", app.session.Init); err != nil {
					return err
				}
			}

			info := sessionInfo(app)
			out := sessionOutput{
				Authenticated: info.Authenticated,
				User:          info.User,
				Subject:       info.Subject,
				TokenType:     info.TokenType,
				Backend:       info.Backend,
			}
			if !info.ExpiresAt.IsZero() {
				expires := info.ExpiresAt
				out.ExpiresAt = &expires
			}

			return writeOutput(cmd, app, out, func(opts views.Options) string {
				return views.Session(info, opts)
			})
		}),
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Only decode the stored token, do not contact the server")
	addJSONFlag(cmd)

	return cmd
}

func sessionInfo(app *app) views.SessionInfo {
	snapshot := app.session.Snapshot()
	info := views.SessionInfo{
		Authenticated: snapshot.Authenticated(),
		User:          snapshot.CurrentUser,
		Backend:       app.cfg.StorageBackend,
	}
	if !info.Authenticated {
		return info
	}

	claims, ok := parseAccessClaims(snapshot.Tokens.AccessToken)
	if !ok {
		return info
	}
	info.Subject = claims.Subject
	info.TokenType = claims.Type
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info
}

func parseAccessClaims(token string) (accessClaims, bool) {
	claims := accessClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return accessClaims{}, false
	}
	return claims, true
}
