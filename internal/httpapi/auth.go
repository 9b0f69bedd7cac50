package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/localsearch/simulator/internal/simconfig"
	"github.com/localsearch/simulator/internal/simerrors"
)

// AccessLevel is one of the four access tiers §6.1 names, ordered from
// least to most privileged so a handler's requirement can be checked
// with a single comparison.
type AccessLevel int

const (
	LevelDataReader AccessLevel = iota
	LevelDataContributor
	LevelServiceContributor
	LevelFullAccess
)

// roleLevels maps an Entra ID app role name to the access level it
// grants, per §6.1's two-mode authentication model.
var roleLevels = map[string]AccessLevel{
	"Search Index Data Reader":      LevelDataReader,
	"Search Index Data Contributor": LevelDataContributor,
	"Search Service Contributor":    LevelServiceContributor,
	"Owner":                         LevelFullAccess,
}

type principalKey struct{}

// principal is the authenticated caller attached to the request context.
type principal struct {
	level AccessLevel
}

// authenticator validates api-key or bearer-JWT credentials against the
// configured authentication modes and resolves the caller's access level.
type authenticator struct {
	cfg *simconfig.Config
}

func newAuthenticator(cfg *simconfig.Config) *authenticator {
	return &authenticator{cfg: cfg}
}

func (a *authenticator) modeEnabled(mode string) bool {
	for _, m := range a.cfg.Authentication.EnabledModes {
		if strings.EqualFold(m, mode) {
			return true
		}
	}
	return false
}

// authenticate resolves the caller's principal from the request's
// api-key header/query param or bearer token. Returns a SimError of kind
// AuthFailure when no configured mode accepts the credentials presented.
func (a *authenticator) authenticate(r *http.Request) (*principal, error) {
	if key := apiKeyFrom(r); key != "" && a.modeEnabled("apiKey") {
		switch {
		case a.cfg.Authentication.APIKey.AdminAPIKey != "" && key == a.cfg.Authentication.APIKey.AdminAPIKey:
			return &principal{level: LevelFullAccess}, nil
		case a.cfg.Authentication.APIKey.QueryAPIKey != "" && key == a.cfg.Authentication.APIKey.QueryAPIKey:
			return &principal{level: LevelDataReader}, nil
		default:
			return nil, simerrors.NewAuthFailure("api-key did not match the configured admin or query key", nil)
		}
	}

	if token := bearerTokenFrom(r); token != "" && a.modeEnabled("oidc") {
		return a.authenticateBearer(token)
	}

	if len(a.cfg.Authentication.EnabledModes) == 0 {
		// no authentication configured: every caller is trusted as full access,
		// matching a local development default.
		return &principal{level: LevelFullAccess}, nil
	}

	return nil, simerrors.NewAuthFailure("no api-key header/query param or bearer token presented", nil)
}

func (a *authenticator) authenticateBearer(tokenString string) (*principal, error) {
	if len(a.cfg.Simulated.SigningKey) < 32 {
		return nil, simerrors.NewConfiguration("simulated.signing_key is not configured for bearer-token validation", nil)
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}))
	_, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return []byte(a.cfg.Simulated.SigningKey), nil
	})
	if err != nil {
		return nil, simerrors.NewAuthFailure("bearer token is invalid or expired", err)
	}

	if aud := a.cfg.EntraID.Audience; aud != "" {
		if !claims.VerifyAudience(aud, true) {
			return nil, simerrors.NewAuthFailure("bearer token audience does not match the configured audience", nil)
		}
	}
	if tenant := a.cfg.EntraID.TenantID; tenant != "" {
		if iss, _ := claims["tid"].(string); iss != tenant {
			return nil, simerrors.NewAuthFailure("bearer token tenant does not match the configured tenant", nil)
		}
	}

	level := LevelDataReader
	if roles, ok := claims["roles"].([]any); ok {
		for _, r := range roles {
			name, _ := r.(string)
			if lvl, ok := roleLevels[name]; ok && lvl > level {
				level = lvl
			}
		}
	}
	return &principal{level: level}, nil
}

func apiKeyFrom(r *http.Request) string {
	if v := r.Header.Get("api-key"); v != "" {
		return v
	}
	return r.URL.Query().Get("api-key")
}

func bearerTokenFrom(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if strings.HasPrefix(h, prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}

// requireLevel wraps a handler so it only runs once the caller has
// authenticated at minLevel or above, writing a 401/403 SimError response
// otherwise.
func (s *Server) requireLevel(minLevel AccessLevel, handler func(w http.ResponseWriter, r *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := s.auth.authenticate(r)
		if err != nil {
			writeError(w, err)
			return
		}
		if p.level < minLevel {
			forbidden := simerrors.NewAuthFailure("caller's access level is insufficient for this operation", nil)
			forbidden.HTTPStatus = http.StatusForbidden
			writeError(w, forbidden)
			return
		}
		ctx := context.WithValue(r.Context(), principalKey{}, p)
		handler(w, r.WithContext(ctx))
	}
}
