package httpapi

import "github.com/labstack/echo/v4"

// RoleUser is the single fixed authority every authenticated principal holds.
const RoleUser = "ROLE_USER"

// principalKey is the echo-context key holding the request's principal.
// The echo context is per request, so the principal is never visible to any
// other concurrent request.
const principalKey = "authenticated_principal"

// Principal is the authenticated identity for exactly one request. It is
// built by the authentication gate and discarded when the request ends; it is
// never persisted or shared across requests.
type Principal struct {
	Email string
	Roles []string
}

func setPrincipal(c echo.Context, p Principal) {
	c.Set(principalKey, p)
}

// CurrentPrincipal returns the request's principal, if the gate attached one.
func CurrentPrincipal(c echo.Context) (Principal, bool) {
	p, ok := c.Get(principalKey).(Principal)
	return p, ok
}
