package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/opensource-kemini/kemini-backend/internal/logging"
	"github.com/opensource-kemini/kemini-backend/internal/server/auth"
)

// AuthHeaderKey is the single designated header carrying the bearer token.
const AuthHeaderKey = "X-Authenticated-User-Email"

const bearerPrefix = "Bearer "

// AuthenticationGate intercepts every request before resource logic runs.
//
// No header, or a header without the bearer prefix, lets the request proceed
// anonymously; route-level policy rejects it later if authentication is
// required. A present token is first checked online with the identity
// provider, which is the one check that catches revoked-but-unexpired tokens,
// and a failed check ends the request with 401 right here. After a successful
// online check the claims are decoded locally; a decode failure downgrades
// the request to anonymous rather than failing it.
func AuthenticationGate(verifier auth.TokenVerifier, logger logging.Logger) echo.MiddlewareFunc {
	log := logger.With("module", "auth_gate")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(AuthHeaderKey)
			if !strings.HasPrefix(header, bearerPrefix) {
				return next(c)
			}

			token := strings.TrimPrefix(header, bearerPrefix)
			ctx := c.Request().Context()

			if !verifier.Verify(ctx, token) {
				log.Warn(ctx, "online token validation failed")
				return c.JSON(http.StatusUnauthorized,
					errorResponse("TOKEN_INVALID", "token is invalid or expired, please sign in again"))
			}

			subject, err := auth.SubjectFromToken(token)
			if err != nil {
				// proceed as anonymous; resource-level checks remain the gatekeeper
				log.Warn(ctx, "token claims decode failed", "error", err.Error())
				return next(c)
			}

			setPrincipal(c, Principal{Email: subject, Roles: []string{RoleUser}})
			return next(c)
		}
	}
}

// RequireAuth rejects requests that reached a protected route without a
// principal.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := CurrentPrincipal(c); !ok {
				return c.JSON(http.StatusUnauthorized,
					errorResponse("TOKEN_INVALID", "authentication required"))
			}
			return next(c)
		}
	}
}

// RequestLogger logs one line per request with a correlation id. The id is
// taken from the caller's X-Request-Id header when present, generated
// otherwise, and always echoed back on the response so log lines can be
// matched to client-side traces.
func RequestLogger(logger logging.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			requestID := c.Request().Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, requestID)

			err := next(c)

			logger.Info(c.Request().Context(), "http request",
				"request_id", requestID,
				"method", c.Request().Method,
				"uri", c.Request().RequestURI,
				"status", c.Response().Status,
				"duration", time.Since(start).String(),
			)
			return err
		}
	}
}
