package echoapi

import (
	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/luct/reports/core/user"
)

const (
	contextTokenKey    = "userToken"
	contextIdentityKey = "identity"
)

// authMiddleware verifies the bearer token of the request and stores the caller's user.Identity in the context.
func authMiddleware(tokens *user.TokenIssuer) echo.MiddlewareFunc {
	verify := middleware.JWTWithConfig(middleware.JWTConfig{
		SigningKey:              tokens.SigningKey(),
		SigningMethod:           middleware.AlgorithmHS256,
		ContextKey:              contextTokenKey,
		Claims:                  new(user.Claims),
		ErrorHandlerWithContext: tokenErrorHandler,
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return verify(func(ctx echo.Context) error {
			token, ok := ctx.Get(contextTokenKey).(*jwt.Token)
			if !ok {
				return user.ErrTokenInvalid
			}
			claims, ok := token.Claims.(*user.Claims)
			if !ok {
				return user.ErrTokenInvalid
			}
			id, err := tokens.Identify(claims)
			if err != nil {
				return err
			}
			ctx.Set(contextIdentityKey, id)
			return next(ctx)
		})
	}
}

// tokenErrorHandler tells an absent or malformed Authorization header (401) apart from a token that fails verification (403).
func tokenErrorHandler(err error, ctx echo.Context) error {
	if err == middleware.ErrJWTMissing {
		if ctx.Request().Header.Get(echo.HeaderAuthorization) == "" {
			return user.ErrTokenMissing
		}
		return user.ErrTokenMalformed
	}
	return user.ErrTokenInvalid
}

// requireRoles rejects callers whose role is not one of roles. It must run after authMiddleware.
func requireRoles(roles ...user.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if err := getContextIdentity(ctx).Require(roles...); err != nil {
				return err
			}
			return next(ctx)
		}
	}
}

// getContextIdentity returns the caller, or the zero Identity on public routes.
func getContextIdentity(ctx echo.Context) user.Identity {
	id, _ := ctx.Get(contextIdentityKey).(user.Identity)
	return id
}
