package middleware

import (
	"strings"

	deliverycontext "locker/internal/delivery/context"
	"locker/internal/delivery/http/response"
	domainerrors "locker/internal/domain/errors"
	"locker/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// AuthMiddleware guards routes behind a live bearer access token. The
// token value is opaque; every request resolves it against the
// credential store rather than decoding anything client-side.
type AuthMiddleware struct {
	tokens usecase.TokenUsecase
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(tokens usecase.TokenUsecase) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Authenticate validates the bearer token and stores the resolved pair
// on the context for handlers to use. An expired token reports a
// distinct code so clients know a refresh may still succeed.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		if authHeader == "" {
			return response.Unauthorized(c, "UNAUTHORIZED", "Authorization header is missing")
		}

		tokenValue := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenValue == authHeader || tokenValue == "" {
			return response.Unauthorized(c, "UNAUTHORIZED", "Authorization header must carry a Bearer token")
		}

		pair, err := m.tokens.Authenticate(c.Request().Context(), tokenValue)
		if err != nil {
			if errors.Is(err, domainerrors.ErrTokenExpired) {
				return response.Unauthorized(c, "TOKEN_EXPIRED", "Access token has expired")
			}

			return response.Unauthorized(c, "UNAUTHORIZED", "Invalid access token")
		}

		deliverycontext.SetTokenPair(c, pair)

		return next(c)
	}
}
