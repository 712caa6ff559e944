// Package handler contains the HTTP handlers for the application.
package handler

import (
	"log/slog"
	"net/http"

	"locker/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	domainerrors "locker/internal/domain/errors"
)

// tokenRequest is the form body of the token endpoint.
type tokenRequest struct {
	GrantType    string `form:"grant_type"`
	ClientID     string `form:"client_id"`
	ClientSecret string `form:"client_secret"`
	Username     string `form:"username"`
	Password     string `form:"password"`
	Scope        string `form:"scope"`
	RefreshToken string `form:"refresh_token"`
}

// revokeRequest is the form body of the revocation endpoint.
type revokeRequest struct {
	Token        string `form:"token"`
	ClientID     string `form:"client_id"`
	ClientSecret string `form:"client_secret"`
}

// tokenResponse is the flat wire shape of a successful grant. The
// token endpoints follow the OAuth conventions rather than the
// envelope the rest of the API uses, so off-the-shelf clients work.
type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int64  `json:"expires_in"`
	RefreshToken     string `json:"refresh_token"`
	RefreshExpiresIn int64  `json:"refresh_expires_in"`
	Scope            string `json:"scope,omitempty"`
}

// oauthError is the flat wire shape of a failed grant.
type oauthError struct {
	Error string `json:"error"`
}

// TokenHandler serves the token issuance and revocation endpoints.
type TokenHandler struct {
	tokens usecase.TokenUsecase
	logger *slog.Logger
}

// NewTokenHandler is the constructor for TokenHandler, injected by Fx.
func NewTokenHandler(tokens usecase.TokenUsecase, logger *slog.Logger) *TokenHandler {
	return &TokenHandler{tokens: tokens, logger: logger}
}

// Token handles POST /oauth/token for both supported grant types.
func (h *TokenHandler) Token(c echo.Context) error {
	var req tokenRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, oauthError{Error: "invalid_request"})
	}

	h.applyBasicAuth(c, &req.ClientID, &req.ClientSecret)

	var (
		out *usecase.TokenOutput
		err error
	)

	switch req.GrantType {
	case "password":
		out, err = h.tokens.IssueWithPassword(c.Request().Context(), usecase.PasswordGrantInput{
			ClientID:     req.ClientID,
			ClientSecret: req.ClientSecret,
			Username:     req.Username,
			Password:     req.Password,
			Scope:        req.Scope,
		})
	case "refresh_token":
		out, err = h.tokens.IssueWithRefreshToken(c.Request().Context(), usecase.RefreshGrantInput{
			ClientID:     req.ClientID,
			ClientSecret: req.ClientSecret,
			RefreshToken: req.RefreshToken,
		})
	default:
		return c.JSON(http.StatusBadRequest, oauthError{Error: "unsupported_grant_type"})
	}

	if err != nil {
		return h.renderGrantError(c, err)
	}

	return c.JSON(http.StatusOK, tokenResponse{
		AccessToken:      out.AccessToken,
		TokenType:        out.TokenType,
		ExpiresIn:        out.ExpiresIn,
		RefreshToken:     out.RefreshToken,
		RefreshExpiresIn: out.RefreshExpiresIn,
		Scope:            out.Scope,
	})
}

// Revoke handles POST /oauth/revoke. Revoking an unknown token still
// returns 200 so callers cannot probe which values exist.
func (h *TokenHandler) Revoke(c echo.Context) error {
	var req revokeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, oauthError{Error: "invalid_request"})
	}

	h.applyBasicAuth(c, &req.ClientID, &req.ClientSecret)

	err := h.tokens.Revoke(c.Request().Context(), usecase.RevokeInput{
		ClientID:     req.ClientID,
		ClientSecret: req.ClientSecret,
		Token:        req.Token,
	})
	if err != nil {
		return h.renderGrantError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{})
}

// applyBasicAuth fills client credentials from the Authorization
// header when the form omitted them.
func (h *TokenHandler) applyBasicAuth(c echo.Context, clientID, clientSecret *string) {
	if *clientID != "" {
		return
	}

	if id, secret, ok := c.Request().BasicAuth(); ok {
		*clientID = id
		*clientSecret = secret
	}
}

// renderGrantError maps grant failures onto the flat OAuth error
// shape. Anything unexpected escapes to the central error handler.
func (h *TokenHandler) renderGrantError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domainerrors.ErrInvalidClient):
		return c.JSON(http.StatusUnauthorized, oauthError{Error: "invalid_client"})
	case errors.Is(err, domainerrors.ErrInvalidGrant):
		return c.JSON(http.StatusBadRequest, oauthError{Error: "invalid_grant"})
	default:
		return errors.WithStack(err)
	}
}
