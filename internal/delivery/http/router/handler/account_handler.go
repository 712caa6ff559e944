package handler

import (
	"log/slog"
	"net/http"
	"time"

	deliverycontext "locker/internal/delivery/context"
	"locker/internal/delivery/http/response"
	"locker/internal/domain/entity"
	"locker/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// registerRequest is the JSON body of the registration endpoint.
type registerRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=64"`
	Password    string `json:"password" validate:"required,min=8,max=128"`
	DisplayName string `json:"displayName" validate:"max=128"`
}

// accountResponse is the wire shape of an account. The password hash
// never leaves the server.
type accountResponse struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"displayName,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// AccountHandler holds dependencies for account-related handlers.
type AccountHandler struct {
	accounts usecase.AccountUsecase
	logger   *slog.Logger
}

// NewAccountHandler is the constructor for AccountHandler, injected by Fx.
func NewAccountHandler(accounts usecase.AccountUsecase, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, logger: logger}
}

// Register handles the account registration request.
func (h *AccountHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid registration input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	out, err := h.accounts.Register(c.Request().Context(), usecase.RegisterInput{
		Username:    req.Username,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, toAccountResponse(out.User), "Account registered successfully")
}

// Me returns the account that owns the presented access token.
func (h *AccountHandler) Me(c echo.Context) error {
	pair := deliverycontext.GetTokenPair(c)
	if pair == nil {
		return response.Unauthorized(c, "UNAUTHORIZED", "Authentication required")
	}

	user, err := h.accounts.GetAccount(c.Request().Context(), pair.UserID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toAccountResponse(user), "")
}

// LogoutAll revokes every token pair belonging to the caller.
func (h *AccountHandler) LogoutAll(c echo.Context) error {
	pair := deliverycontext.GetTokenPair(c)
	if pair == nil {
		return response.Unauthorized(c, "UNAUTHORIZED", "Authentication required")
	}

	revoked, err := h.accounts.LogoutAll(c.Request().Context(), pair.UserID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]int64{"revoked": revoked}, "All sessions revoked")
}

func toAccountResponse(user *entity.User) accountResponse {
	return accountResponse{
		ID:          user.ID.String(),
		Username:    user.Username,
		DisplayName: user.DisplayName,
		CreatedAt:   user.CreatedAt,
	}
}
