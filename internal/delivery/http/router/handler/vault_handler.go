package handler

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	deliverycontext "locker/internal/delivery/context"
	"locker/internal/delivery/http/response"
	"locker/internal/domain/entity"
	"locker/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	domainerrors "locker/internal/domain/errors"
)

// blobEntryResponse is the wire shape of one listing entry.
type blobEntryResponse struct {
	Name       string    `json:"name"`
	IsDir      bool      `json:"isDir"`
	Size       int64     `json:"size,omitempty"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

// VaultHandler serves the encrypted file endpoints. File bodies travel
// as raw bytes; only listings use the JSON envelope.
type VaultHandler struct {
	vault  usecase.VaultUsecase
	logger *slog.Logger
}

// NewVaultHandler is the constructor for VaultHandler, injected by Fx.
func NewVaultHandler(vault usecase.VaultUsecase, logger *slog.Logger) *VaultHandler {
	return &VaultHandler{vault: vault, logger: logger}
}

// Upload handles PUT /vault/files/*.
func (h *VaultHandler) Upload(c echo.Context) error {
	pair := deliverycontext.GetTokenPair(c)
	if pair == nil {
		return response.Unauthorized(c, "UNAUTHORIZED", "Authentication required")
	}

	content, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Failed to read request body")
	}

	if err := h.vault.PutFile(c.Request().Context(), pair.UserID, c.Param("*"), content); err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// Download handles GET /vault/files/*. The decrypted content streams
// back as an opaque octet body.
func (h *VaultHandler) Download(c echo.Context) error {
	pair := deliverycontext.GetTokenPair(c)
	if pair == nil {
		return response.Unauthorized(c, "UNAUTHORIZED", "Authentication required")
	}

	content, err := h.vault.GetFile(c.Request().Context(), pair.UserID, c.Param("*"))
	if err != nil {
		return errors.WithStack(err)
	}

	return c.Blob(http.StatusOK, echo.MIMEOctetStream, content)
}

// Delete handles DELETE /vault/files/*. Deleting a missing file
// returns the same 204 as deleting a real one.
func (h *VaultHandler) Delete(c echo.Context) error {
	pair := deliverycontext.GetTokenPair(c)
	if pair == nil {
		return response.Unauthorized(c, "UNAUTHORIZED", "Authentication required")
	}

	if err := h.vault.DeleteFile(c.Request().Context(), pair.UserID, c.Param("*")); err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// List handles GET /vault/list?dir=.
func (h *VaultHandler) List(c echo.Context) error {
	pair := deliverycontext.GetTokenPair(c)
	if pair == nil {
		return response.Unauthorized(c, "UNAUTHORIZED", "Authentication required")
	}

	entries, err := h.vault.ListDirectory(c.Request().Context(), pair.UserID, c.QueryParam("dir"))
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return response.Success(c, http.StatusOK, []blobEntryResponse{}, "")
		}

		return errors.WithStack(err)
	}

	out := make([]blobEntryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, toBlobEntryResponse(entry))
	}

	return response.Success(c, http.StatusOK, out, "")
}

func toBlobEntryResponse(entry *entity.BlobEntry) blobEntryResponse {
	return blobEntryResponse{
		Name:       entry.Name,
		IsDir:      entry.IsDir,
		Size:       entry.Size,
		ModifiedAt: entry.ModifiedAt,
	}
}
