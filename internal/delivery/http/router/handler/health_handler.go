package handler

import (
	"net/http"

	"locker/internal/delivery/http/response"

	"github.com/labstack/echo/v4"
)

// HealthCheck reports that the process is up. It deliberately touches
// no dependencies so load balancers get a fast answer.
func HealthCheck(c echo.Context) error {
	return response.Success(c, http.StatusOK, map[string]string{"status": "ok"}, "")
}
