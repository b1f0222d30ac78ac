package audit

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/drmauij/viali/internal/platform/auth"
	"github.com/drmauij/viali/pkg/pagination"
)

type Handler struct {
	svc  *Service
	gate auth.Gate
}

func NewHandler(svc *Service, gate auth.Gate) *Handler {
	return &Handler{svc: svc, gate: gate}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/audit/:recordType/:recordId", h.Query)
}

func (h *Handler) Query(c echo.Context) error {
	recordType := c.Param("recordType")
	recordID, err := uuid.Parse(c.Param("recordId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid record id")
	}

	// Audit entries reference ids only; the hospital scope comes
	// from the X-Hospital-Id header.
	ctx := c.Request().Context()
	hospitalID, ok := auth.HospitalIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "missing X-Hospital-Id header")
	}
	hasAccess, err := h.gate.HasHospitalAccess(ctx, auth.UserIDFromContext(ctx), hospitalID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !hasAccess {
		return echo.NewHTTPError(http.StatusForbidden, "no access to hospital")
	}

	pg := pagination.FromContext(c)
	entries, total, err := h.svc.Query(ctx, recordType, recordID, pg.Limit, pg.Offset)
	if err != nil {
		if errors.Is(err, ErrUnknownType) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(entries, total, pg.Limit, pg.Offset))
}
