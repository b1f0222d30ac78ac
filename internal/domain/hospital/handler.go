package hospital

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
	api.GET("/hospitals/:id", h.GetHospital)
	api.GET("/hospitals/:id/units", h.ListUnits)
	api.GET("/hospitals/:id/items", h.ListItems)
	api.GET("/items/:id", h.GetItem)
}

func (h *Handler) requireHospitalAccess(c echo.Context, hospitalID uuid.UUID) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	ok, err := h.gate.HasHospitalAccess(c.Request().Context(), userID, hospitalID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !ok {
		return echo.NewHTTPError(http.StatusForbidden, "no access to hospital")
	}
	return nil
}

func (h *Handler) GetHospital(c echo.Context) error {
	hospitalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid hospital id")
	}
	if err := h.requireHospitalAccess(c, hospitalID); err != nil {
		return err
	}
	hosp, err := h.svc.GetHospital(c.Request().Context(), hospitalID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "hospital not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, hosp)
}

func (h *Handler) ListUnits(c echo.Context) error {
	hospitalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid hospital id")
	}
	if err := h.requireHospitalAccess(c, hospitalID); err != nil {
		return err
	}
	units, err := h.svc.ListUnits(c.Request().Context(), hospitalID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, units)
}

func (h *Handler) ListItems(c echo.Context) error {
	hospitalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid hospital id")
	}
	if err := h.requireHospitalAccess(c, hospitalID); err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListItems(c.Request().Context(), hospitalID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetItem(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid item id")
	}
	item, err := h.svc.GetItem(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "item not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.requireHospitalAccess(c, item.HospitalID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}
