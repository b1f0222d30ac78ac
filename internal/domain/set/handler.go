package set

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/drmauij/viali/internal/platform/auth"
)

type Handler struct {
	engine *Engine
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/hospitals/:id/sets", h.ListSets)
	api.GET("/sets/:setId", h.GetSet)
	api.POST("/sets/:setId/apply/:recordId", h.Apply)
}

func (h *Handler) GetSet(c echo.Context) error {
	setID, err := uuid.Parse(c.Param("setId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid set id")
	}
	userID := auth.UserIDFromContext(c.Request().Context())
	s, err := h.engine.GetSet(c.Request().Context(), userID, setID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, ErrAccessDenied):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, s)
}

func (h *Handler) ListSets(c echo.Context) error {
	hospitalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid hospital id")
	}
	userID := auth.UserIDFromContext(c.Request().Context())
	sets, err := h.engine.ListSets(c.Request().Context(), userID, hospitalID)
	if err != nil {
		if errors.Is(err, ErrAccessDenied) {
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, sets)
}

func (h *Handler) Apply(c echo.Context) error {
	setID, err := uuid.Parse(c.Param("setId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid set id")
	}
	recordID, err := uuid.Parse(c.Param("recordId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid record id")
	}

	userID := auth.UserIDFromContext(c.Request().Context())
	res, err := h.engine.Apply(c.Request().Context(), userID, setID, recordID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrRecordNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, ErrAccessDenied):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		case errors.Is(err, ErrHospitalMismatch):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, res)
}
