package inventory

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/drmauij/viali/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/inventory/:recordId", h.ListUsage)
	api.POST("/inventory/:recordId/calculate", h.Calculate)
	api.POST("/inventory/:recordId/manual", h.AddManual)
	api.PATCH("/inventory/usage/:usageId/override", h.SetOverride)
	api.DELETE("/inventory/usage/:usageId/override", h.ClearOverride)
	api.POST("/inventory/:recordId/commit", h.Commit)
	api.GET("/inventory/:recordId/commits", h.ListCommits)
	api.GET("/inventory/commits/:commitId", h.GetCommit)
	api.POST("/inventory/commits/:commitId/rollback", h.Rollback)
	api.GET("/inventory/stock/:itemId/:unitId", h.GetStock)
}

// httpError maps the service error taxonomy onto HTTP statuses.
func httpError(err error) error {
	switch {
	case IsNotFound(err):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case IsAccessDenied(err):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case IsValidation(err), errors.Is(err, ErrModuleNotConfigured):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case IsConflict(err):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func param(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

func (h *Handler) ListUsage(c echo.Context) error {
	recordID, err := param(c, "recordId")
	if err != nil {
		return err
	}
	userID := auth.UserIDFromContext(c.Request().Context())
	usages, err := h.svc.ListUsage(c.Request().Context(), userID, recordID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, usages)
}

func (h *Handler) Calculate(c echo.Context) error {
	recordID, err := param(c, "recordId")
	if err != nil {
		return err
	}
	userID := auth.UserIDFromContext(c.Request().Context())
	usages, err := h.svc.Calculate(c.Request().Context(), userID, recordID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, usages)
}

type manualRequest struct {
	ItemID   uuid.UUID       `json:"item_id"`
	Quantity decimal.Decimal `json:"quantity"`
	Reason   string          `json:"reason"`
}

func (h *Handler) AddManual(c echo.Context) error {
	recordID, err := param(c, "recordId")
	if err != nil {
		return err
	}
	var req manualRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.ItemID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "item_id is required")
	}
	userID := auth.UserIDFromContext(c.Request().Context())
	u, err := h.svc.AddManual(c.Request().Context(), userID, recordID, req.ItemID, req.Quantity, req.Reason)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, u)
}

type overrideRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
	Reason   string          `json:"reason"`
}

func (h *Handler) SetOverride(c echo.Context) error {
	usageID, err := param(c, "usageId")
	if err != nil {
		return err
	}
	var req overrideRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	userID := auth.UserIDFromContext(c.Request().Context())
	u, err := h.svc.SetOverride(c.Request().Context(), userID, usageID, req.Quantity, req.Reason)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) ClearOverride(c echo.Context) error {
	usageID, err := param(c, "usageId")
	if err != nil {
		return err
	}
	userID := auth.UserIDFromContext(c.Request().Context())
	u, err := h.svc.ClearOverride(c.Request().Context(), userID, usageID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, u)
}

type commitRequest struct {
	ModuleType string `json:"module_type"`
	Signature  string `json:"signature"`
}

func (h *Handler) Commit(c echo.Context) error {
	recordID, err := param(c, "recordId")
	if err != nil {
		return err
	}
	var req commitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	userID := auth.UserIDFromContext(c.Request().Context())
	commit, err := h.svc.Commit(c.Request().Context(), userID, recordID, req.ModuleType, req.Signature)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, commit)
}

func (h *Handler) ListCommits(c echo.Context) error {
	recordID, err := param(c, "recordId")
	if err != nil {
		return err
	}
	var unitID *uuid.UUID
	if raw := c.QueryParam("unit_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid unit_id")
		}
		unitID = &id
	}
	userID := auth.UserIDFromContext(c.Request().Context())
	commits, err := h.svc.ListCommits(c.Request().Context(), userID, recordID, unitID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, commits)
}

func (h *Handler) GetCommit(c echo.Context) error {
	commitID, err := param(c, "commitId")
	if err != nil {
		return err
	}
	userID := auth.UserIDFromContext(c.Request().Context())
	commit, items, err := h.svc.GetCommitItems(c.Request().Context(), userID, commitID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"commit": commit,
		"items":  items,
	})
}

type rollbackRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) Rollback(c echo.Context) error {
	commitID, err := param(c, "commitId")
	if err != nil {
		return err
	}
	var req rollbackRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	userID := auth.UserIDFromContext(c.Request().Context())
	commit, err := h.svc.Rollback(c.Request().Context(), userID, commitID, req.Reason)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, commit)
}

func (h *Handler) GetStock(c echo.Context) error {
	itemID, err := param(c, "itemId")
	if err != nil {
		return err
	}
	unitID, err := param(c, "unitId")
	if err != nil {
		return err
	}
	userID := auth.UserIDFromContext(c.Request().Context())
	stock, err := h.svc.GetStock(c.Request().Context(), userID, itemID, unitID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, stock)
}
