package record

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/drmauij/viali/internal/platform/auth"
)

type Handler struct {
	svc  *Service
	gate auth.Gate
}

func NewHandler(svc *Service, gate auth.Gate) *Handler {
	return &Handler{svc: svc, gate: gate}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/records/:id", h.GetRecord)
	api.GET("/records/:id/administrations", h.ListAdministrations)
	api.POST("/records/:id/events", h.AddEvent)
	api.GET("/records/:id/events", h.ListEvents)
	api.GET("/records/:id/techniques", h.ListTechniques)
}

// requireAccess walks the record up to its hospital and checks the caller's
// grant there.
func (h *Handler) requireAccess(c echo.Context, recordID uuid.UUID) error {
	ctx := c.Request().Context()
	hospitalID, err := h.svc.ResolveHospital(ctx, recordID)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "record not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	ok, err := h.gate.HasHospitalAccess(ctx, auth.UserIDFromContext(ctx), hospitalID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !ok {
		return echo.NewHTTPError(http.StatusForbidden, "no access to hospital")
	}
	return nil
}

func (h *Handler) GetRecord(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid record id")
	}
	if err := h.requireAccess(c, id); err != nil {
		return err
	}
	rec, err := h.svc.GetRecord(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) ListAdministrations(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid record id")
	}
	if err := h.requireAccess(c, id); err != nil {
		return err
	}
	admins, err := h.svc.ListAdministrations(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, admins)
}

type eventRequest struct {
	MedicationID uuid.UUID       `json:"medication_id"`
	Kind         string          `json:"kind"`
	Dose         decimal.Decimal `json:"dose"`
	OccurredAt   *time.Time      `json:"occurred_at"`
}

func (h *Handler) AddEvent(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid record id")
	}
	var req eventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	switch req.Kind {
	case EventBolus, EventInfusionStart, EventInfusionStop:
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "unknown event kind")
	}
	if err := h.requireAccess(c, id); err != nil {
		return err
	}

	ctx := c.Request().Context()
	link, _, err := h.svc.EnsureMedicationLink(ctx, id, req.MedicationID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "medication not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	occurred := time.Now().UTC()
	if req.OccurredAt != nil {
		occurred = *req.OccurredAt
	}
	event := &MedicationEvent{
		RecordID:           id,
		RecordMedicationID: link.ID,
		Kind:               req.Kind,
		Dose:               req.Dose,
		OccurredAt:         occurred,
	}
	if err := h.svc.AddEvent(ctx, event); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, event)
}

func (h *Handler) ListEvents(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid record id")
	}
	if err := h.requireAccess(c, id); err != nil {
		return err
	}
	events, err := h.svc.ListEvents(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, events)
}

func (h *Handler) ListTechniques(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid record id")
	}
	if err := h.requireAccess(c, id); err != nil {
		return err
	}
	techniques, err := h.svc.ListTechniques(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, techniques)
}
