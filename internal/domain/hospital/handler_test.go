package hospital

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/drmauij/viali/internal/platform/auth"
)

func getHospital(t *testing.T, h *Handler, userID string, hospitalID uuid.UUID) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(auth.WithUser(req.Context(), userID, nil))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/hospitals/:id")
	c.SetParamNames("id")
	c.SetParamValues(hospitalID.String())

	if err := h.GetHospital(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestGetHospitalHandler(t *testing.T) {
	repo := newMockRepo()
	hospitalID := uuid.New()
	repo.hospitals[hospitalID] = &Hospital{ID: hospitalID, Name: "St. Anna"}
	repo.grants = append(repo.grants, &StaffGrant{UserID: "doc-1", HospitalID: hospitalID, Role: "doctor"})

	h := NewHandler(NewService(repo), NewGate(repo))

	if rec := getHospital(t, h, "doc-1", hospitalID); rec.Code != http.StatusOK {
		t.Errorf("member: status = %d, want 200", rec.Code)
	}
	if rec := getHospital(t, h, "outsider", hospitalID); rec.Code != http.StatusForbidden {
		t.Errorf("outsider: status = %d, want 403", rec.Code)
	}

	// Unknown hospital: no grant can exist for it, so the scope check
	// answers first.
	if rec := getHospital(t, h, "doc-1", uuid.New()); rec.Code != http.StatusForbidden {
		t.Errorf("unknown hospital: status = %d, want 403", rec.Code)
	}
}
