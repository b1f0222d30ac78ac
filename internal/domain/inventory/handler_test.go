package inventory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/drmauij/viali/internal/domain/hospital"
	"github.com/drmauij/viali/internal/domain/record"
	"github.com/drmauij/viali/internal/platform/auth"
)

func doRequest(t *testing.T, f *fixture, user, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	NewHandler(f.svc).RegisterRoutes(e.Group(""))

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	req = req.WithContext(auth.WithUser(req.Context(), user, []string{"anesthetist"}))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandler_ListUsage(t *testing.T) {
	f := newFixture(t)
	item := f.addItem(false)
	f.records.admins[f.recordID] = []*record.Administration{
		{ItemID: item, Kind: record.EventBolus, PackSize: decimal.NewFromInt(1)},
	}

	rec := doRequest(t, f, f.user, http.MethodPost, "/inventory/"+f.recordID.String()+"/calculate", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("calculate status = %d body %s", rec.Code, rec.Body)
	}

	rec = doRequest(t, f, f.user, http.MethodGet, "/inventory/"+f.recordID.String(), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Body.String(), item.String()) {
		t.Errorf("response missing item: %s", rec.Body)
	}
}

func TestHandler_InvalidRecordID(t *testing.T) {
	f := newFixture(t)
	rec := doRequest(t, f, f.user, http.MethodGet, "/inventory/not-a-uuid", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandler_AccessDenied(t *testing.T) {
	f := newFixture(t)
	rec := doRequest(t, f, "stranger", http.MethodGet, "/inventory/"+f.recordID.String(), "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestHandler_UnknownRecord(t *testing.T) {
	f := newFixture(t)
	rec := doRequest(t, f, f.user, http.MethodGet, "/inventory/00000000-0000-0000-0000-000000000001", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHandler_OverrideValidation(t *testing.T) {
	f := newFixture(t)
	item := f.addItem(false)
	f.records.admins[f.recordID] = []*record.Administration{
		{ItemID: item, Kind: record.EventBolus, PackSize: decimal.NewFromInt(1)},
	}
	usages, err := f.svc.Calculate(context.Background(), f.user, f.recordID)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	usageID := usages[0].ID.String()

	rec := doRequest(t, f, f.user, http.MethodPatch, "/inventory/usage/"+usageID+"/override",
		`{"quantity":"3"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing reason: status = %d, want 400", rec.Code)
	}

	rec = doRequest(t, f, f.user, http.MethodPatch, "/inventory/usage/"+usageID+"/override",
		`{"quantity":"3","reason":"counted"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("valid override: status = %d body %s", rec.Code, rec.Body)
	}
}

func TestHandler_CommitConflict(t *testing.T) {
	f := newFixture(t)
	item := f.addItem(false)
	f.records.admins[f.recordID] = []*record.Administration{
		{ItemID: item, Kind: record.EventBolus, PackSize: decimal.NewFromInt(1)},
	}
	doRequest(t, f, f.user, http.MethodPost, "/inventory/"+f.recordID.String()+"/calculate", "")

	body := `{"module_type":"` + hospital.ModuleAnesthesia + `"}`
	rec := doRequest(t, f, f.user, http.MethodPost, "/inventory/"+f.recordID.String()+"/commit", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("first commit: status = %d body %s", rec.Code, rec.Body)
	}

	rec = doRequest(t, f, f.user, http.MethodPost, "/inventory/"+f.recordID.String()+"/commit", body)
	if rec.Code != http.StatusConflict {
		t.Fatalf("second commit: status = %d, want 409", rec.Code)
	}
}

func TestHandler_RollbackTerminal(t *testing.T) {
	f := newFixture(t)
	item := f.addItem(false)
	f.records.admins[f.recordID] = []*record.Administration{
		{ItemID: item, Kind: record.EventBolus, PackSize: decimal.NewFromInt(1)},
	}
	doRequest(t, f, f.user, http.MethodPost, "/inventory/"+f.recordID.String()+"/calculate", "")
	doRequest(t, f, f.user, http.MethodPost, "/inventory/"+f.recordID.String()+"/commit",
		`{"module_type":"anesthesia"}`)

	var commitID string
	for id := range f.repo.commits {
		commitID = id.String()
	}

	rec := doRequest(t, f, f.user, http.MethodPost, "/inventory/commits/"+commitID+"/rollback",
		`{"reason":"wrong patient"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("rollback: status = %d body %s", rec.Code, rec.Body)
	}

	rec = doRequest(t, f, f.user, http.MethodPost, "/inventory/commits/"+commitID+"/rollback",
		`{"reason":"again"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("re-rollback: status = %d, want 409", rec.Code)
	}
}
