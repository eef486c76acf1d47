package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/arcalife/dental-api/internal/platform/auth"
)

func TestRequestID_GeneratesWhenMissing(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := RequestID()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rid, _ := c.Get("request_id").(string)
	if rid == "" {
		t.Fatal("request id must be generated")
	}
	if rec.Header().Get("X-Request-ID") != rid {
		t.Error("request id must be echoed in the response header")
	}
}

func TestRequestID_KeepsClientSupplied(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "client-rid-1")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := RequestID()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, _ := c.Get("request_id").(string); got != "client-rid-1" {
		t.Errorf("expected client id to be kept, got %q", got)
	}
}

func TestAudit_RecordsClinicalAccess(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/procedures?patient=da2b3c4d-1111-2222-3333-444455556666", nil)
	ctx := context.WithValue(req.Context(), auth.UserIDKey, "dr-novak")
	ctx = context.WithValue(ctx, auth.OrgIDKey, "clinic-1")
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var captured []AuditEntry
	recorder := AuditRecorderFunc(func(entry AuditEntry) error {
		captured = append(captured, entry)
		return nil
	})

	h := Audit(zerolog.Nop(), recorder)(func(c echo.Context) error {
		return c.NoContent(http.StatusCreated)
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(captured) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(captured))
	}
	entry := captured[0]
	if entry.UserID != "dr-novak" || entry.OrganizationID != "clinic-1" {
		t.Errorf("identity not captured: %+v", entry)
	}
	if entry.Action != "create" || entry.Resource != "procedures" {
		t.Errorf("action/resource wrong: %s %s", entry.Action, entry.Resource)
	}
	if entry.PatientID != "da2b3c4d-1111-2222-3333-444455556666" {
		t.Errorf("patient id not extracted: %q", entry.PatientID)
	}
	if entry.StatusCode != http.StatusCreated {
		t.Errorf("status not captured: %d", entry.StatusCode)
	}
}

func TestAudit_SkipsNonAPIRoutes(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	recorder := AuditRecorderFunc(func(AuditEntry) error {
		called = true
		return nil
	})

	h := Audit(zerolog.Nop(), recorder)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Error("health endpoint must not be audited")
	}
}

func TestExtractPatientID_FromPath(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients/da2b3c4d-1111-2222-3333-444455556666/chart", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	if got := extractPatientID(c); got != "da2b3c4d-1111-2222-3333-444455556666" {
		t.Errorf("extractPatientID = %q", got)
	}
}

func TestHTTPMethodToAction(t *testing.T) {
	cases := map[string]string{
		http.MethodGet:    "read",
		http.MethodPost:   "create",
		http.MethodPut:    "update",
		http.MethodPatch:  "update",
		http.MethodDelete: "delete",
	}
	for method, want := range cases {
		if got := httpMethodToAction(method); got != want {
			t.Errorf("%s -> %s, want %s", method, got, want)
		}
	}
}
