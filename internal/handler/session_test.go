package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vehicle-access-registry/internal/handler"
	"github.com/iliyamo/vehicle-access-registry/internal/repository/memory"
	"github.com/iliyamo/vehicle-access-registry/internal/router"
	"github.com/iliyamo/vehicle-access-registry/internal/service"
)

// newTestServer wires the full HTTP surface against an in-memory store,
// without Redis or a broker.
func newTestServer() *echo.Echo {
	e := echo.New()
	svc := service.NewAccessService(memory.NewSessionStore(), nil)
	router.RegisterRoutes(e)
	router.RegisterAccess(e, handler.NewAccessHandler(svc), nil)
	return e
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
	}
	return rec, decoded
}

const visitorBody = `{
	"tower": "A",
	"unit": "101",
	"occupant_name": "María González",
	"occupant_id": "12.345.678-9",
	"role": "visitor",
	"plate": "ab123cd"
}`

func TestCreateSessionEndpoint(t *testing.T) {
	e := newTestServer()

	rec, body := doJSON(t, e, http.MethodPost, "/v1/sessions", visitorBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body: %s)", rec.Code, rec.Body.String())
	}
	if body["plate"] != "AB123CD" {
		t.Errorf("plate = %v, want uppercased AB123CD", body["plate"])
	}
	if body["exited_at"] != nil {
		t.Errorf("exited_at = %v, want absent on a fresh session", body["exited_at"])
	}
}

func TestCreateSessionValidationResponse(t *testing.T) {
	e := newTestServer()

	rec, body := doJSON(t, e, http.MethodPost, "/v1/sessions", `{"tower": "A", "role": "visitor"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if body["error"] != "validation_failed" {
		t.Errorf("error = %v, want validation_failed", body["error"])
	}
	fields, ok := body["fields"].([]any)
	if !ok || len(fields) != 3 {
		t.Errorf("fields = %v, want the three missing fields", body["fields"])
	}
}

func TestExitEndpointRejectsSecondClose(t *testing.T) {
	e := newTestServer()

	_, created := doJSON(t, e, http.MethodPost, "/v1/sessions", visitorBody)
	id := created["id"].(float64)

	rec, _ := doJSON(t, e, http.MethodPost, "/v1/sessions/1/exit", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("first exit status = %d, want 200 (id=%v)", rec.Code, id)
	}

	rec, body := doJSON(t, e, http.MethodPost, "/v1/sessions/1/exit", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("second exit status = %d, want 409", rec.Code)
	}
	if body["error"] != "session already closed" {
		t.Errorf("error = %v, want 'session already closed'", body["error"])
	}
}

func TestAcknowledgeEndpointIsIdempotent(t *testing.T) {
	e := newTestServer()

	doJSON(t, e, http.MethodPost, "/v1/sessions", visitorBody)

	for i := 0; i < 2; i++ {
		rec, body := doJSON(t, e, http.MethodPost, "/v1/sessions/1/acknowledge", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("acknowledge #%d status = %d, want 200", i+1, rec.Code)
		}
		if body["alert_acknowledged"] != true {
			t.Errorf("acknowledge #%d alert_acknowledged = %v, want true", i+1, body["alert_acknowledged"])
		}
	}
}

func TestUnknownSessionAnswers404(t *testing.T) {
	e := newTestServer()

	for _, tc := range []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/v1/sessions/42", ""},
		{http.MethodPut, "/v1/sessions/42", visitorBody},
		{http.MethodDelete, "/v1/sessions/42", ""},
		{http.MethodPost, "/v1/sessions/42/exit", ""},
		{http.MethodPost, "/v1/sessions/42/acknowledge", ""},
	} {
		rec, _ := doJSON(t, e, tc.method, tc.path, tc.body)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s %s status = %d, want 404", tc.method, tc.path, rec.Code)
		}
	}
}

func TestDeleteReturnsRemovedRecord(t *testing.T) {
	e := newTestServer()

	doJSON(t, e, http.MethodPost, "/v1/sessions", visitorBody)

	rec, body := doJSON(t, e, http.MethodDelete, "/v1/sessions/1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	session, ok := body["session"].(map[string]any)
	if !ok || session["plate"] != "AB123CD" {
		t.Errorf("deleted session = %v, want the removed record", body["session"])
	}

	rec, _ = doJSON(t, e, http.MethodGet, "/v1/sessions/1", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestListAndStatsEndpoints(t *testing.T) {
	e := newTestServer()

	doJSON(t, e, http.MethodPost, "/v1/sessions", visitorBody)
	resident := strings.Replace(visitorBody, `"visitor"`, `"resident"`, 1)
	resident = strings.Replace(resident, `"ab123cd"`, `"zz999zz"`, 1)
	doJSON(t, e, http.MethodPost, "/v1/sessions", resident)

	rec, body := doJSON(t, e, http.MethodGet, "/v1/sessions?role=visitor", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200", rec.Code)
	}
	items, ok := body["items"].([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("items = %v, want exactly the visitor session", body["items"])
	}

	rec, stats := doJSON(t, e, http.MethodGet, "/v1/stats", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status = %d, want 200", rec.Code)
	}
	if stats["active_total"] != float64(2) || stats["active_residents"] != float64(1) ||
		stats["active_visitors"] != float64(1) || stats["pending_alerts"] != float64(0) {
		t.Errorf("stats = %v, want 2 active / 1 resident / 1 visitor / 0 alerts", stats)
	}

	rec, alerts := doJSON(t, e, http.MethodGet, "/v1/alerts", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("alerts status = %d, want 200", rec.Code)
	}
	if items, ok := alerts["items"].([]any); !ok || len(items) != 0 {
		t.Errorf("alerts items = %v, want empty list for fresh sessions", alerts["items"])
	}

	rec, _ = doJSON(t, e, http.MethodGet, "/v1/sessions?role=gardener", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid role filter status = %d, want 400", rec.Code)
	}
}
