package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"nascal/internal/config"
	"nascal/internal/store"
)

func newTestServer(t *testing.T, cfg *config.Config) (http.Handler, *store.Store) {
	t.Helper()

	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	cfg.DataDir = t.TempDir()

	st := store.New(cfg.DataDir)
	if err := st.Load(); err != nil {
		t.Fatalf("store load: %v", err)
	}
	return NewServer(cfg, st).Handler(), st
}

func doJSON(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h, _ := newTestServer(t, nil)

	rec := doJSON(t, h, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "OK" {
		t.Errorf("body = %q, want OK", rec.Body.String())
	}
}

func TestGrid(t *testing.T) {
	h, st := newTestServer(t, nil)
	if _, err := st.Create(store.Draft{Title: "Início das aulas", Date: "2016-02-10", Time: "07:00"}); err != nil {
		t.Fatal(err)
	}

	rec := doJSON(t, h, http.MethodGet, "/api/grid?year=2016&month=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp gridResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if resp.Label != "Fevereiro 2016" {
		t.Errorf("label = %q, want Fevereiro 2016", resp.Label)
	}
	if len(resp.Cells) != 35 {
		t.Fatalf("cells = %d, want 35", len(resp.Cells))
	}
	if len(resp.Cells)%7 != 0 {
		t.Errorf("cell count %d is not a multiple of 7", len(resp.Cells))
	}

	var found bool
	for _, cell := range resp.Cells {
		if cell.Date == "2016-02-10" {
			found = true
			if cell.OutOfMonth {
				t.Error("2016-02-10 marked out-of-month")
			}
			if len(cell.Events) != 1 || cell.Total != 1 {
				t.Errorf("cell events = %d (total %d), want 1", len(cell.Events), cell.Total)
			}
		}
	}
	if !found {
		t.Error("grid has no cell for 2016-02-10")
	}
}

func TestGridCapsEventsPerCell(t *testing.T) {
	h, st := newTestServer(t, nil)
	for i := 0; i < maxEventsPerCell+2; i++ {
		if _, err := st.Create(store.Draft{Title: "Evento", Date: "2016-02-10"}); err != nil {
			t.Fatal(err)
		}
	}

	rec := doJSON(t, h, http.MethodGet, "/api/grid?year=2016&month=1", "")
	var resp gridResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}

	for _, cell := range resp.Cells {
		if cell.Date != "2016-02-10" {
			continue
		}
		if len(cell.Events) != maxEventsPerCell {
			t.Errorf("cell lists %d events, want cap %d", len(cell.Events), maxEventsPerCell)
		}
		if cell.Total != maxEventsPerCell+2 {
			t.Errorf("cell total = %d, want %d", cell.Total, maxEventsPerCell+2)
		}
	}
}

func TestEventLifecycle(t *testing.T) {
	h, _ := newTestServer(t, nil)

	// Create.
	rec := doJSON(t, h, http.MethodPost, "/api/events",
		`{"title":"Prova","date":"2016-03-10","time":"08:00","type":"exam"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var created store.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.ID == "" {
		t.Fatal("created event has no id")
	}

	// Day list sees it.
	rec = doJSON(t, h, http.MethodGet, "/api/events?date=2016-03-10", "")
	var day []store.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &day); err != nil {
		t.Fatal(err)
	}
	if len(day) != 1 || day[0].Title != "Prova" {
		t.Fatalf("day list = %+v, want the created event", day)
	}

	// Patch keeps unrelated fields.
	rec = doJSON(t, h, http.MethodPatch, "/api/events/"+created.ID, `{"title":"Prova adiada"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d: %s", rec.Code, rec.Body.String())
	}
	var patched store.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &patched); err != nil {
		t.Fatal(err)
	}
	if patched.Title != "Prova adiada" || patched.Time != "08:00" || patched.Type != "exam" {
		t.Errorf("patched = %+v, want only the title changed", patched)
	}

	// Delete, then the id is gone.
	rec = doJSON(t, h, http.MethodDelete, "/api/events/"+created.ID, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", rec.Code)
	}
	rec = doJSON(t, h, http.MethodDelete, "/api/events/"+created.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestCreateValidationStatus(t *testing.T) {
	h, _ := newTestServer(t, nil)

	rec := doJSON(t, h, http.MethodPost, "/api/events", `{"title":"","date":"2016-03-10"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422: %s", rec.Code, rec.Body.String())
	}
}

func TestImportAtomicityOverHTTP(t *testing.T) {
	h, st := newTestServer(t, nil)

	rec := doJSON(t, h, http.MethodPost, "/api/import",
		`[{"title":"A","date":"2016-05-01"},{"title":"","date":"2016-05-02"}]`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
	}
	if st.Len() != 0 {
		t.Errorf("store has %d events after rejected import, want 0", st.Len())
	}

	rec = doJSON(t, h, http.MethodPost, "/api/import", `{"x":{"title":"A","date":"2016-05-01"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if st.Len() != 1 {
		t.Errorf("store has %d events after import, want 1", st.Len())
	}
}

func TestExportDownload(t *testing.T) {
	h, st := newTestServer(t, nil)
	if _, err := st.Create(store.Draft{Title: "Prova", Date: "2016-03-10"}); err != nil {
		t.Fatal(err)
	}

	rec := doJSON(t, h, http.MethodGet, "/api/export", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, store.ExportFileName) {
		t.Errorf("Content-Disposition = %q, want the fixed export filename", cd)
	}

	var exported map[string]store.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &exported); err != nil {
		t.Fatalf("export is not an id mapping: %v", err)
	}
	if len(exported) != 1 {
		t.Errorf("exported %d events, want 1", len(exported))
	}
}

func TestICSFeed(t *testing.T) {
	h, st := newTestServer(t, nil)
	if _, err := st.Create(store.Draft{Title: "Prova", Date: "2016-03-10"}); err != nil {
		t.Fatal(err)
	}

	rec := doJSON(t, h, http.MethodGet, "/calendar.ics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("Content-Type = %q, want text/calendar", ct)
	}
	if !strings.Contains(rec.Body.String(), "BEGIN:VEVENT") {
		t.Error("feed has no VEVENT")
	}
}

func TestBasicAuth(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "ayumi", Password: "segredo"}
	h, _ := newTestServer(t, cfg)

	// /health stays open.
	rec := doJSON(t, h, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200 without credentials", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/grid", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("grid status = %d, want 401 without credentials", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/grid", nil)
	req.SetBasicAuth("ayumi", "segredo")
	authed := httptest.NewRecorder()
	h.ServeHTTP(authed, req)
	if authed.Code != http.StatusOK {
		t.Errorf("grid status = %d, want 200 with credentials", authed.Code)
	}
}

func TestMethodGuards(t *testing.T) {
	h, _ := newTestServer(t, nil)

	tests := []struct {
		method, target string
	}{
		{http.MethodPost, "/api/grid"},
		{http.MethodDelete, "/api/events"},
		{http.MethodPost, "/api/export"},
		{http.MethodGet, "/api/import"},
		{http.MethodPost, "/calendar.ics"},
	}
	for _, tt := range tests {
		rec := doJSON(t, h, tt.method, tt.target, "")
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s status = %d, want 405", tt.method, tt.target, rec.Code)
		}
	}
}
