package handlers

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"scdb-dashboard/config"
	"scdb-dashboard/repository"
	"scdb-dashboard/service"
	"scdb-dashboard/storage"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type sessionPayload struct {
	Session struct {
		ID string `json:"id"`
	} `json:"session"`
	Result struct {
		Matched  int      `json:"matched"`
		Warnings []string `json:"warnings"`
		Table    struct {
			Rows [][]string `json:"rows"`
		} `json:"table"`
	} `json:"result"`
}

func newTestRouter(t *testing.T, archive bool) *gin.Engine {
	t.Helper()
	cases, err := repository.LoadCaseRepository("../testdata/cases.csv", config.DefaultLayout())
	if err != nil {
		t.Fatalf("LoadCaseRepository: %v", err)
	}

	logger := zerolog.Nop()
	dashboard := service.NewDashboardService(service.WithCaseRepository(cases))
	opts := []service.ExportServiceOption{service.WithExportBasename(cases.Layout().ExportBasename)}
	if archive {
		store, err := storage.NewLocalStorage(t.TempDir())
		if err != nil {
			t.Fatal(err)
		}
		opts = append(opts, service.WithArchive(store, repository.NewMemoryExportRepository()))
	}

	return NewRouter(Services{
		Dashboard: dashboard,
		Sessions:  service.NewSessionService(dashboard, service.WithSessionStore(repository.NewMemorySessionStore(time.Hour))),
		Exports:   service.NewExportService(opts...),
	}, logger)
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid JSON %q: %v", w.Body.String(), err)
	}
	if data != nil && env.Success {
		if err := json.Unmarshal(env.Data, data); err != nil {
			t.Fatalf("invalid data: %v", err)
		}
	}
	return env
}

func TestIndexAndHealth(t *testing.T) {
	r := newTestRouter(t, false)

	w := do(t, r, http.MethodGet, "/", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Supreme Court Database") {
		t.Errorf("index: %d", w.Code)
	}

	w = do(t, r, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("health: %d %s", w.Code, w.Body.String())
	}
}

func TestGetControls(t *testing.T) {
	r := newTestRouter(t, false)

	var panel service.ControlPanel
	w := do(t, r, http.MethodGet, "/api/controls", "")
	env := decode(t, w, &panel)
	if w.Code != http.StatusOK || !env.Success {
		t.Fatalf("controls: %d %s", w.Code, w.Body.String())
	}
	if panel.Terms.Min != 1990 || panel.Terms.Max != 2012 || len(panel.Filters) != 6 {
		t.Errorf("unexpected panel %+v", panel)
	}
}

func TestComputeStateless(t *testing.T) {
	r := newTestRouter(t, false)

	var result service.DashboardResult
	w := do(t, r, http.MethodPost, "/api/dashboard", `{"selection":{"term_start":1990,"term_end":1992}}`)
	decode(t, w, &result)
	if w.Code != http.StatusOK {
		t.Fatalf("compute: %d %s", w.Code, w.Body.String())
	}
	if result.Matched != 5 || len(result.TimeSeries) != 2 {
		t.Errorf("matched %d, time series %+v", result.Matched, result.TimeSeries)
	}

	w = do(t, r, http.MethodPost, "/api/dashboard", `{"selection":`)
	env := decode(t, w, nil)
	if w.Code != http.StatusBadRequest || env.Success || env.Error.Code != "INVALID_REQUEST" {
		t.Errorf("malformed body: %d %s", w.Code, w.Body.String())
	}
}

func TestSessionLifecycle(t *testing.T) {
	r := newTestRouter(t, false)

	var created sessionPayload
	w := do(t, r, http.MethodPost, "/api/sessions", "")
	decode(t, w, &created)
	if w.Code != http.StatusCreated || created.Result.Matched != 10 {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	path := "/api/sessions/" + created.Session.ID

	var updated sessionPayload
	w = do(t, r, http.MethodPut, path, `{"selection":{"categories":{"chief":["Roberts"]}},"bar_variable":"nope"}`)
	decode(t, w, &updated)
	if w.Code != http.StatusOK || updated.Result.Matched != 4 {
		t.Fatalf("update: %d %s", w.Code, w.Body.String())
	}
	if len(updated.Result.Warnings) != 1 {
		t.Errorf("expected the bar variable warning, got %v", updated.Result.Warnings)
	}

	var fetched sessionPayload
	w = do(t, r, http.MethodGet, path, "")
	decode(t, w, &fetched)
	if w.Code != http.StatusOK || fetched.Result.Matched != 4 {
		t.Errorf("get: %d %s", w.Code, w.Body.String())
	}

	w = do(t, r, http.MethodGet, path+"/charts/trend.png", "")
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "image/png" || !bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")) {
		t.Errorf("chart: %d %s", w.Code, w.Header().Get("Content-Type"))
	}
	w = do(t, r, http.MethodGet, path+"/charts/pie.png", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown chart: %d", w.Code)
	}

	w = do(t, r, http.MethodDelete, path, "")
	if w.Code != http.StatusNoContent {
		t.Errorf("delete: %d", w.Code)
	}
	w = do(t, r, http.MethodGet, path, "")
	env := decode(t, w, nil)
	if w.Code != http.StatusNotFound || env.Error.Code != "SESSION_NOT_FOUND" {
		t.Errorf("get after delete: %d %s", w.Code, w.Body.String())
	}
}

func TestInvalidSessionID(t *testing.T) {
	r := newTestRouter(t, false)
	w := do(t, r, http.MethodGet, "/api/sessions/not-a-uuid", "")
	env := decode(t, w, nil)
	if w.Code != http.StatusBadRequest || env.Error.Code != "INVALID_ID" {
		t.Errorf("got %d %s", w.Code, w.Body.String())
	}
}

func TestExportSession(t *testing.T) {
	r := newTestRouter(t, false)

	var created sessionPayload
	decode(t, do(t, r, http.MethodPost, "/api/sessions", ""), &created)
	path := "/api/sessions/" + created.Session.ID

	body := `{"selection":{"term_start":2000,"term_end":2010,"categories":{"decisionDirection":["liberal"]}}}`
	if w := do(t, r, http.MethodPut, path, body); w.Code != http.StatusOK {
		t.Fatalf("update: %d %s", w.Code, w.Body.String())
	}

	w := do(t, r, http.MethodGet, path+"/export", "")
	if w.Code != http.StatusOK {
		t.Fatalf("export: %d %s", w.Code, w.Body.String())
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "filtered_dashboard_data.csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	records, err := csv.NewReader(w.Body).ReadAll()
	if err != nil {
		t.Fatalf("reading CSV: %v", err)
	}
	if len(records) != 3 || strings.Join(records[0], ",") != "caseId,term,chief,issueArea,decisionDirection" {
		t.Errorf("unexpected export %v", records)
	}

	w = do(t, r, http.MethodGet, path+"/export?format=pdf", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("pdf export: %d", w.Code)
	}
}

func TestExportTableAndArchive(t *testing.T) {
	r := newTestRouter(t, true)

	w := do(t, r, http.MethodPost, "/api/export", `{"columns":["caseId","term"],"rows":[["1990-001","1990"]],"format":"csv"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("export: %d %s", w.Code, w.Body.String())
	}
	if w.Body.String() != "caseId,term\n1990-001,1990\n" {
		t.Errorf("body = %q", w.Body.String())
	}
	id := w.Header().Get("X-Export-ID")
	if id == "" {
		t.Fatal("expected an archived export ID")
	}

	w = do(t, r, http.MethodGet, "/api/exports/"+id, "")
	if w.Code != http.StatusOK || w.Body.String() != "caseId,term\n1990-001,1990\n" {
		t.Errorf("archived download: %d %q", w.Code, w.Body.String())
	}

	var list []map[string]interface{}
	w = do(t, r, http.MethodGet, "/api/exports", "")
	decode(t, w, &list)
	if w.Code != http.StatusOK || len(list) != 1 {
		t.Errorf("list: %d %s", w.Code, w.Body.String())
	}

	w = do(t, r, http.MethodGet, "/api/exports/00000000-0000-0000-0000-000000000001", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("missing export: %d", w.Code)
	}

	w = do(t, r, http.MethodDelete, "/api/exports/"+id, "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: %d %s", w.Code, w.Body.String())
	}
	w = do(t, r, http.MethodGet, "/api/exports/"+id, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("deleted export still served: %d", w.Code)
	}
	w = do(t, r, http.MethodDelete, "/api/exports/"+id, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("deleting twice: %d", w.Code)
	}
	w = do(t, r, http.MethodDelete, "/api/exports/not-a-uuid", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid id: %d", w.Code)
	}
}

func TestExportTableHeaderOnly(t *testing.T) {
	r := newTestRouter(t, false)
	w := do(t, r, http.MethodPost, "/api/export", `{"columns":["caseId"],"rows":[]}`)
	if w.Code != http.StatusOK || w.Body.String() != "caseId\n" {
		t.Errorf("got %d %q", w.Code, w.Body.String())
	}
}
