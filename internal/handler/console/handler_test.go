package console

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-console/internal/apiclient"
	"github.com/jwalitptl/clinic-console/internal/middleware"
	"github.com/jwalitptl/clinic-console/internal/model"
	"github.com/jwalitptl/clinic-console/internal/registry"
	consolesvc "github.com/jwalitptl/clinic-console/internal/service/console"
	"github.com/jwalitptl/clinic-console/internal/store"
	"github.com/jwalitptl/clinic-console/internal/view"
	"github.com/jwalitptl/clinic-console/pkg/validator"
)

// fakeClinic is an in-memory clinic REST API.
type fakeClinic struct {
	mu       sync.Mutex
	data     map[string][]map[string]interface{}
	nextID   int
	failList map[string]int
	failSave int
	lists    map[string]int
	received []map[string]interface{}
}

func newFakeClinic() *fakeClinic {
	return &fakeClinic{
		data: map[string][]map[string]interface{}{
			"doctors": {
				{"id": 1, "name": "Alice Smith", "specialization": "Cardiology", "available": true},
				{"id": 2, "name": "Bob Lee", "specialization": "Neurology", "available": false},
			},
			"patients":     {},
			"appointments": {{"id": 1, "doctorId": 1, "patientId": 3, "appointmentDate": "2024-05-01T10:00"}},
		},
		nextID:   100,
		failList: map[string]int{},
		lists:    map[string]int{},
	}
}

func (f *fakeClinic) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	resource := parts[0]
	records, ok := f.data[resource]
	if !ok {
		http.NotFound(w, r)
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			f.lists[resource]++
			if code := f.failList[resource]; code != 0 {
				http.Error(w, "list failed", code)
				return
			}
			_ = json.NewEncoder(w).Encode(records)
		case http.MethodPost:
			if f.failSave != 0 {
				http.Error(w, "save failed", f.failSave)
				return
			}
			var body map[string]interface{}
			_ = json.NewDecoder(r.Body).Decode(&body)
			f.received = append(f.received, clone(body))
			f.nextID++
			body["id"] = f.nextID
			f.data[resource] = append(records, body)
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(body)
		}
		return
	}

	id, _ := strconv.Atoi(parts[1])
	idx := -1
	for i, rec := range records {
		if rec["id"] == id {
			idx = i
		}
	}
	if idx < 0 {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		_ = json.NewEncoder(w).Encode(records[idx])
	case http.MethodPut:
		if f.failSave != 0 {
			http.Error(w, "save failed", f.failSave)
			return
		}
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.received = append(f.received, clone(body))
		body["id"] = id
		records[idx] = body
		_ = json.NewEncoder(w).Encode(body)
	case http.MethodDelete:
		f.data[resource] = append(records[:idx], records[idx+1:]...)
		w.WriteHeader(http.StatusNoContent)
	}
}

func clone(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (f *fakeClinic) listCalls(resource string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists[resource]
}

func setupRouter(t *testing.T) (*gin.Engine, *fakeClinic) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validator.Register()

	clinic := newFakeClinic()
	srv := httptest.NewServer(clinic)
	t.Cleanup(srv.Close)

	reg := registry.Default()
	client := apiclient.New(apiclient.Config{BaseURL: srv.URL}, nil, zerolog.Nop())
	svc := consolesvc.NewService(client, store.New(nil), reg, nil, consolesvc.Config{}, nil, zerolog.Nop())
	h := NewHandler(svc, reg)

	r := gin.New()
	r.SetHTMLTemplate(view.MustTemplates())
	h.RegisterRoutes(r.Group(Prefix))
	h.RegisterAPIRoutes(r.Group("/api/v1", middleware.ErrorHandler()))
	return r, clinic
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func postForm(r http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestDashboard(t *testing.T) {
	r, _ := setupRouter(t)

	w := get(r, "/console")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `<p class="display-6" id="total-doctors">2</p>`)
	assert.Contains(t, body, `<p class="display-6" id="total-patients">0</p>`)
	assert.Contains(t, body, `<p class="display-6" id="available-doctors">1</p>`)
}

func TestDashboard_APIFailure(t *testing.T) {
	r, clinic := setupRouter(t)
	clinic.failList["patients"] = http.StatusInternalServerError

	w := get(r, "/console")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "Error loading dashboard: HTTP 500: list failed")
}

func TestList_ShowsCards(t *testing.T) {
	r, _ := setupRouter(t)

	w := get(r, "/console/doctors")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Doctors Management")
	assert.Contains(t, body, "Alice Smith")
	assert.Contains(t, body, "Specialization: Cardiology, Available: true")
	assert.Contains(t, body, `action="/console/doctors/2/delete"`)
}

func TestList_NoData(t *testing.T) {
	r, _ := setupRouter(t)

	w := get(r, "/console/patients")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No data available. Create a new entry to get started!")
}

func TestList_SearchUsesSnapshot(t *testing.T) {
	r, clinic := setupRouter(t)

	require.Equal(t, http.StatusOK, get(r, "/console/doctors").Code)
	assert.Equal(t, 1, clinic.listCalls("doctors"))

	w := get(r, "/console/doctors?q=NEURO")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Bob Lee")
	assert.NotContains(t, w.Body.String(), "Alice Smith")

	w = get(r, "/console/doctors?q=zzz")
	assert.Contains(t, w.Body.String(), "No results found for &#34;zzz&#34;")

	assert.Equal(t, 1, clinic.listCalls("doctors"), "search must not refetch")
}

func TestList_SearchLoadsOnce(t *testing.T) {
	r, clinic := setupRouter(t)

	w := get(r, "/console/appointments?q=2024-05")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Appointment 1")
	assert.Equal(t, 1, clinic.listCalls("appointments"))
}

func TestList_LoadError(t *testing.T) {
	r, clinic := setupRouter(t)
	clinic.failList["doctors"] = http.StatusInternalServerError

	w := get(r, "/console/doctors")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "Error loading doctors: HTTP 500: list failed")
}

func TestList_UnknownResource(t *testing.T) {
	r, _ := setupRouter(t)

	w := get(r, "/console/nurses")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "resource &#34;nurses&#34; not found")
}

func TestShow(t *testing.T) {
	r, _ := setupRouter(t)

	w := get(r, "/console/doctors/1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Doctor Details")
	assert.Contains(t, w.Body.String(), "<td>Cardiology</td>")

	w = get(r, "/console/doctors/abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = get(r, "/console/doctors/99")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/console/doctors?alert=Error+fetching+doctor+details", w.Header().Get("Location"))
}

func TestNewAndEditForms(t *testing.T) {
	r, _ := setupRouter(t)

	w := get(r, "/console/patients/new")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Add Patient")
	assert.Contains(t, w.Body.String(), `action="/console/patients"`)

	w = get(r, "/console/doctors/1/edit")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Edit Doctor")
	assert.Contains(t, body, `action="/console/doctors/1"`)
	assert.Contains(t, body, `value="Alice Smith"`)
	assert.Contains(t, body, `<option value="true" selected>Yes</option>`)
}

func TestCreate(t *testing.T) {
	r, clinic := setupRouter(t)

	w := postForm(r, "/console/patients", url.Values{"name": {"Carol"}, "age": {"30"}, "gender": {"Female"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/console/patients?notice=Patient+created+successfully%21", w.Header().Get("Location"))

	require.Len(t, clinic.received, 1)
	assert.Equal(t, map[string]interface{}{"name": "Carol", "age": 30.0, "gender": "Female"}, clinic.received[0])

	w = get(r, w.Header().Get("Location"))
	assert.Contains(t, w.Body.String(), "Patient created successfully!")
	assert.Contains(t, w.Body.String(), "Carol")
}

func TestCreate_ValidationError(t *testing.T) {
	r, clinic := setupRouter(t)

	w := postForm(r, "/console/appointments", url.Values{"doctorId": {"0"}, "patientId": {"3"}})
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Doctor ID is required")
	assert.Contains(t, body, "Appointment Date is required")
	assert.Contains(t, body, `value="3"`)
	assert.Empty(t, clinic.received)
}

func TestCreate_BlankAgeRejected(t *testing.T) {
	r, clinic := setupRouter(t)

	w := postForm(r, "/console/patients", url.Values{"name": {"Ann"}, "age": {""}, "gender": {"Female"}})
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Age is required")
	assert.Contains(t, body, `value="Ann"`)
	assert.Empty(t, clinic.received)
}

func TestCreate_ZeroAgeAccepted(t *testing.T) {
	r, clinic := setupRouter(t)

	w := postForm(r, "/console/patients", url.Values{"name": {"Newborn"}, "age": {"0"}, "gender": {"Other"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Len(t, clinic.received, 1)
	assert.Equal(t, 0.0, clinic.received[0]["age"])
}

func TestUpdate(t *testing.T) {
	r, clinic := setupRouter(t)

	w := postForm(r, "/console/doctors/2", url.Values{"name": {"Bob Lee"}, "specialization": {"Neurology"}, "available": {"true"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/console/doctors?notice=Doctor+updated+successfully%21", w.Header().Get("Location"))
	require.Len(t, clinic.received, 1)
	assert.Equal(t, true, clinic.received[0]["available"])
}

func TestSave_APIFailure(t *testing.T) {
	r, clinic := setupRouter(t)
	clinic.failSave = http.StatusInternalServerError

	w := postForm(r, "/console/doctors", url.Values{"name": {"Dan"}, "specialization": {"Oncology"}, "available": {"false"}})
	require.Equal(t, http.StatusSeeOther, w.Code)

	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "Error saving doctor: HTTP 500: save failed", loc.Query().Get("alert"))
}

func TestDelete(t *testing.T) {
	r, clinic := setupRouter(t)

	w := postForm(r, "/console/doctors/1/delete", nil)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/console/doctors?notice=Doctor+deleted+successfully%21", w.Header().Get("Location"))
	assert.Len(t, clinic.data["doctors"], 1)

	w = postForm(r, "/console/doctors/1/delete", nil)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/console/doctors?alert=Error+deleting+doctor", w.Header().Get("Location"))
}

func TestAPIList(t *testing.T) {
	r, _ := setupRouter(t)

	w := get(r, "/api/v1/resources/doctors?q=alice")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status string          `json:"status"`
		Data   consolesvc.View `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, consolesvc.StateResults, resp.Data.State)
	require.Len(t, resp.Data.Cards, 1)
	assert.Equal(t, "Alice Smith", resp.Data.Cards[0].Title)
	assert.Equal(t, model.Doctors, resp.Data.Type)
}

func TestAPIErrors(t *testing.T) {
	r, clinic := setupRouter(t)

	w := get(r, "/api/v1/resources/nurses")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = get(r, "/api/v1/resources/doctors/x")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	clinic.failList["doctors"] = http.StatusServiceUnavailable
	w = get(r, "/api/v1/dashboard")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	body, _ := io.ReadAll(w.Body)
	assert.JSONEq(t, `{"status":"error","message":"HTTP 503: list failed"}`, string(body))
}

func TestAPIShow(t *testing.T) {
	r, _ := setupRouter(t)

	w := get(r, "/api/v1/resources/appointments/1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"appointmentDate":"2024-05-01T10:00"`)
}
