package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	config "github.com/wakequeue/wakequeue/config/utils"
	"github.com/wakequeue/wakequeue/internal/adapter/storage/memory"
	"github.com/wakequeue/wakequeue/internal/core/domain"
	"github.com/wakequeue/wakequeue/internal/core/service"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T, agentToken string) http.Handler {
	t.Helper()

	log := zap.NewNop()
	tasks := service.NewTaskService(memory.NewTaskRepository(), nil, log)
	devices := service.NewDeviceService(memory.NewDeviceRepository(), tasks, log)
	handler := NewHandler(tasks, devices, nil, nil, agentToken, log)

	return NewRouter(&config.HTTP{Addr: ":0", AgentToken: agentToken}, handler)
}

func doJSON(t *testing.T, router http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeTask(t *testing.T, rec *httptest.ResponseRecorder) *domain.Task {
	t.Helper()

	var payload struct {
		Task *domain.Task `json:"task"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode task response: %v", err)
	}
	return payload.Task
}

func decodeTaskList(t *testing.T, rec *httptest.ResponseRecorder) []*domain.Task {
	t.Helper()

	var payload struct {
		Tasks []*domain.Task `json:"tasks"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode task list response: %v", err)
	}
	return payload.Tasks
}

func TestCreateTask_ReturnsNormalizedMAC(t *testing.T) {
	router := newTestRouter(t, "")

	rec := doJSON(t, router, "POST", "/api/tasks", `{"mac_address":"aa-bb-cc-dd-ee-ff"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	task := decodeTask(t, rec)
	if task.MACAddress != "AA:BB:CC:DD:EE:FF" {
		t.Errorf("expected canonical MAC in response, got %q", task.MACAddress)
	}
	if task.Status != domain.TaskStatusPending {
		t.Errorf("expected pending, got %s", task.Status)
	}
}

func TestCreateTask_BadMAC(t *testing.T) {
	router := newTestRouter(t, "")

	for _, body := range []string{`{"mac_address":"nope"}`, `{}`, `not json`} {
		rec := doJSON(t, router, "POST", "/api/tasks", body, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: expected 400, got %d", body, rec.Code)
		}
		var payload map[string]string
		if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil || payload["error"] == "" {
			t.Errorf("body %q: expected {error} payload, got %s", body, rec.Body.String())
		}
	}
}

func TestUpdateTaskStatus_Errors(t *testing.T) {
	router := newTestRouter(t, "")

	rec := doJSON(t, router, "PUT", "/api/tasks", `{"id":"missing","status":"success"}`, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown id: expected 404, got %d", rec.Code)
	}

	created := decodeTask(t, doJSON(t, router, "POST", "/api/tasks", `{"mac_address":"AA:BB:CC:DD:EE:FF"}`, nil))
	rec = doJSON(t, router, "PUT", "/api/tasks", `{"id":"`+created.ID+`","status":"done"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad status: expected 400, got %d", rec.Code)
	}

	// A claimed task cannot be pushed back into the queue.
	doJSON(t, router, "POST", "/api/tasks/claim", `{"limit":10}`, nil)
	rec = doJSON(t, router, "PUT", "/api/tasks", `{"id":"`+created.ID+`","status":"pending"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("re-enter pending: expected 400, got %d", rec.Code)
	}
	rec = doJSON(t, router, "GET", "/api/tasks", "", nil)
	if task := decodeTaskList(t, rec)[0]; task.Status != domain.TaskStatusProcessing || task.Attempts != 1 {
		t.Errorf("rejected update mutated the task: (%s, %d), want (processing, 1)", task.Status, task.Attempts)
	}
}

func TestNotify_Errors(t *testing.T) {
	router := newTestRouter(t, "")

	rec := doJSON(t, router, "POST", "/api/notify", `{}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("no target: expected 400, got %d", rec.Code)
	}

	rec = doJSON(t, router, "POST", "/api/notify", `{"mac_address":"AA:BB:CC:DD:EE:FF"}`, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unresolved: expected 404, got %d", rec.Code)
	}
}

func TestClaimEndpoints_RequireBearerToken(t *testing.T) {
	router := newTestRouter(t, "sekrit")

	rec := doJSON(t, router, "POST", "/api/tasks/claim", `{"limit":5}`, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: expected 401, got %d", rec.Code)
	}

	rec = doJSON(t, router, "GET", "/api/tasks/pending", "", map[string]string{"Authorization": "Bearer wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong token: expected 401, got %d", rec.Code)
	}

	rec = doJSON(t, router, "POST", "/api/tasks/claim", `{"limit":5}`, map[string]string{"Authorization": "Bearer sekrit"})
	if rec.Code != http.StatusOK {
		t.Errorf("valid token: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestWakeFlow_EndToEnd(t *testing.T) {
	router := newTestRouter(t, "")

	created := decodeTask(t, doJSON(t, router, "POST", "/api/tasks", `{"mac_address":"AA:BB:CC:DD:EE:FF"}`, nil))

	// Agent claims the batch.
	rec := doJSON(t, router, "POST", "/api/tasks/claim", `{"limit":10}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("claim: expected 200, got %d", rec.Code)
	}
	var claimResp struct {
		Tasks []*domain.ClaimedTask `json:"tasks"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&claimResp); err != nil {
		t.Fatalf("decode claim response: %v", err)
	}
	if len(claimResp.Tasks) != 1 || claimResp.Tasks[0].ID != created.ID {
		t.Fatalf("claim returned %+v, want the created task", claimResp.Tasks)
	}

	// Device shows up, reported by MAC in dash form.
	rec = doJSON(t, router, "POST", "/api/notify", `{"mac_address":"aa-bb-cc-dd-ee-ff"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("notify: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	notified := decodeTask(t, rec)
	if notified.Status != domain.TaskStatusSuccess || notified.Attempts != 1 {
		t.Errorf("notify result = (%s, %d), want (success, 1)", notified.Status, notified.Attempts)
	}

	// The polling UI sees the final state.
	rec = doJSON(t, router, "GET", "/api/tasks", "", nil)
	var listResp struct {
		Tasks []*domain.Task `json:"tasks"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&listResp); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if len(listResp.Tasks) != 1 || listResp.Tasks[0].Status != domain.TaskStatusSuccess {
		t.Errorf("list = %+v, want one successful task", listResp.Tasks)
	}
}

func TestDeviceWakeConvenience(t *testing.T) {
	router := newTestRouter(t, "")

	rec := doJSON(t, router, "POST", "/api/devices", `{"mac_address":"11:22:33:44:55:66","label":"nas"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("save device: expected 201, got %d", rec.Code)
	}
	var devResp struct {
		Device *domain.Device `json:"device"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&devResp); err != nil {
		t.Fatalf("decode device response: %v", err)
	}

	rec = doJSON(t, router, "POST", "/api/devices/"+devResp.Device.ID+"/wake", "", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("wake device: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	task := decodeTask(t, rec)
	if task.MACAddress != "11:22:33:44:55:66" || task.DeviceID != devResp.Device.ID {
		t.Errorf("wake task = %+v, want device MAC and reference", task)
	}

	rec = doJSON(t, router, "DELETE", "/api/devices/"+devResp.Device.ID, "", nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete device: expected 204, got %d", rec.Code)
	}

	rec = doJSON(t, router, "DELETE", "/api/devices/"+devResp.Device.ID, "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("delete again: expected 404, got %d", rec.Code)
	}
}
