package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecotrace/internal/app"
	"ecotrace/internal/identify"
	"ecotrace/internal/model"
	"ecotrace/internal/transport/http/middleware"
)

type stubTrackerRepo struct {
	mu      sync.Mutex
	totals  map[uint]*model.UserTracker
	devices []model.DeviceTracker
}

func newStubTrackerRepo() *stubTrackerRepo {
	return &stubTrackerRepo{totals: make(map[uint]*model.UserTracker)}
}

func (r *stubTrackerRepo) RecordDisposal(ctx context.Context, userID uint, device *model.DeviceTracker) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tracker, ok := r.totals[userID]
	if !ok {
		tracker = &model.UserTracker{UserID: userID}
		r.totals[userID] = tracker
	}
	tracker.TotalDevices++
	tracker.TotalCO2 += device.DeviceCO2
	tracker.TotalKWh += device.DeviceKWh
	device.UserID = userID
	r.devices = append(r.devices, *device)
	return tracker.TotalDevices, nil
}

func (r *stubTrackerRepo) GetByUserID(ctx context.Context, userID uint) (*model.UserTracker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tracker, ok := r.totals[userID]
	if !ok {
		return nil, nil
	}
	copied := *tracker
	return &copied, nil
}

func (r *stubTrackerRepo) ListDevicesByUserID(ctx context.Context, userID uint, limit int) ([]model.DeviceTracker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.DeviceTracker
	for _, d := range r.devices {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	return out, nil
}

func newTrackerTestRouter(t *testing.T, authenticated bool) (*gin.Engine, *stubTrackerRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := newStubTrackerRepo()
	service := app.NewTrackerService(repo, nil, nil)
	h := NewTrackerHandler(service, nil)

	router := gin.New()
	setUser := func(c *gin.Context) {
		if authenticated {
			c.Set(middleware.ContextUserIDKey, uint(1))
		}
	}
	router.POST("/update-tracker/", setUser, h.Update)
	router.GET("/tracker/", setUser, h.Summary)
	return router, repo
}

func postJSON(router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestTrackerHandler_Update_Success(t *testing.T) {
	router, repo := newTrackerTestRouter(t, true)

	w := postJSON(router, "/update-tracker/", gin.H{
		"action":      "dispose_reuse",
		"device_name": "Laptop",
		"device_co2":  300,
		"device_kwh":  150,
	})

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success      bool   `json:"success"`
		TotalDevices int64  `json:"total_devices"`
		Message      string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, int64(1), resp.TotalDevices)
	assert.NotEmpty(t, resp.Message)
	assert.Len(t, repo.devices, 1)
}

func TestTrackerHandler_Update_Unauthenticated(t *testing.T) {
	router, repo := newTrackerTestRouter(t, false)

	w := postJSON(router, "/update-tracker/", gin.H{
		"action":      "dispose_reuse",
		"device_name": "Laptop",
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
	assert.Empty(t, repo.devices)
}

func TestTrackerHandler_Update_MalformedJSON(t *testing.T) {
	router, _ := newTrackerTestRouter(t, true)

	req := httptest.NewRequest(http.MethodPost, "/update-tracker/", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid JSON data")
}

func TestTrackerHandler_Update_InvalidAction(t *testing.T) {
	router, _ := newTrackerTestRouter(t, true)

	w := postJSON(router, "/update-tracker/", gin.H{
		"action":      "burn_it",
		"device_name": "Laptop",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid action")
}

func TestTrackerHandler_Update_SentinelRejected(t *testing.T) {
	router, repo := newTrackerTestRouter(t, true)

	w := postJSON(router, "/update-tracker/", gin.H{
		"action":      "dispose_reuse",
		"device_name": identify.SentinelNoDevice,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
	assert.Empty(t, repo.devices)
}

func TestTrackerHandler_Summary_Unauthenticated(t *testing.T) {
	router, _ := newTrackerTestRouter(t, false)

	req := httptest.NewRequest(http.MethodGet, "/tracker/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var summary model.TrackerSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Zero(t, summary.TotalDevices)
	assert.Empty(t, summary.Devices)
}

func TestTrackerHandler_Summary_AfterUpdates(t *testing.T) {
	router, _ := newTrackerTestRouter(t, true)

	postJSON(router, "/update-tracker/", gin.H{
		"action": "dispose_reuse", "device_name": "Laptop", "device_co2": 300, "device_kwh": 150,
	})
	postJSON(router, "/update-tracker/", gin.H{
		"action": "dispose_reuse", "device_name": "Smartphone", "device_co2": 55, "device_kwh": 7,
	})

	req := httptest.NewRequest(http.MethodGet, "/tracker/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var summary model.TrackerSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, int64(2), summary.TotalDevices)
	assert.Equal(t, int64(355), summary.TotalCO2)
	assert.Equal(t, int64(157), summary.TotalKWh)
	assert.Len(t, summary.Devices, 2)
}
