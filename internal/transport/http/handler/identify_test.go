package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecotrace/internal/app"
	"ecotrace/internal/identify"
)

type stubGateway struct {
	guide identify.DeviceGuide
	err   error
}

func (s *stubGateway) Identify(ctx context.Context, imageData []byte, mimeType string) (identify.DeviceGuide, error) {
	if s.err != nil {
		return identify.DeviceGuide{}, s.err
	}
	return s.guide, nil
}

func newIdentifyTestRouter(t *testing.T, gateway identify.ClassifierGateway) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	service := app.NewIdentifyService(gateway, 1<<20)
	h := NewIdentifyHandler(service)

	router := gin.New()
	router.POST("/identify/predict/", h.Predict)
	return router
}

func multipartImage(t *testing.T, fieldName, mimeType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="`+fieldName+`"; filename="device.jpg"`)
	header.Set("Content-Type", mimeType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

func TestIdentifyHandler_Predict_Success(t *testing.T) {
	gateway := &stubGateway{guide: identify.DeviceGuide{
		DeviceName:   "Laptop",
		DeviceCO2:    300,
		DeviceKWh:    150,
		DisposalInfo: "- recycle",
		ReuseIdeas:   "1. repurpose",
		FullResponse: "DEVICE: Laptop",
	}}
	router := newIdentifyTestRouter(t, gateway)

	body, contentType := multipartImage(t, "image", "image/jpeg", []byte("fake-image"))
	req := httptest.NewRequest(http.MethodPost, "/identify/predict/", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Class        string `json:"class"`
		FullResponse string `json:"full_response"`
		DisposalInfo string `json:"disposal_info"`
		ReuseIdeas   string `json:"reuse_ideas"`
		DeviceCO2    int64  `json:"device_co2"`
		DeviceKWh    int64  `json:"device_kwh"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Laptop", resp.Class)
	assert.Equal(t, "- recycle", resp.DisposalInfo)
	assert.Equal(t, "1. repurpose", resp.ReuseIdeas)
	assert.Equal(t, int64(300), resp.DeviceCO2)
	assert.Equal(t, int64(150), resp.DeviceKWh)
}

func TestIdentifyHandler_Predict_SentinelOmitsGuidance(t *testing.T) {
	gateway := &stubGateway{guide: identify.DeviceGuide{DeviceName: identify.SentinelNoDevice}}
	router := newIdentifyTestRouter(t, gateway)

	body, contentType := multipartImage(t, "image", "image/jpeg", []byte("fake-image"))
	req := httptest.NewRequest(http.MethodPost, "/identify/predict/", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, identify.SentinelNoDevice, resp["class"])
	assert.NotContains(t, resp, "device_co2")
	assert.NotContains(t, resp, "disposal_info")
	assert.NotContains(t, resp, "reuse_ideas")
}

func TestIdentifyHandler_Predict_MissingFile(t *testing.T) {
	router := newIdentifyTestRouter(t, &stubGateway{})

	req := httptest.NewRequest(http.MethodPost, "/identify/predict/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "error")
}

func TestIdentifyHandler_Predict_NonImageMIME(t *testing.T) {
	router := newIdentifyTestRouter(t, &stubGateway{})

	body, contentType := multipartImage(t, "image", "application/pdf", []byte("%PDF-1.4"))
	req := httptest.NewRequest(http.MethodPost, "/identify/predict/", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid image format")
}

func TestIdentifyHandler_Predict_ServiceUnavailable(t *testing.T) {
	router := newIdentifyTestRouter(t, &stubGateway{err: identify.ErrServiceUnavailable})

	body, contentType := multipartImage(t, "image", "image/png", []byte("fake-image"))
	req := httptest.NewRequest(http.MethodPost, "/identify/predict/", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "error")
}
