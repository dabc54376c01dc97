package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"ecotrace/internal/app"
	"ecotrace/internal/identify"
)

// IdentifyHandler serves the photo-upload identification endpoint. Its JSON
// shapes follow the original front-end contract ({class, ...} / {error}), not
// the envelope the rest of the API uses.
type IdentifyHandler struct {
	identifyService *app.IdentifyService
}

func NewIdentifyHandler(identifyService *app.IdentifyService) *IdentifyHandler {
	return &IdentifyHandler{identifyService: identifyService}
}

// Predict accepts a multipart form with an "image" file, classifies it, and
// returns the device guide, or {class: "No Device Detected"} when the image
// holds no electronic device.
func (h *IdentifyHandler) Predict(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing image file (form field 'image')"})
		return
	}
	if file.Size > h.identifyService.MaxImageSize() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image too large"})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to open uploaded file"})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read image"})
		return
	}

	mimeType := file.Header.Get("Content-Type")
	guide, err := h.identifyService.Identify(c.Request.Context(), data, mimeType)
	if err != nil {
		status := http.StatusInternalServerError
		message := "classification failed"
		switch {
		case errors.Is(err, identify.ErrInvalidImageFormat):
			status = http.StatusBadRequest
			message = "Invalid image format"
		case errors.Is(err, identify.ErrBadRequest):
			status = http.StatusBadRequest
			message = err.Error()
		case errors.Is(err, identify.ErrServiceUnavailable):
			status = http.StatusServiceUnavailable
			message = "Identification service unavailable. Please try again later."
		}
		c.JSON(status, gin.H{"error": message})
		return
	}

	if guide.IsSentinel() {
		c.JSON(http.StatusOK, gin.H{"class": guide.DeviceName})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"class":         guide.DeviceName,
		"full_response": guide.FullResponse,
		"disposal_info": guide.DisposalInfo,
		"reuse_ideas":   guide.ReuseIdeas,
		"device_co2":    guide.DeviceCO2,
		"device_kwh":    guide.DeviceKWh,
	})
}
