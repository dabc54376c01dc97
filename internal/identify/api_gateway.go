package identify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ecotrace/internal/ai"
)

// identifyInstruction is the structured-output contract the parser relies on.
const identifyInstruction = `Identify the electronic device or component in this image and provide comprehensive e-waste guidance. It is crucial that you only identify devices that are electronic. If the item in the image is not an electronic device (e.g., furniture, clothing, non-electronic household items), you must respond with "No Device Detected" for the device name.

Please format your response EXACTLY as follows:

DEVICE: [Name of the electronic device/component]
DEVICE_CO2: [Estimated CO2 emissions for manufacturing this device in kg, as an integer]
DEVICE_KWH: [Estimated kWh of electricity consumed by this device annually, as an integer]

DISPOSAL:
[Provide 3-5 bullet points on how to properly dispose of this device, including e-waste recycling centers, manufacturer take-back programs, retail drop-off locations, special handling requirements, and environmental considerations]

REUSE IDEAS:
1. [Creative reuse idea #1]
2. [Creative reuse idea #2]
3. [Creative reuse idea #3]
4. [Creative reuse idea #4]
5. [Creative reuse idea #5]

Focus on practical, safe, and creative ways to repurpose the device or its components. If the device is still functional, prioritize extending its useful life. If it's broken, think about how individual components could be repurposed.

If you cannot clearly identify the device, provide your best assessment and general e-waste guidance, and set CO2 and KWH to 0. If no device is detected, or if the item is not an electronic device, respond with "No Device Detected" for the device name and set all other fields to 0 or empty.`

// VisionAPIGateway identifies devices through a remote multimodal vision API
// and parses its structured text reply.
type VisionAPIGateway struct {
	client  *ai.VisionClient
	cfg     ai.VisionConfig
	timeout time.Duration
}

func NewVisionAPIGateway(client *ai.VisionClient, cfg ai.VisionConfig, timeout time.Duration) *VisionAPIGateway {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &VisionAPIGateway{
		client:  client,
		cfg:     cfg,
		timeout: timeout,
	}
}

func (g *VisionAPIGateway) Identify(ctx context.Context, imageData []byte, mimeType string) (DeviceGuide, error) {
	if !strings.HasPrefix(mimeType, "image/") {
		return DeviceGuide{}, fmt.Errorf("%w: %s", ErrInvalidImageFormat, mimeType)
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	blob, err := g.client.Describe(callCtx, g.cfg, imageData, mimeType, identifyInstruction)
	if err != nil {
		return DeviceGuide{}, classifyAPIError(err)
	}

	return ParseGuidance(blob), nil
}

// classifyAPIError maps transport and HTTP failures onto the gateway error
// taxonomy. Rate limits, server faults, and timeouts are transient; other
// 4xx mean the request itself was rejected.
func classifyAPIError(err error) error {
	var apiErr *ai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("%w: rate limited", ErrServiceUnavailable)
		case apiErr.StatusCode >= 500:
			return fmt.Errorf("%w: status %d", ErrServiceUnavailable, apiErr.StatusCode)
		case apiErr.StatusCode >= 400:
			return fmt.Errorf("%w: status %d", ErrBadRequest, apiErr.StatusCode)
		}
		return fmt.Errorf("%w: status %d", ErrUnknownService, apiErr.StatusCode)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: timed out", ErrServiceUnavailable)
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: timed out", ErrServiceUnavailable)
	}
	return fmt.Errorf("%w: %v", ErrUnknownService, err)
}
