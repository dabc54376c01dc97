package identify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ecotrace/internal/vision"
)

// DeviceClassifier is the closed-set classifier behind the local backend.
type DeviceClassifier interface {
	Classify(imageData []byte) ([]vision.Prediction, error)
}

// LocalGateway identifies devices with the in-process ONNX classifier. The
// model only emits a class label, so the guide carries the device name and
// nothing else; guidance text and impact estimates stay empty.
type LocalGateway struct {
	classifier DeviceClassifier
	minScore   float32
}

func NewLocalGateway(classifier DeviceClassifier, minScore float64) *LocalGateway {
	return &LocalGateway{
		classifier: classifier,
		minScore:   float32(minScore),
	}
}

func (g *LocalGateway) Identify(ctx context.Context, imageData []byte, mimeType string) (DeviceGuide, error) {
	if !strings.HasPrefix(mimeType, "image/") {
		return DeviceGuide{}, fmt.Errorf("%w: %s", ErrInvalidImageFormat, mimeType)
	}
	if err := ctx.Err(); err != nil {
		return DeviceGuide{}, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}

	predictions, err := g.classifier.Classify(imageData)
	if err != nil {
		if errors.Is(err, vision.ErrDecodeImage) {
			return DeviceGuide{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
		}
		return DeviceGuide{}, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	if len(predictions) == 0 {
		return DeviceGuide{}, fmt.Errorf("%w: classifier returned no predictions", ErrUnknownService)
	}

	top := predictions[0]
	if top.Label == "" || top.Probability < g.minScore {
		return sentinelGuide(), nil
	}

	guide := DeviceGuide{DeviceName: CleanDeviceName(top.Label)}
	if guide.IsSentinel() {
		return sentinelGuide(), nil
	}
	return guide, nil
}
